package collate_test

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/molecula/unbounded/collate"
	"github.com/stretchr/testify/assert"
)

var samples = []interface{}{
	nil,
	0.0,
	-3.5,
	42,
	int64(7),
	json.Number("7"),
	"",
	"abc",
	"abd",
	"B",
	true,
	false,
	[]interface{}{},
	[]interface{}{1.0},
	[]interface{}{1.0, 2.0},
	[]interface{}{"x", nil},
	map[string]interface{}{},
	map[string]interface{}{"a": 1.0},
	map[string]interface{}{"a": 1.0, "b": 2.0},
	map[string]interface{}{"b": 2.0},
	map[string]interface{}{"A": nil},
	map[string]interface{}{"a": []interface{}{true}},
}

func TestCompareReflexiveAndAntisymmetric(t *testing.T) {
	for i, a := range samples {
		assert.Equal(t, 0, collate.Compare(a, a), "compare(%v, %v)", a, a)
		for j, b := range samples {
			ab, ba := collate.Compare(a, b), collate.Compare(b, a)
			assert.Equal(t, ab, -ba, "samples %d and %d: %v vs %v", i, j, a, b)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b interface{}
		exp  int
	}{
		{nil, nil, 0},
		{nil, 0.0, -1},
		{nil, false, -1},
		{"", nil, 1},
		{1.0, 2.0, -1},
		{10, 9.5, 1},
		{int64(3), 3.0, 0},
		{json.Number("2.5"), 2.5, 0},
		{"a", "b", -1},
		{"b", "a", 1},
		{"B", "a", -1},
		{false, true, -1},
		{true, true, 0},

		// arrays: element-wise, then shorter first
		{[]interface{}{1.0, 2.0}, []interface{}{1.0, 3.0}, -1},
		{[]interface{}{1.0}, []interface{}{1.0, 0.0}, -1},
		{[]interface{}{2.0}, []interface{}{1.0, 5.0}, 1},
		{[]int{1, 2}, []interface{}{1.0, 2.0}, 0},

		// objects: sorted key union, a missing key reads as nil
		{map[string]interface{}{"a": 1.0}, map[string]interface{}{"a": 1.0, "b": 2.0}, -1},
		{map[string]interface{}{"a": 1.0, "b": 2.0}, map[string]interface{}{"a": 1.0}, 1},
		{map[string]interface{}{"b": 1.0}, map[string]interface{}{"a": 1.0}, -1},
		{map[string]interface{}{"a": 2.0}, map[string]interface{}{"a": 1.0, "b": 9.0}, 1},
		{map[string]interface{}{"a": nil}, map[string]interface{}{}, 0},
		{map[string]int{"a": 1}, map[string]interface{}{"a": 1.0}, 0},

		// different kinds compare by kind name
		{"1", 1.0, 1},
		{1.0, "1", -1},
		{true, 0.0, -1},
		{[]interface{}{}, false, -1},
		{map[string]interface{}{}, "", -1},
		{map[string]interface{}{}, 1.0, 1},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, test.exp, collate.Compare(test.a, test.b), "compare(%#v, %#v)", test.a, test.b)
		})
	}
}

func TestCompareStructsByJSON(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	assert.Equal(t, -1, collate.Compare(point{1, 2}, point{1, 3}))
	assert.Equal(t, 0, collate.Compare(point{1, 2}, map[string]interface{}{"x": 1.0, "y": 2.0}))
	assert.Equal(t, 1, collate.Compare(&point{2, 0}, point{1, 9}))
	var nilPoint *point
	assert.Equal(t, -1, collate.Compare(nilPoint, point{}))
}

func TestCompareNaN(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 0, collate.Compare(nan, nan))
	for _, n := range []interface{}{math.Inf(-1), -1.0, 0, 3, float32(2.5), math.Inf(1)} {
		assert.Equal(t, -1, collate.Compare(nan, n), "%v", n)
		assert.Equal(t, 1, collate.Compare(n, nan), "%v", n)
	}
	assert.Equal(t, -1, collate.Compare([]interface{}{nan}, []interface{}{1.0}))
}
