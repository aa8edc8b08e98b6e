// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package collate

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strings"
)

// Kind names, used directly as the cross-kind fallback order.
const (
	kindNull    = ""
	kindArray   = "array"
	kindBoolean = "boolean"
	kindNumber  = "number"
	kindObject  = "object"
	kindString  = "string"
)

// Compare returns -1, 0 or 1 depending on whether a sorts before, together
// with or after b.
func Compare(a, b interface{}) int {
	ak, av := normalize(a)
	bk, bv := normalize(b)

	if ak == kindNull || bk == kindNull {
		switch {
		case ak == bk:
			return 0
		case ak == kindNull:
			return -1
		default:
			return 1
		}
	}
	if ak != bk {
		return strings.Compare(ak, bk)
	}

	switch ak {
	case kindNumber:
		return compareFloat(av.(float64), bv.(float64))
	case kindString:
		return strings.Compare(av.(string), bv.(string))
	case kindBoolean:
		return compareFloat(boolNum(av.(bool)), boolNum(bv.(bool)))
	case kindArray:
		return compareArrays(av.([]interface{}), bv.([]interface{}))
	case kindObject:
		return compareObjects(av.(map[string]interface{}), bv.(map[string]interface{}))
	}
	// Two values of the same unknown kind.
	return 0
}

func compareArrays(a, b []interface{}) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareFloat(float64(len(a)), float64(len(b)))
}

func compareObjects(a, b map[string]interface{}) int {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		// A missing key reads as nil.
		if c := Compare(a[k], b[k]); c != 0 {
			return c
		}
	}
	return 0
}

// compareFloat orders NaN before every other number so that the order
// stays total for values which did not come from JSON.
func compareFloat(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// normalize maps v onto one of the kinds above, converting every numeric
// type to float64, sequences to []interface{} and string-keyed maps to
// map[string]interface{}.
func normalize(v interface{}) (string, interface{}) {
	switch x := v.(type) {
	case nil:
		return kindNull, nil
	case bool:
		return kindBoolean, x
	case string:
		return kindString, x
	case float64:
		return kindNumber, x
	case float32:
		return kindNumber, float64(x)
	case int:
		return kindNumber, float64(x)
	case int8:
		return kindNumber, float64(x)
	case int16:
		return kindNumber, float64(x)
	case int32:
		return kindNumber, float64(x)
	case int64:
		return kindNumber, float64(x)
	case uint:
		return kindNumber, float64(x)
	case uint8:
		return kindNumber, float64(x)
	case uint16:
		return kindNumber, float64(x)
	case uint32:
		return kindNumber, float64(x)
	case uint64:
		return kindNumber, float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return kindString, x.String()
		}
		return kindNumber, f
	case []interface{}:
		return kindArray, x
	case map[string]interface{}:
		return kindObject, x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return kindNull, nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return kindNull, nil
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return kindArray, out
	case reflect.Map:
		if rv.IsNil() {
			return kindNull, nil
		}
		if rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]interface{}, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = iter.Value().Interface()
			}
			return kindObject, out
		}
	case reflect.String:
		return kindString, rv.String()
	case reflect.Bool:
		return kindBoolean, rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindNumber, float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindNumber, float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return kindNumber, rv.Float()
	}

	// Structs and the like compare by their JSON form.
	if buf, err := json.Marshal(v); err == nil {
		var generic interface{}
		if err := json.Unmarshal(buf, &generic); err == nil {
			return normalize(generic)
		}
	}
	return rv.Type().String(), v
}
