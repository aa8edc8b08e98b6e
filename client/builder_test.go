// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabase(t *testing.T) *Database {
	t.Helper()
	c, err := NewClient(OptClientRegion("test"))
	require.NoError(t, err)
	return c.Database("people")
}

func TestBindWithoutCodeClause(t *testing.T) {
	db := testDatabase(t)

	q := db.NewQuery().Bind(1)
	assert.Equal(t, ErrNotBindable, q.Err())
	_, err := q.Send(context.Background())
	assert.Equal(t, ErrNotBindable, err)

	q = db.NewQuery().Match(obj{"id": 1}).Bind(1)
	assert.Equal(t, ErrNotBindable, q.Err())
}

func TestBindWindowClosedByLiteralClause(t *testing.T) {
	db := testDatabase(t)
	where := Func("function(o, a) { return o.a == a; }")

	for name, q := range map[string]*QueryBuilder{
		"single":  db.NewQuery().Where(where).Single(),
		"limit":   db.NewQuery().Where(where).Limit(3),
		"webhook": db.NewQuery().Where(where).Webhook("https://example.com/hook"),
		"match":   db.NewQuery().Where(where).Match(obj{"b": 2}),
		"sort":    db.NewQuery().Where(where).Sort("name"),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ErrNotBindable, q.Bind(1).Err())
		})
	}
}

func TestBindTwiceReplacesArguments(t *testing.T) {
	where := Func("function(o, a) { return o.a == a; }")
	q := testDatabase(t).NewQuery().Where(where).Bind(1).Bind(2)
	require.NoError(t, q.Err())
	assert.Equal(t, Code{Func: where, Bind: []interface{}{2}}, q.Operation()["where"])
}

func TestBindMostRecentClause(t *testing.T) {
	q := testDatabase(t).NewQuery().
		Where(Func("w")).Bind("x").
		Map(Func("m")).
		Filter(Func("f")).Bind(true)
	require.NoError(t, q.Err())

	op := q.Operation()
	assert.Equal(t, Code{Func: "w", Bind: []interface{}{"x"}}, op["where"])
	assert.Equal(t, Code{Func: "m"}, op["map"])
	assert.Equal(t, Code{Func: "f", Bind: []interface{}{true}}, op["filter"])

	assert.Equal(t, obj{
		"where":  obj{"code": "w", "bind": arr{"x"}},
		"map":    "m",
		"filter": obj{"code": "f", "bind": arr{true}},
	}, stringify(op))
}

func TestBindEmpty(t *testing.T) {
	q := testDatabase(t).NewQuery().Reduce(Func("r")).Bind()
	require.NoError(t, q.Err())
	assert.Equal(t, obj{"reduce": obj{"code": "r", "bind": arr{}}}, stringify(q.Operation()))
}

func TestSortClause(t *testing.T) {
	db := testDatabase(t)

	q := db.NewQuery().Sort(Sort{Code: "function(o, f) { return [o[f]]; }", Reverse: []bool{false, true}}).Bind("name")
	require.NoError(t, q.Err())
	assert.Equal(t, obj{"sort": obj{
		"code":    "function(o, f) { return [o[f]]; }",
		"bind":    arr{"name"},
		"reverse": []bool{false, true},
	}}, stringify(q.Operation()))

	q = db.NewQuery().Sort(Func("function(o) { return o.age; }")).Bind()
	require.NoError(t, q.Err())

	q = db.NewQuery().Sort(Sort{Reverse: []bool{true}}).Bind(1)
	assert.Equal(t, ErrNotBindable, q.Err())

	q = db.NewQuery().Sort(obj{"legacy": true}).Bind(1)
	assert.Equal(t, ErrNotBindable, q.Err())
}

func TestFirstErrorSticks(t *testing.T) {
	q := testDatabase(t).NewQuery().Bind(1).Where(Func("w")).Bind(2)
	assert.Equal(t, ErrNotBindable, q.Err())
	assert.NotContains(t, q.Operation(), "where")
}

func TestAggregates(t *testing.T) {
	db := testDatabase(t)
	for name, tt := range map[string]struct {
		q      *QueryBuilder
		mapFn  Code
		reduce Func
	}{
		"count": {db.NewQuery().Count(), Code{Func: countMap}, countReduce},
		"sum":   {db.NewQuery().Sum("age"), Code{Func: sumMap, Bind: []interface{}{"age"}}, sumReduce},
		"avg":   {db.NewQuery().Avg("age"), Code{Func: avgMap, Bind: []interface{}{"age"}}, avgReduce},
		"min":   {db.NewQuery().Min("age"), Code{Func: minMap, Bind: []interface{}{"age"}}, minReduce},
		"max":   {db.NewQuery().Max("age"), Code{Func: maxMap, Bind: []interface{}{"age"}}, maxReduce},
		"some":  {db.NewQuery().Some("vip"), Code{Func: someMap, Bind: []interface{}{"vip"}}, someReduce},
		"every": {db.NewQuery().Every("vip"), Code{Func: everyMap, Bind: []interface{}{"vip"}}, everyReduce},
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tt.q.Err())
			op := tt.q.Operation()
			assert.Equal(t, tt.mapFn, op["map"])
			assert.Equal(t, Code{Func: tt.reduce}, op["reduce"])
		})
	}
}

func TestAggregateAfterWhere(t *testing.T) {
	q := testDatabase(t).NewQuery().Where(Func("w")).Bind(1).Sum("age")
	require.NoError(t, q.Err())
	op := q.Operation()
	assert.Equal(t, Code{Func: "w", Bind: []interface{}{1}}, op["where"])
	assert.Equal(t, Code{Func: sumMap, Bind: []interface{}{"age"}}, op["map"])
}

func TestMutationBuilders(t *testing.T) {
	db := testDatabase(t)

	ins := db.NewInsert(arr{obj{"id": 1}}).Exists(Func("function(o, n) { return n; }")).Bind(obj{"keep": true})
	require.NoError(t, ins.Err())
	assert.Equal(t, obj{
		"values": arr{obj{"id": 1}},
		"exists": obj{"code": "function(o, n) { return n; }", "bind": arr{obj{"keep": true}}},
	}, stringify(ins.Operation()))
	assert.Equal(t, ErrNotBindable, db.NewInsert(nil).Bind(1).Err())

	upd := db.NewUpdate(Func("function(o, v) { o.v = v; return o; }")).Bind(3).Match(obj{"id": 1}).Single()
	require.NoError(t, upd.Err())
	assert.Equal(t, obj{
		"set":    obj{"code": "function(o, v) { o.v = v; return o; }", "bind": arr{3}},
		"match":  obj{"id": 1},
		"single": true,
	}, stringify(upd.Operation()))

	del := db.NewDelete().Where(Func("w")).Bind(1)
	require.NoError(t, del.Err())
	assert.Equal(t, obj{"where": obj{"code": "w", "bind": arr{1}}}, stringify(del.Operation()))
	assert.Equal(t, ErrNotBindable, db.NewDelete().Single().Bind(1).Err())
}

func TestOperationIsACopy(t *testing.T) {
	q := testDatabase(t).NewQuery().Limit(1)
	op := q.Operation()
	op["limit"] = 100
	assert.Equal(t, 1, q.Operation()["limit"])
}

func TestSendOnce(t *testing.T) {
	f := newFakeService(t)
	f.reply(http.MethodPost, "/databases/people/delete", http.StatusOK, obj{"results": arr{}})

	del := f.client().Database("people").NewDelete().Match(obj{"id": 1})
	_, err := del.Send(context.Background())
	require.NoError(t, err)
	_, err = del.Send(context.Background())
	assert.Equal(t, ErrAlreadySent, err)
	assert.Len(t, f.calls(http.MethodPost, "/databases/people/delete"), 1)
}
