// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
)

// Map/reduce pairs installed by the aggregate methods. The map functions
// take the record property as their bound argument.
const (
	countMap    Func = "function(o) { return {count: 1}; }"
	countReduce Func = "function(a, b) { return {count: a.count + b.count}; }"

	sumMap    Func = "function(o, prop) { return {sum: o[prop]}; }"
	sumReduce Func = "function(a, b) { return {sum: a.sum + b.sum}; }"

	avgMap    Func = "function(o, prop) { return {sum: o[prop], count: 1, avg: o[prop]}; }"
	avgReduce Func = "function(a, b) { var s = a.sum + b.sum, c = a.count + b.count; return {sum: s, count: c, avg: s / c}; }"

	minMap    Func = "function(o, prop) { return {min: o[prop]}; }"
	minReduce Func = "function(a, b) { return {min: a.min < b.min ? a.min : b.min}; }"

	maxMap    Func = "function(o, prop) { return {max: o[prop]}; }"
	maxReduce Func = "function(a, b) { return {max: a.max > b.max ? a.max : b.max}; }"

	someMap    Func = "function(o, prop) { return {some: !!o[prop]}; }"
	someReduce Func = "function(a, b) { return {some: a.some || b.some}; }"

	everyMap    Func = "function(o, prop) { return {every: !!o[prop]}; }"
	everyReduce Func = "function(a, b) { return {every: a.every && b.every}; }"
)

// QueryBuilder builds a query. Methods chain; the first misuse is reported
// by Err and by Send.
//
//	res, err := db.NewQuery().
//		Where(client.Func("function(o, min) { return o.age >= min; }")).Bind(21).
//		Sort(client.Sort{Code: "function(o) { return [o.name]; }", Reverse: []bool{true}}).
//		Limit(10).
//		Send(ctx)
type QueryBuilder struct {
	c clauses
}

// Match selects records equal to filter on each of its fields.
func (q *QueryBuilder) Match(filter interface{}) *QueryBuilder {
	q.c.set("match", filter)
	return q
}

// Where selects records for which predicate returns true.
func (q *QueryBuilder) Where(predicate Function) *QueryBuilder {
	q.c.setCode("where", predicate)
	return q
}

// Single returns at most one record.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.c.set("single", true)
	return q
}

// Bind passes args to the most recent code clause, after the record.
func (q *QueryBuilder) Bind(args ...interface{}) *QueryBuilder {
	q.c.bind(args)
	return q
}

// Map transforms each record.
func (q *QueryBuilder) Map(f Function) *QueryBuilder {
	q.c.setCode("map", f)
	return q
}

// Filter drops records for which f returns false, after Map.
func (q *QueryBuilder) Filter(f Function) *QueryBuilder {
	q.c.setCode("filter", f)
	return q
}

// Reduce combines records pairwise.
func (q *QueryBuilder) Reduce(f Function) *QueryBuilder {
	q.c.setCode("reduce", f)
	return q
}

// Sort orders the records. spec is a Sort, a Function computing the sort
// key, or a literal specification passed through as is.
func (q *QueryBuilder) Sort(spec interface{}) *QueryBuilder {
	q.c.setSort(spec)
	return q
}

// Limit returns at most n records.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.c.set("limit", n)
	return q
}

// Webhook asks the service to call url when the query completes.
func (q *QueryBuilder) Webhook(url string) *QueryBuilder {
	q.c.set("webhook", url)
	return q
}

func (q *QueryBuilder) aggregate(m, r Func, args ...interface{}) *QueryBuilder {
	q.Map(m)
	if len(args) > 0 {
		q.Bind(args...)
	}
	return q.Reduce(r)
}

// Count reduces the records to {count}.
func (q *QueryBuilder) Count() *QueryBuilder { return q.aggregate(countMap, countReduce) }

// Sum reduces the records to {sum} of prop.
func (q *QueryBuilder) Sum(prop string) *QueryBuilder { return q.aggregate(sumMap, sumReduce, prop) }

// Avg reduces the records to {sum, count, avg} of prop.
func (q *QueryBuilder) Avg(prop string) *QueryBuilder { return q.aggregate(avgMap, avgReduce, prop) }

// Min reduces the records to {min} of prop.
func (q *QueryBuilder) Min(prop string) *QueryBuilder { return q.aggregate(minMap, minReduce, prop) }

// Max reduces the records to {max} of prop.
func (q *QueryBuilder) Max(prop string) *QueryBuilder { return q.aggregate(maxMap, maxReduce, prop) }

// Some reduces the records to {some}, true if prop is truthy on any record.
func (q *QueryBuilder) Some(prop string) *QueryBuilder { return q.aggregate(someMap, someReduce, prop) }

// Every reduces the records to {every}, true if prop is truthy on all
// records.
func (q *QueryBuilder) Every(prop string) *QueryBuilder {
	return q.aggregate(everyMap, everyReduce, prop)
}

// Operation returns a copy of the clauses so far.
func (q *QueryBuilder) Operation() Operation { return q.c.operation() }

// Err returns the first error made while building.
func (q *QueryBuilder) Err() error { return q.c.err }

// Send runs the query. A builder can be sent once.
func (q *QueryBuilder) Send(ctx context.Context) (*Result, error) { return q.c.send(ctx) }
