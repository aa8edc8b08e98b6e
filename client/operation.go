// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/json"
	"reflect"
)

// Commands an operation may be sent as.
const (
	CommandQuery  = "query"
	CommandInsert = "insert"
	CommandUpdate = "update"
	CommandDelete = "delete"
)

// Operation is a set of named clauses (match, where, map, sort, limit,
// values, ...) sent to the service as a single command.
type Operation map[string]interface{}

// copy returns a shallow copy of o, never nil.
func (o Operation) copy() Operation {
	out := make(Operation, len(o)+2)
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Function is implemented by values which stand for code evaluated by the
// service. They are sent as their source text.
type Function interface {
	Source() string
}

// Func is the source text of a function, e.g.
//
//	client.Func("function(o) { return o.age > 21; }")
type Func string

// Source implements Function.
func (f Func) Source() string {
	return string(f)
}

// Code is a function clause together with the positional arguments bound
// to it. An unbound Code (nil Bind) is sent as plain source text; a bound
// one as {"code": source, "bind": [args...]}.
type Code struct {
	Func Func
	Bind []interface{}
}

// Source implements Function.
func (c Code) Source() string {
	return c.Func.Source()
}

// MarshalJSON writes c in its wire form, so a Code nested anywhere in a
// value is encoded the way the service expects.
func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.wire())
}

func (c Code) wire() interface{} {
	if c.Bind == nil {
		return c.Func.Source()
	}
	return map[string]interface{}{
		"code": c.Func.Source(),
		"bind": stringify(c.Bind),
	}
}

// Sort is a sort specification. Code computes each record's sort-key tuple
// on the service; Reverse gives the direction of each tuple position.
// Positions without a flag are ascending.
type Sort struct {
	Code    Func
	Bind    []interface{}
	Reverse []bool
}

// ReverseFlags implements collate.ReverseFlagger.
func (s Sort) ReverseFlags() []bool {
	return s.Reverse
}

// MarshalJSON writes s as {"code", "bind", "reverse"}. A Task holding a
// Sort keeps its directions when it is passed on as JSON.
func (s Sort) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

func (s Sort) wire() interface{} {
	m := map[string]interface{}{}
	if s.Code != "" {
		m["code"] = s.Code.Source()
	}
	if s.Bind != nil {
		m["bind"] = stringify(s.Bind)
	}
	if s.Reverse != nil {
		m["reverse"] = s.Reverse
	}
	return m
}

type wirer interface {
	wire() interface{}
}

// stringify returns v with every Function replaced by its source text,
// descending into maps with string keys, slices and arrays of any type.
// v itself is not modified.
func stringify(v interface{}) interface{} {
	switch x := v.(type) {
	case wirer:
		return x.wire()
	case Function:
		return x.Source()
	case Operation:
		return stringifyMap(x)
	case map[string]interface{}:
		return stringifyMap(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = stringify(x[i])
		}
		return out
	}
	return stringifyValue(reflect.ValueOf(v), v)
}

// stringifyValue descends into typed containers such as
// []map[string]interface{} or []Operation. Byte slices are left alone.
func stringifyValue(rv reflect.Value, v interface{}) interface{} {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if (rv.Kind() == reflect.Slice && rv.IsNil()) || rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = stringify(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = stringify(iter.Value().Interface())
		}
		return out
	}
	return v
}

func stringifyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = stringify(v)
	}
	return out
}
