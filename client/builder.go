// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
)

// Matchable builders select records with an equality filter or a predicate.
type Matchable[B any] interface {
	Match(filter interface{}) B
	Where(predicate Function) B
	Single() B
}

// Bindable builders attach arguments to their most recent code clause.
type Bindable[B any] interface {
	Bind(args ...interface{}) B
}

// Limitable builders cap the number of records returned.
type Limitable[B any] interface {
	Limit(n int) B
}

// Sender is implemented by every builder.
type Sender interface {
	Operation() Operation
	Err() error
	Send(ctx context.Context) (*Result, error)
}

var (
	_ Matchable[*QueryBuilder]  = (*QueryBuilder)(nil)
	_ Bindable[*QueryBuilder]   = (*QueryBuilder)(nil)
	_ Limitable[*QueryBuilder]  = (*QueryBuilder)(nil)
	_ Bindable[*InsertBuilder]  = (*InsertBuilder)(nil)
	_ Matchable[*UpdateBuilder] = (*UpdateBuilder)(nil)
	_ Bindable[*UpdateBuilder]  = (*UpdateBuilder)(nil)
	_ Matchable[*DeleteBuilder] = (*DeleteBuilder)(nil)
	_ Bindable[*DeleteBuilder]  = (*DeleteBuilder)(nil)

	_ Sender = (*QueryBuilder)(nil)
	_ Sender = (*InsertBuilder)(nil)
	_ Sender = (*UpdateBuilder)(nil)
	_ Sender = (*DeleteBuilder)(nil)
)

// clauses accumulates the clauses of one operation. open names the code
// clause Bind attaches to; it is empty when no clause accepts arguments.
// The first error is kept and returned by send.
type clauses struct {
	target  *target
	command string
	op      Operation
	open    string
	err     error
	sent    bool
}

func newClauses(t *target, command string) clauses {
	return clauses{target: t, command: command, op: Operation{}}
}

// set adds a literal clause and closes the binding window.
func (c *clauses) set(name string, v interface{}) {
	if c.err != nil {
		return
	}
	c.op[name] = v
	c.open = ""
}

// setCode adds a code clause and opens the binding window on it. A Code
// keeps the arguments already bound to it.
func (c *clauses) setCode(name string, f Function) {
	if c.err != nil {
		return
	}
	switch fn := f.(type) {
	case Code:
		c.op[name] = fn
	case nil:
		c.op[name] = nil
		c.open = ""
		return
	default:
		c.op[name] = Code{Func: Func(f.Source())}
	}
	c.open = name
}

// setSort adds a sort clause, bindable when the specification carries code.
func (c *clauses) setSort(spec interface{}) {
	if c.err != nil {
		return
	}
	switch s := spec.(type) {
	case Sort:
		c.op["sort"] = s
		c.open = ""
		if s.Code != "" {
			c.open = "sort"
		}
	case Code, Func:
		c.setCode("sort", s.(Function))
	default:
		c.set("sort", spec)
	}
}

// bind attaches args to the open code clause. Binding again replaces the
// arguments of the same clause.
func (c *clauses) bind(args []interface{}) {
	if c.err != nil {
		return
	}
	if c.open == "" {
		c.err = ErrNotBindable
		return
	}
	if args == nil {
		args = []interface{}{}
	}
	switch v := c.op[c.open].(type) {
	case Code:
		v.Bind = args
		c.op[c.open] = v
	case Sort:
		v.Bind = args
		c.op[c.open] = v
	default:
		c.err = ErrNotBindable
	}
}

func (c *clauses) operation() Operation {
	return c.op.copy()
}

func (c *clauses) send(ctx context.Context) (*Result, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.sent {
		return nil, ErrAlreadySent
	}
	c.sent = true
	return c.target.process(ctx, c.command, c.op)
}
