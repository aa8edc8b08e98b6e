// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
)

// InsertBuilder builds an insert.
type InsertBuilder struct {
	c clauses
}

// Values sets the records to insert: one record or a slice of them.
func (b *InsertBuilder) Values(values interface{}) *InsertBuilder {
	b.c.set("values", values)
	return b
}

// Exists decides what happens to a record which is already stored.
func (b *InsertBuilder) Exists(f Function) *InsertBuilder {
	b.c.setCode("exists", f)
	return b
}

// Bind passes args to the most recent code clause.
func (b *InsertBuilder) Bind(args ...interface{}) *InsertBuilder {
	b.c.bind(args)
	return b
}

func (b *InsertBuilder) Operation() Operation { return b.c.operation() }

func (b *InsertBuilder) Err() error { return b.c.err }

func (b *InsertBuilder) Send(ctx context.Context) (*Result, error) { return b.c.send(ctx) }

// UpdateBuilder builds an update of the selected records.
type UpdateBuilder struct {
	c clauses
}

func (b *UpdateBuilder) Match(filter interface{}) *UpdateBuilder {
	b.c.set("match", filter)
	return b
}

func (b *UpdateBuilder) Where(predicate Function) *UpdateBuilder {
	b.c.setCode("where", predicate)
	return b
}

func (b *UpdateBuilder) Single() *UpdateBuilder {
	b.c.set("single", true)
	return b
}

// Set is the function computing each updated record.
func (b *UpdateBuilder) Set(f Function) *UpdateBuilder {
	b.c.setCode("set", f)
	return b
}

func (b *UpdateBuilder) Bind(args ...interface{}) *UpdateBuilder {
	b.c.bind(args)
	return b
}

func (b *UpdateBuilder) Operation() Operation { return b.c.operation() }

func (b *UpdateBuilder) Err() error { return b.c.err }

func (b *UpdateBuilder) Send(ctx context.Context) (*Result, error) { return b.c.send(ctx) }

// DeleteBuilder builds a delete of the selected records.
type DeleteBuilder struct {
	c clauses
}

func (b *DeleteBuilder) Match(filter interface{}) *DeleteBuilder {
	b.c.set("match", filter)
	return b
}

func (b *DeleteBuilder) Where(predicate Function) *DeleteBuilder {
	b.c.setCode("where", predicate)
	return b
}

func (b *DeleteBuilder) Single() *DeleteBuilder {
	b.c.set("single", true)
	return b
}

func (b *DeleteBuilder) Bind(args ...interface{}) *DeleteBuilder {
	b.c.bind(args)
	return b
}

func (b *DeleteBuilder) Operation() Operation { return b.c.operation() }

func (b *DeleteBuilder) Err() error { return b.c.err }

func (b *DeleteBuilder) Send(ctx context.Context) (*Result, error) { return b.c.send(ctx) }
