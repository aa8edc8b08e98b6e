// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/molecula/unbounded/errors"
	"github.com/opentracing/opentracing-go"
)

// queryBase holds the query operations shared by databases and saved
// queries. options may carry any further clauses and may be nil.
type queryBase struct {
	t *target
}

// Match runs a query selecting the records equal to match on each of its
// fields. A nil match selects every record.
func (b queryBase) Match(ctx context.Context, match interface{}, options Operation) (*Result, error) {
	op := options.copy()
	if match != nil {
		op["match"] = match
	}
	return b.t.process(ctx, CommandQuery, op)
}

// Query runs a query selecting the records for which where returns true.
// A nil where selects every record.
func (b queryBase) Query(ctx context.Context, where Function, options Operation) (*Result, error) {
	op := options.copy()
	if where != nil {
		op["where"] = where
	}
	return b.t.process(ctx, CommandQuery, op)
}

// NewQuery starts building a query.
func (b queryBase) NewQuery() *QueryBuilder {
	return &QueryBuilder{c: newClauses(b.t, CommandQuery)}
}

// Database is a handle on one database. Operations on an asynchronous
// handle (see Async) return a Task instead of waiting for the service.
type Database struct {
	queryBase
	client *Client
	name   string
}

func newDatabase(c *Client, name string, async bool) *Database {
	return &Database{
		queryBase: queryBase{t: &target{
			client:   c,
			database: name,
			path:     "/databases/" + url.PathEscape(name),
			async:    async,
		}},
		client: c,
		name:   name,
	}
}

// Name returns the database name.
func (d *Database) Name() string { return d.name }

// IsAsync reports whether operations return a Task.
func (d *Database) IsAsync() bool { return d.t.async }

// Async returns the asynchronous twin of d.
func (d *Database) Async() (*Database, error) {
	if d.t.async {
		return nil, ErrAlreadyAsync
	}
	return newDatabase(d.client, d.name, true), nil
}

// Insert stores values, one record or a slice of them. exists, when not
// nil, decides what happens to records which are already stored.
func (d *Database) Insert(ctx context.Context, values interface{}, exists Function, options Operation) (*Result, error) {
	op := options.copy()
	op["values"] = values
	if exists != nil {
		op["exists"] = exists
	}
	return d.t.process(ctx, CommandInsert, op)
}

// Update replaces the records matching match with the output of set.
func (d *Database) Update(ctx context.Context, match interface{}, set Function, options Operation) (*Result, error) {
	op := options.copy()
	if match != nil {
		op["match"] = match
	}
	op["set"] = set
	return d.t.process(ctx, CommandUpdate, op)
}

// UpdateWhere replaces the records for which where returns true with the
// output of set.
func (d *Database) UpdateWhere(ctx context.Context, where, set Function, options Operation) (*Result, error) {
	op := options.copy()
	if where != nil {
		op["where"] = where
	}
	op["set"] = set
	return d.t.process(ctx, CommandUpdate, op)
}

// Delete removes the records matching match.
func (d *Database) Delete(ctx context.Context, match interface{}, options Operation) (*Result, error) {
	op := options.copy()
	if match != nil {
		op["match"] = match
	}
	return d.t.process(ctx, CommandDelete, op)
}

// DeleteWhere removes the records for which where returns true.
func (d *Database) DeleteWhere(ctx context.Context, where Function, options Operation) (*Result, error) {
	op := options.copy()
	if where != nil {
		op["where"] = where
	}
	return d.t.process(ctx, CommandDelete, op)
}

// NewInsert starts building an insert of values.
func (d *Database) NewInsert(values interface{}) *InsertBuilder {
	b := &InsertBuilder{c: newClauses(d.t, CommandInsert)}
	return b.Values(values)
}

// NewUpdate starts building an update computing records with set.
func (d *Database) NewUpdate(set Function) *UpdateBuilder {
	b := &UpdateBuilder{c: newClauses(d.t, CommandUpdate)}
	return b.Set(set)
}

// NewDelete starts building a delete.
func (d *Database) NewDelete() *DeleteBuilder {
	return &DeleteBuilder{c: newClauses(d.t, CommandDelete)}
}

// SavedQuery returns a handle on the named saved query.
func (d *Database) SavedQuery(name string) *SavedQuery {
	return newSavedQuery(d.client, d.name, name, false)
}

// GetKey returns the primary key of the database, or nil.
func (d *Database) GetKey(ctx context.Context) (interface{}, error) {
	return d.getField(ctx, "key")
}

// SetKey sets the primary key: a field name or a list of them.
func (d *Database) SetKey(ctx context.Context, key interface{}) error {
	return d.putField(ctx, "key", key)
}

// GetSchema returns the schema of the database, or nil.
func (d *Database) GetSchema(ctx context.Context) (interface{}, error) {
	return d.getField(ctx, "schema")
}

// SetSchema sets the schema of the database.
func (d *Database) SetSchema(ctx context.Context, schema interface{}) error {
	return d.putField(ctx, "schema", schema)
}

// GetIndexes returns the indexes of the database, or nil.
func (d *Database) GetIndexes(ctx context.Context) (interface{}, error) {
	return d.getField(ctx, "indexes")
}

// SetIndexes sets the indexes of the database.
func (d *Database) SetIndexes(ctx context.Context, indexes interface{}) error {
	return d.putField(ctx, "indexes", indexes)
}

// DeleteDatabase deletes the database and every record in it.
func (d *Database) DeleteDatabase(ctx context.Context) error {
	_, err := d.admin(ctx, "DeleteDatabase", http.MethodDelete, d.t.path, nil)
	return err
}

// ListSavedQueries returns the decoded listing of the saved queries.
func (d *Database) ListSavedQueries(ctx context.Context) (interface{}, error) {
	body, err := d.admin(ctx, "ListSavedQueries", http.MethodGet, d.t.path+"/savedqueries", nil)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, translate(errors.Wrap(err, "decoding saved queries"))
	}
	return out, nil
}

func (d *Database) getField(ctx context.Context, field string) (interface{}, error) {
	body, err := d.admin(ctx, "Get."+field, http.MethodGet, d.t.path, nil)
	if err != nil {
		return nil, err
	}
	var desc map[string]interface{}
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, translate(errors.Wrapf(err, "decoding database %s", d.name))
	}
	return desc[field], nil
}

func (d *Database) putField(ctx context.Context, field string, v interface{}) error {
	_, err := d.admin(ctx, "Set."+field, http.MethodPut, d.t.path, map[string]interface{}{field: v})
	return err
}

func (d *Database) admin(ctx context.Context, name, method, path string, body interface{}) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, d.client.tracer, "Database."+name)
	defer span.Finish()

	out, err := d.client.request(ctx, d.name, method, path, body)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// SavedQuery is a query stored on the service under a name.
type SavedQuery struct {
	queryBase
	client   *Client
	database string
	name     string
}

func newSavedQuery(c *Client, database, name string, async bool) *SavedQuery {
	return &SavedQuery{
		queryBase: queryBase{t: &target{
			client:   c,
			database: database,
			path:     "/databases/" + url.PathEscape(database) + "/savedqueries/" + url.PathEscape(name),
			async:    async,
		}},
		client:   c,
		database: database,
		name:     name,
	}
}

// Name returns the name of the saved query.
func (s *SavedQuery) Name() string { return s.name }

// Async returns the asynchronous twin of s.
func (s *SavedQuery) Async() (*SavedQuery, error) {
	if s.t.async {
		return nil, ErrAlreadyAsync
	}
	return newSavedQuery(s.client, s.database, s.name, true), nil
}

// Create stores the query selecting the records for which where returns
// true, with any further clauses in options.
func (s *SavedQuery) Create(ctx context.Context, where Function, options Operation) (*Result, error) {
	op := options.copy()
	if where != nil {
		op["where"] = where
	}
	return s.t.process(ctx, "", op)
}

// Delete removes the saved query.
func (s *SavedQuery) Delete(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, s.client.tracer, "SavedQuery.Delete")
	defer span.Finish()

	if _, err := s.client.request(ctx, s.database, http.MethodDelete, s.t.path, nil); err != nil {
		return translate(err)
	}
	return nil
}
