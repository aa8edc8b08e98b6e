// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"

	"github.com/molecula/unbounded/errors"
)

// requestOverhead is reserved in each upload request for the envelope.
const requestOverhead = 1024

// StartUpload returns an Uploader inserting records into d in requests no
// larger than the client request limit. exists and options apply to every
// insert. Uploads are always synchronous.
func (d *Database) StartUpload(exists Function, options Operation) (*Uploader, error) {
	op := options.copy()
	if exists != nil {
		op["exists"] = exists
	}
	op["values"] = []interface{}{}
	wire := stringifyMap(op)

	buf, err := json.Marshal(wire)
	if err != nil {
		return nil, translate(errors.Wrap(err, "encoding upload options"))
	}
	delete(wire, "values")

	limit := d.client.requestLimit - (len(buf) + requestOverhead)
	return newUploader(newDatabase(d.client, d.name, false), wire, limit), nil
}

// Uploader buffers records and inserts them in batches bounded by a byte
// budget. Once a call fails, or after Finish, every call fails.
// An Uploader must not be used from several goroutines at once.
type Uploader struct {
	db      *Database
	options map[string]interface{}
	limit   int

	values []interface{}
	size   int

	failed   bool
	finished bool
}

func newUploader(db *Database, options map[string]interface{}, limit int) *Uploader {
	return &Uploader{
		db:      db,
		options: options,
		limit:   limit,
		size:    1,
	}
}

// Limit returns the byte budget of one batch.
func (u *Uploader) Limit() int { return u.limit }

// Pending returns the number of buffered records.
func (u *Uploader) Pending() int { return len(u.values) }

func (u *Uploader) check() error {
	if u.failed {
		return ErrUploadFailed
	}
	if u.finished {
		return ErrUploadFinished
	}
	return nil
}

// Add buffers value, first inserting the buffered records if value would
// take the batch over budget.
func (u *Uploader) Add(ctx context.Context, value interface{}) error {
	if err := u.check(); err != nil {
		return err
	}
	if err := u.add(ctx, value); err != nil {
		u.failed = true
		return translate(err)
	}
	return nil
}

func (u *Uploader) add(ctx context.Context, value interface{}) error {
	buf, err := json.Marshal(stringify(value))
	if err != nil {
		return errors.Wrap(err, "encoding record")
	}
	sz := len(buf) + 1

	if u.size+sz > u.limit {
		if len(u.values) == 0 {
			return ErrObjectTooLarge
		}
		if err := u.flush(ctx); err != nil {
			return err
		}
		if u.size+sz > u.limit {
			return ErrObjectTooLarge
		}
	}
	u.size += sz
	u.values = append(u.values, value)
	return nil
}

// Finish inserts the buffered records.
func (u *Uploader) Finish(ctx context.Context) error {
	if err := u.check(); err != nil {
		return err
	}
	if len(u.values) > 0 {
		if err := u.flush(ctx); err != nil {
			u.failed = true
			return translate(err)
		}
	}
	u.finished = true
	return nil
}

func (u *Uploader) flush(ctx context.Context) error {
	c := u.db.client
	c.logger.Debugf("uploading %d records (%d bytes) to %s", len(u.values), u.size, u.db.name)
	c.metrics.uploadFlushes.Inc()
	c.metrics.uploadFlushBytes.Observe(float64(u.size))

	op := Operation(u.options).copy()
	op["values"] = u.values
	if _, err := u.db.t.process(ctx, CommandInsert, op); err != nil {
		return err
	}
	u.values = nil
	u.size = 1
	return nil
}
