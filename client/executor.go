// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/molecula/unbounded/errors"
	"github.com/opentracing/opentracing-go"
)

// Result is the outcome of an operation. Synchronous operations fill
// Records (always empty for commands other than queries which ran in the
// background); asynchronous ones return the Task.
type Result struct {
	Records []interface{}
	Task    *Task
}

// target is a resource operations are sent to: a database or one of its
// saved queries.
type target struct {
	client   *Client
	database string
	path     string
	async    bool
}

type processResponse struct {
	Results json.RawMessage `json:"results"`
	Async   *struct {
		Task interface{} `json:"task"`
	} `json:"results_async"`
}

// process sends op as command cmd. An empty cmd creates the resource with
// a PUT instead.
func (t *target) process(ctx context.Context, cmd string, op Operation) (*Result, error) {
	c := t.client
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, c.tracer, "Operation."+commandName(cmd))
	defer span.Finish()

	wire := stringifyMap(op)
	if wire == nil {
		wire = map[string]interface{}{}
	}
	if t.async {
		wire["async"] = true
	}

	method, path := http.MethodPost, t.path+"/"+cmd
	if cmd == "" {
		method, path = http.MethodPut, t.path
	}

	body, err := c.request(ctx, t.database, method, path, wire)
	if err != nil {
		return nil, translate(err)
	}

	var resp processResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, translate(errors.Wrap(err, "decoding response"))
	}

	if resp.Async == nil {
		records, err := decodeRecords(resp.Results)
		if err != nil {
			return nil, translate(errors.Wrap(err, "decoding results"))
		}
		return &Result{Records: records}, nil
	}

	id, err := taskID(resp.Async.Task)
	if err != nil {
		return nil, translate(err)
	}
	task := &Task{
		ID:       id,
		Database: t.database,
		Command:  cmd,
	}
	if cmd == CommandQuery {
		task.ResultOptions = ResultOptions{
			Sort:  op["sort"],
			Limit: limitOf(op["limit"]),
		}
	}
	span.SetTag("task", id)

	if t.async {
		return &Result{Task: task}, nil
	}

	fr, err := c.Wait(ctx, task)
	if err != nil {
		return nil, err
	}
	if cmd != CommandQuery {
		return &Result{}, nil
	}
	records, err := fr.Fetch(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return &Result{Records: records}, nil
}

func commandName(cmd string) string {
	if cmd == "" {
		return "create"
	}
	return cmd
}

func taskID(v interface{}) (string, error) {
	switch id := v.(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case json.Number:
		return id.String(), nil
	}
	return "", errors.New(errors.ErrServer, "deferred response carried no task identifier")
}

// limitOf reads a limit clause. Anything which is not a count is ignored.
func limitOf(v interface{}) *int {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int32:
		n = int(x)
	case int64:
		n = int(x)
	case float64:
		if x != math.Trunc(x) {
			return nil
		}
		n = int(x)
	case json.Number:
		i, err := strconv.Atoi(x.String())
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}
