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

const taskComplete = "complete"

// Task identifies an operation the service runs in the background.
// It is returned by asynchronous handles and can be passed to Client.Wait,
// possibly by another process.
type Task struct {
	ID            string        `json:"id"`
	Database      string        `json:"database"`
	Command       string        `json:"command"`
	ResultOptions ResultOptions `json:"resultOptions"`
}

// ResultOptions are the parts of a query applied to its results once they
// have been fetched.
type ResultOptions struct {
	Sort  interface{} `json:"sort,omitempty"`
	Limit *int        `json:"limit,omitempty"`
}

type taskStatus struct {
	Results struct {
		Status  string          `json:"status"`
		Results json.RawMessage `json:"results"`
		Files   []string        `json:"files"`
	} `json:"results"`
}

// Wait polls the status of task until it completes. For queries the
// returned FileResult is ready to be fetched; other commands yield an empty
// FileResult.
//
// Server errors and requests which got no response are retried; any other
// failure ends the wait. Polling is as fast as the service answers unless
// OptClientPollInterval is set.
func (c *Client) Wait(ctx context.Context, task *Task) (*FileResult, error) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, c.tracer, "Client.Wait")
	defer span.Finish()
	span.SetTag("task", task.ID)

	path := "/databases/" + url.PathEscape(task.Database) + "/tasks/" + url.PathEscape(task.ID)
	for {
		if err := ctx.Err(); err != nil {
			return nil, translate(err)
		}
		if err := c.pollLimiter.Wait(ctx); err != nil {
			return nil, translate(err)
		}
		c.metrics.taskPolls.Inc()

		body, err := c.request(ctx, task.Database, http.MethodGet, path, nil)
		if err != nil {
			if ctx.Err() == nil && transient(err) {
				c.logger.Debugf("polling task %s: %v", task.ID, err)
				continue
			}
			return nil, translate(err)
		}

		var st taskStatus
		if err := json.Unmarshal(body, &st); err != nil {
			return nil, translate(errors.Wrapf(err, "decoding status of task %s", task.ID))
		}
		if st.Results.Status != taskComplete {
			continue
		}

		if task.Command != CommandQuery {
			return &FileResult{}, nil
		}
		records, err := decodeRecords(st.Results.Results)
		if err != nil {
			return nil, translate(errors.Wrapf(err, "decoding results of task %s", task.ID))
		}
		return &FileResult{
			Records:     records,
			Files:       st.Results.Files,
			Concurrency: c.fileConcurrency,
			Sort:        task.ResultOptions.Sort,
			Limit:       task.ResultOptions.Limit,
			Fetcher:     c.fetcher,
			metrics:     c.metrics,
			tracer:      c.tracer,
		}, nil
	}
}

// decodeRecords decodes a results payload. A payload which is not an
// array is a single record; null or a missing payload is no records.
func decodeRecords(raw json.RawMessage) ([]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return x, nil
	}
	return []interface{}{v}, nil
}
