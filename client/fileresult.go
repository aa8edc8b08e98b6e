// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/molecula/unbounded/client/egpool"
	"github.com/molecula/unbounded/collate"
	"github.com/molecula/unbounded/errors"
	"github.com/molecula/unbounded/logger"
	"github.com/opentracing/opentracing-go"
)

// ShardFetcher retrieves one result file, an array of records.
type ShardFetcher interface {
	Fetch(ctx context.Context, url string) ([]interface{}, error)
}

// FileResult is the outcome of a completed query task: the records
// returned inline plus the files holding the rest.
type FileResult struct {
	Records []interface{}
	Files   []string

	// Concurrency is the maximum number of files fetched at once.
	Concurrency int
	Sort        interface{}
	Limit       *int

	// Fetcher retrieves the files. Nil uses a retrying HTTP client.
	Fetcher ShardFetcher

	metrics *metrics
	tracer  opentracing.Tracer
}

// Fetch retrieves every file and returns all records: the inline records
// first, then each file's records in the order the files are listed. The
// records are then sorted and limited.
//
// If any file cannot be fetched the whole result fails and no records are
// returned.
func (r *FileResult) Fetch(ctx context.Context) ([]interface{}, error) {
	tracer := r.tracer
	if tracer == nil {
		tracer = opentracing.NoopTracer{}
	}
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, tracer, "FileResult.Fetch")
	defer span.Finish()

	records := make([]interface{}, 0, len(r.Records))
	records = append(records, r.Records...)

	if len(r.Files) > 0 {
		shards, err := r.fetchAll(ctx)
		if err != nil {
			return nil, errors.NewWithCause(errors.ErrShardFetch, err.Error(), err)
		}
		for _, shard := range shards {
			records = append(records, shard...)
		}
	}

	if r.Sort != nil {
		collate.SortRecords(records, collate.ReverseFlags(r.Sort))
		collate.StripKeys(records)
	}
	if r.Limit != nil && *r.Limit >= 0 && len(records) > *r.Limit {
		records = records[:*r.Limit]
	}
	return records, nil
}

func (r *FileResult) fetchAll(ctx context.Context) ([][]interface{}, error) {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultFileConcurrency
	}
	fetcher := r.Fetcher
	if fetcher == nil {
		fetcher = defaultShardFetcher()
	}

	// Each job owns one slot so file order survives completion order.
	shards := make([][]interface{}, len(r.Files))
	eg, ctx := egpool.WithContext(ctx, concurrency)
	for i, u := range r.Files {
		i, u := i, u
		eg.Go(func() error {
			recs, err := fetcher.Fetch(ctx, u)
			r.metrics.shardFetched(err)
			if err != nil {
				return errors.Wrapf(err, "fetching result file %d", i)
			}
			shards[i] = recs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return shards, nil
}

type httpShardFetcher struct {
	client *retryablehttp.Client
}

func defaultShardFetcher() ShardFetcher {
	hc := &http.Client{Timeout: 300 * time.Second}
	return &httpShardFetcher{
		client: newRetryClient(hc, DefaultFileRetries, time.Second, 30*time.Second, logger.NopLogger),
	}
}

// Fetch implements ShardFetcher.
func (f *httpShardFetcher) Fetch(ctx context.Context, url string) ([]interface{}, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "requesting result file")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading result file")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &responseError{StatusCode: resp.StatusCode, Body: body}
	}
	records, err := decodeRecords(json.RawMessage(body))
	if err != nil {
		return nil, errors.Wrap(err, "decoding result file")
	}
	return records, nil
}
