// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/molecula/unbounded/errors"
	"github.com/molecula/unbounded/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapFetcher serves shards from memory. Fetching "a" waits until "b" has
// been fetched.
type mapFetcher struct {
	shards map[string][]interface{}
	fail   map[string]error
	bDone  chan struct{}
}

func (m *mapFetcher) Fetch(ctx context.Context, url string) ([]interface{}, error) {
	if url == "a" && m.bDone != nil {
		select {
		case <-m.bDone:
		case <-time.After(5 * time.Second):
			return nil, fmt.Errorf("b was never fetched")
		}
	}
	if url == "b" && m.bDone != nil {
		defer close(m.bDone)
	}
	if err := m.fail[url]; err != nil {
		return nil, err
	}
	return m.shards[url], nil
}

func ids(records []interface{}) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.(map[string]interface{})["id"].(float64)
	}
	return out
}

func TestFileResultShardOrder(t *testing.T) {
	fr := &FileResult{
		Records:     arr{obj{"id": 1.0}},
		Files:       []string{"a", "b"},
		Concurrency: 2,
		Fetcher: &mapFetcher{
			shards: map[string][]interface{}{
				"a": {obj{"id": 2.0}},
				"b": {obj{"id": 3.0}},
			},
			bDone: make(chan struct{}),
		},
	}
	records, err := fr.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, ids(records))
}

func TestFileResultLimit(t *testing.T) {
	limit := 2
	fr := &FileResult{
		Records: arr{obj{"id": 1.0}},
		Files:   []string{"a", "b"},
		Limit:   &limit,
		Fetcher: &mapFetcher{shards: map[string][]interface{}{
			"a": {obj{"id": 2.0}},
			"b": {obj{"id": 3.0}},
		}},
	}
	records, err := fr.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, ids(records))
}

func TestFileResultSortBeforeLimit(t *testing.T) {
	limit := 2
	key := func(id float64) map[string]interface{} {
		return obj{"id": id, "_sortkey": arr{id}}
	}
	fr := &FileResult{
		Records: arr{key(1)},
		Files:   []string{"a", "b"},
		Sort:    Sort{Reverse: []bool{true}},
		Limit:   &limit,
		Fetcher: &mapFetcher{shards: map[string][]interface{}{
			"a": {key(2), key(5)},
			"b": {key(3)},
		}},
	}
	records, err := fr.Fetch(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(arr{obj{"id": 5.0}, obj{"id": 3.0}}, records); diff != "" {
		t.Fatal(diff)
	}
}

func TestFileResultNoFiles(t *testing.T) {
	fr := &FileResult{
		Records: arr{obj{"id": 2.0, "_sortkey": "b"}, obj{"id": 1.0, "_sortkey": "a"}},
		Sort:    "name",
	}
	records, err := fr.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, arr{obj{"id": 1.0}, obj{"id": 2.0}}, records)

	records, err = (&FileResult{}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileResultFailureDiscardsRecords(t *testing.T) {
	fr := &FileResult{
		Records: arr{obj{"id": 1.0}},
		Files:   []string{"a", "b", "c"},
		Fetcher: &mapFetcher{
			shards: map[string][]interface{}{"a": {obj{"id": 2.0}}, "c": {obj{"id": 4.0}}},
			fail:   map[string]error{"b": &responseError{StatusCode: http.StatusServiceUnavailable}},
		},
	}
	records, err := fr.Fetch(context.Background())
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, errors.ErrShardFetch))
}

func TestHTTPShardFetcherRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky":
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, arr{obj{"id": 1}})
		case "/object":
			writeJSON(w, http.StatusOK, obj{"id": 2})
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	fetcher := &httpShardFetcher{
		client: newRetryClient(srv.Client(), 3, time.Millisecond, time.Millisecond, logger.NopLogger),
	}
	ctx := context.Background()

	records, err := fetcher.Fetch(ctx, srv.URL+"/flaky")
	require.NoError(t, err)
	assert.Equal(t, arr{obj{"id": 1.0}}, records)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	records, err = fetcher.Fetch(ctx, srv.URL+"/object")
	require.NoError(t, err)
	assert.Equal(t, arr{obj{"id": 2.0}}, records)

	_, err = fetcher.Fetch(ctx, srv.URL+"/down")
	require.Error(t, err)
	var re *responseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode)
}

// peakFetcher records the largest number of fetches in flight at once.
type peakFetcher struct {
	running, peak int32
}

func (p *peakFetcher) Fetch(ctx context.Context, url string) ([]interface{}, error) {
	n := atomic.AddInt32(&p.running, 1)
	defer atomic.AddInt32(&p.running, -1)
	for {
		old := atomic.LoadInt32(&p.peak)
		if n <= old || atomic.CompareAndSwapInt32(&p.peak, old, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return []interface{}{obj{"url": url}}, nil
}

func TestFileResultConcurrencyBound(t *testing.T) {
	files := make([]string, 12)
	for i := range files {
		files[i] = fmt.Sprintf("shard-%02d", i)
	}
	pf := &peakFetcher{}
	fr := &FileResult{Files: files, Concurrency: 3, Fetcher: pf}

	records, err := fr.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, len(files))
	for i, r := range records {
		assert.Equal(t, files[i], r.(map[string]interface{})["url"])
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&pf.peak), int32(3))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&pf.peak), int32(1))
}
