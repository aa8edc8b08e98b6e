// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "alice"
	testPassword = "secret"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]interface{}
}

// fakeService is an in-process stand-in for the Unbounded API. Tokens are
// handed out for testUser; every other route is registered by the test.
type fakeService struct {
	t      *testing.T
	srv    *httptest.Server
	router *mux.Router

	mu       sync.Mutex
	requests []recordedRequest
	tokens   []string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{t: t, router: mux.NewRouter()}
	f.router.HandleFunc("/token", f.handleToken).Methods(http.MethodPost)
	f.router.HandleFunc("/databases/{db}/token", f.handleToken).Methods(http.MethodPost)
	f.srv = httptest.NewServer(f)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(data))

	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Body); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	if strings.HasPrefix(r.URL.Path, "/databases") && !strings.HasSuffix(r.URL.Path, "/token") {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
	}
	f.router.ServeHTTP(w, r)
}

func (f *fakeService) handleToken(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != testUser || pass != testPassword {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad credentials"}`))
		return
	}
	f.mu.Lock()
	tok := fmt.Sprintf("tok-%d", len(f.tokens)+1)
	f.tokens = append(f.tokens, r.URL.Path)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": map[string]interface{}{"token": tok, "expires": 3600},
	})
}

// handle registers h for method and path, a gorilla/mux pattern.
func (f *fakeService) handle(method, path string, h http.HandlerFunc) {
	f.router.HandleFunc(path, h).Methods(method)
}

// reply registers a handler answering every call with the same payload.
func (f *fakeService) reply(method, path string, status int, payload interface{}) {
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, payload)
	})
}

// sequence registers a handler answering the nth call with the nth
// response; the last one repeats.
func (f *fakeService) sequence(method, path string, responses ...fakeResponse) {
	var mu sync.Mutex
	n := 0
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[n]
		if n < len(responses)-1 {
			n++
		}
		mu.Unlock()
		writeJSON(w, resp.status, resp.payload)
	})
}

type fakeResponse struct {
	status  int
	payload interface{}
}

func (f *fakeService) url(path string) string {
	return f.srv.URL + path
}

// calls returns the recorded requests to method and path.
func (f *fakeService) calls(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeService) tokenPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

func (f *fakeService) client(opts ...ClientOption) *Client {
	f.t.Helper()
	base := []ClientOption{
		OptClientURL(f.srv.URL),
		OptClientCredentials(testUser, testPassword),
		OptClientRetries(0),
		OptClientFileRetries(0),
		OptClientBackoff(time.Millisecond, time.Millisecond),
	}
	c, err := NewClient(append(base, opts...)...)
	require.NoError(f.t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type obj = map[string]interface{}

type arr = []interface{}
