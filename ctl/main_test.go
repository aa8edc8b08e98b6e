// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// testService answers the API calls the commands make. Bodies of POST
// requests are kept per path.
type testService struct {
	*httptest.Server
	router *mux.Router

	mu     sync.Mutex
	bodies map[string][]map[string]interface{}
}

func newTestService(t *testing.T) *testService {
	s := &testService{router: mux.NewRouter(), bodies: map[string][]map[string]interface{}{}}
	s.router.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]interface{}{
			"results": map[string]interface{}{"token": "tok", "expires": 3600},
		})
	}).Methods(http.MethodPost)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path != "/token" {
			data, _ := io.ReadAll(r.Body)
			var body map[string]interface{}
			_ = json.Unmarshal(data, &body)
			s.mu.Lock()
			s.bodies[r.URL.Path] = append(s.bodies[r.URL.Path], body)
			s.mu.Unlock()
		}
		s.router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testService) reply(method, path string, payload interface{}) {
	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, payload)
	}).Methods(method)
}

func (s *testService) posted(path string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[path]
}

func (s *testService) config() *Config {
	cfg := NewConfig()
	cfg.URL = s.URL
	cfg.Username, cfg.Password = "alice", "secret"
	cfg.Retries = 0
	cfg.FileRetries = 0
	return cfg
}

func writeTestJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
