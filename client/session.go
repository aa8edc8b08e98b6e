// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/molecula/unbounded/errors"
	"golang.org/x/sync/singleflight"
)

// refreshMargin is how long before expiry a token is replaced.
const refreshMargin = 30 * time.Second

type session struct {
	token   string
	expires time.Time
}

func (s session) fresh(now time.Time) bool {
	return s.token != "" && now.Add(refreshMargin).Before(s.expires)
}

type acquireFunc func(ctx context.Context, scope, username, password string) (session, error)

// sessionCache hands out bearer tokens, acquiring a new one per scope when
// the cached token is missing or about to expire. Concurrent callers of the
// same scope share one acquisition.
type sessionCache struct {
	mu       sync.Mutex
	sessions map[string]session
	group    singleflight.Group

	acquire  acquireFunc
	perScope bool

	username string
	password string

	now func() time.Time
}

func newSessionCache(acquire acquireFunc, perDatabase bool) *sessionCache {
	return &sessionCache{
		sessions: make(map[string]session),
		acquire:  acquire,
		perScope: perDatabase,
		now:      time.Now,
	}
}

// token returns a usable token for database. Unless database sessions are
// enabled every database shares the account token.
func (s *sessionCache) token(ctx context.Context, database string) (string, error) {
	scope := ""
	if s.perScope {
		scope = database
	}

	s.mu.Lock()
	cur, ok := s.sessions[scope]
	s.mu.Unlock()
	if ok && cur.fresh(s.now()) {
		return cur.token, nil
	}

	v, err, _ := s.group.Do(scope, func() (interface{}, error) {
		sess, err := s.acquire(ctx, scope, s.username, s.password)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.sessions[scope] = sess
		s.mu.Unlock()
		return sess.token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type tokenResponse struct {
	Results struct {
		Token   string  `json:"token"`
		Expires float64 `json:"expires"`
	} `json:"results"`
}

// acquireSession exchanges the account credentials for a token. An empty
// scope yields an account token, otherwise a token for that database.
func (c *Client) acquireSession(ctx context.Context, scope, username, password string) (session, error) {
	path := "/token"
	if scope != "" {
		path = "/databases/" + url.PathEscape(scope) + "/token"
	}
	started := time.Now()

	auth := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	status, body, err := c.do(ctx, http.MethodPost, path, nil, map[string]string{
		"Authorization": "Basic " + auth,
	})
	if err != nil {
		return session{}, err
	}
	if status < 200 || status >= 300 {
		return session{}, &responseError{StatusCode: status, Body: body}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return session{}, errors.Wrap(err, "decoding token")
	}
	if tr.Results.Token == "" {
		return session{}, errors.New(errors.ErrServer, "token response carried no token")
	}
	c.logger.Debugf("acquired token for scope %q, valid for %.0fs", scope, tr.Results.Expires)
	return session{
		token:   tr.Results.Token,
		expires: started.Add(time.Duration(tr.Results.Expires * float64(time.Second))),
	}, nil
}
