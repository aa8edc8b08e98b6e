// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/molecula/unbounded/errors"
	"github.com/molecula/unbounded/logger"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	// DefaultFileConcurrency is the number of result files fetched at once.
	DefaultFileConcurrency = 4
	// DefaultFileRetries is the number of retries for each result file.
	DefaultFileRetries = 10
	// DefaultRequestLimit is the largest request body the service accepts.
	DefaultRequestLimit = 1024 * 1024
)

// Client is the HTTP client for the Unbounded service.
type Client struct {
	baseURL   string
	userAgent string

	// http carries the API calls, files fetches result shards. Both retry
	// with exponential backoff, with separate budgets.
	http    *retryablehttp.Client
	fetcher ShardFetcher

	sessions *sessionCache

	logger  logger.Logger
	tracer  opentracing.Tracer
	metrics *metrics

	fileConcurrency int
	requestLimit    int
	pollLimiter     *rate.Limiter
}

// NewClient creates a client with the given options. A region
// (OptClientRegion) or a URL (OptClientURL) is required.
func NewClient(options ...ClientOption) (*Client, error) {
	co := &ClientOptions{}
	if err := co.addOptions(options...); err != nil {
		return nil, err
	}
	co = co.withDefaults()
	if co.URL == "" {
		return nil, ErrNoRegion
	}

	m, err := newMetrics(co.registerer)
	if err != nil {
		return nil, errors.Wrap(err, "registering metrics")
	}

	httpClient := co.httpClient
	if httpClient == nil {
		httpClient = newHTTPClient(co)
	}

	c := &Client{
		baseURL:         strings.TrimSuffix(co.URL, "/"),
		userAgent:       fmt.Sprintf("unbounded-go/%s", strings.TrimPrefix(Version, "v")),
		logger:          co.logger,
		tracer:          co.tracer,
		metrics:         m,
		fileConcurrency: co.fileConcurrency,
		requestLimit:    co.requestLimit,
		pollLimiter:     rate.NewLimiter(pollLimit(co.pollInterval), 1),
	}
	c.http = newRetryClient(httpClient, *co.retries, co.minBackoff, co.maxBackoff, c.logger.WithPrefix("api: "))

	if co.fetcher != nil {
		c.fetcher = co.fetcher
	} else {
		c.fetcher = &httpShardFetcher{
			client: newRetryClient(httpClient, *co.fileRetries, co.minBackoff, co.maxBackoff, c.logger.WithPrefix("files: ")),
		}
	}

	c.sessions = newSessionCache(c.acquireSession, co.databaseSessions)
	c.sessions.username, c.sessions.password = co.Username, co.Password
	return c, nil
}

func pollLimit(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// Database returns a handle on the named database.
func (c *Client) Database(name string) *Database {
	return newDatabase(c, name, false)
}

// ListDatabases returns the decoded listing of every database visible to
// the account.
func (c *Client) ListDatabases(ctx context.Context) (interface{}, error) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, c.tracer, "Client.ListDatabases")
	defer span.Finish()

	body, err := c.request(ctx, "", http.MethodGet, "/databases", nil)
	if err != nil {
		return nil, translate(err)
	}
	var out interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, translate(errors.Wrap(err, "decoding database list"))
	}
	return out, nil
}

// request sends one authenticated API call and returns the response body.
// database scopes the session used when database sessions are enabled.
// Failures are returned untranslated: *responseError for error statuses,
// *noResponseError when nothing came back.
func (c *Client) request(ctx context.Context, database, method, path string, body interface{}) ([]byte, error) {
	token, err := c.sessions.token(ctx, database)
	if err != nil {
		return nil, err
	}

	var data []byte
	if body != nil {
		if data, err = json.Marshal(body); err != nil {
			return nil, errors.Wrap(err, "encoding request")
		}
	}

	status, respBody, err := c.do(ctx, method, path, data, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &responseError{StatusCode: status, Body: respBody}
	}
	return respBody, nil
}

// do performs a request against the service. The retrying transport has
// already been through its backoff when do returns.
func (c *Client) do(ctx context.Context, method, path string, data []byte, headers map[string]string) (int, []byte, error) {
	var body interface{}
	if data != nil {
		body = data
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "building request")
	}
	for k, v := range c.augmentHeaders(headers) {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The last response comes back with the error when the retry policy
		// gives up, e.g. on a cancelled context.
		if resp != nil {
			resp.Body.Close()
		}
		c.metrics.requests.WithLabelValues(method, "none").Inc()
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		c.logger.Warnf("%s %s (request %s): %v", method, path, req.Header.Get("X-Request-Id"), err)
		return 0, nil, &noResponseError{err: err}
	}
	defer resp.Body.Close()
	c.metrics.requests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if warning := resp.Header.Get("warning"); warning != "" {
		c.logger.Warnf("%s", warning)
	}

	buf := bytes.NewBuffer(make([]byte, 0, 1+max64(resp.ContentLength, 0)))
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "reading response body")
	}
	return resp.StatusCode, buf.Bytes(), nil
}

func (c *Client) augmentHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["User-Agent"] = c.userAgent
	headers["Accept"] = "application/json"
	headers["Content-Type"] = "application/json"
	headers["X-Request-Id"] = uuid.New().String()
	return headers
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func newHTTPClient(options *ClientOptions) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: options.ConnectTimeout,
		}).DialContext,
		TLSClientConfig:     options.TLSConfig,
		MaxIdleConnsPerHost: options.PoolSizePerRoute,
		MaxIdleConns:        options.TotalPoolSize,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   options.SocketTimeout,
	}
}

// ClientOptions control the properties of client connection to the server.
type ClientOptions struct {
	URL      string
	Region   string
	Username string
	Password string

	SocketTimeout    time.Duration
	ConnectTimeout   time.Duration
	PoolSizePerRoute int
	TotalPoolSize    int
	TLSConfig        *tls.Config

	retries          *int
	fileRetries      *int
	minBackoff       time.Duration
	maxBackoff       time.Duration
	fileConcurrency  int
	requestLimit     int
	pollInterval     time.Duration
	databaseSessions bool

	httpClient *http.Client
	fetcher    ShardFetcher
	logger     logger.Logger
	tracer     opentracing.Tracer
	registerer prometheus.Registerer
}

func (co *ClientOptions) addOptions(options ...ClientOption) error {
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(co); err != nil {
			return err
		}
	}
	return nil
}

// ClientOption is used when creating a Client.
type ClientOption func(options *ClientOptions) error

// OptClientRegion sets the service region; the URL defaults to
// https://<region>.unbounded.cloud.
func OptClientRegion(region string) ClientOption {
	return func(options *ClientOptions) error {
		options.Region = region
		return nil
	}
}

// OptClientURL sets the service URL, overriding the region default.
func OptClientURL(url string) ClientOption {
	return func(options *ClientOptions) error {
		options.URL = url
		return nil
	}
}

// OptClientCredentials sets the account used to acquire tokens.
func OptClientCredentials(username, password string) ClientOption {
	return func(options *ClientOptions) error {
		options.Username = username
		options.Password = password
		return nil
	}
}

// OptClientSocketTimeout is the maximum time for a single HTTP exchange.
func OptClientSocketTimeout(timeout time.Duration) ClientOption {
	return func(options *ClientOptions) error {
		options.SocketTimeout = timeout
		return nil
	}
}

// OptClientConnectTimeout is the maximum time to connect.
func OptClientConnectTimeout(timeout time.Duration) ClientOption {
	return func(options *ClientOptions) error {
		options.ConnectTimeout = timeout
		return nil
	}
}

// OptClientPoolSizePerRoute is the maximum number of idle connections in the pool to a host.
func OptClientPoolSizePerRoute(size int) ClientOption {
	return func(options *ClientOptions) error {
		options.PoolSizePerRoute = size
		return nil
	}
}

// OptClientTotalPoolSize is the maximum number of idle connections in the pool.
func OptClientTotalPoolSize(size int) ClientOption {
	return func(options *ClientOptions) error {
		options.TotalPoolSize = size
		return nil
	}
}

// OptClientTLSConfig contains the TLS configuration.
func OptClientTLSConfig(config *tls.Config) ClientOption {
	return func(options *ClientOptions) error {
		options.TLSConfig = config
		return nil
	}
}

// OptClientHTTPClient replaces the HTTP client under both retrying
// transports. Timeout, pool and TLS options are ignored when it is set.
func OptClientHTTPClient(client *http.Client) ClientOption {
	return func(options *ClientOptions) error {
		options.httpClient = client
		return nil
	}
}

// OptClientRetries sets the number of retries on API request failures.
func OptClientRetries(retries int) ClientOption {
	return func(options *ClientOptions) error {
		if retries < 0 {
			return errors.New(errors.ErrInvalidOption, "retries must be non-negative")
		}
		options.retries = &retries
		return nil
	}
}

// OptClientFileRetries sets the number of retries for each result file.
func OptClientFileRetries(retries int) ClientOption {
	return func(options *ClientOptions) error {
		if retries < 0 {
			return errors.New(errors.ErrInvalidOption, "file retries must be non-negative")
		}
		options.fileRetries = &retries
		return nil
	}
}

// OptClientBackoff sets the bounds of the exponential backoff between
// retries.
func OptClientBackoff(min, max time.Duration) ClientOption {
	return func(options *ClientOptions) error {
		if min < 0 || max < min {
			return errors.New(errors.ErrInvalidOption, "backoff bounds must satisfy 0 <= min <= max")
		}
		options.minBackoff = min
		options.maxBackoff = max
		return nil
	}
}

// OptClientFileConcurrency sets how many result files are fetched at once.
func OptClientFileConcurrency(n int) ClientOption {
	return func(options *ClientOptions) error {
		if n < 0 {
			return errors.New(errors.ErrInvalidOption, "file concurrency must be non-negative")
		}
		options.fileConcurrency = n
		return nil
	}
}

// OptClientRequestLimit sets the request size uploads are split by.
func OptClientRequestLimit(limit int) ClientOption {
	return func(options *ClientOptions) error {
		if limit < 0 {
			return errors.New(errors.ErrInvalidOption, "request limit must be non-negative")
		}
		options.requestLimit = limit
		return nil
	}
}

// OptClientPollInterval sets the minimum time between two task status
// requests. By default the status is requested again as soon as the
// previous answer arrives.
func OptClientPollInterval(interval time.Duration) ClientOption {
	return func(options *ClientOptions) error {
		options.pollInterval = interval
		return nil
	}
}

// OptClientDatabaseSessions makes requests against a database use a token
// scoped to that database.
func OptClientDatabaseSessions(enabled bool) ClientOption {
	return func(options *ClientOptions) error {
		options.databaseSessions = enabled
		return nil
	}
}

// OptClientShardFetcher replaces the retrying HTTP fetcher used for result
// files.
func OptClientShardFetcher(fetcher ShardFetcher) ClientOption {
	return func(options *ClientOptions) error {
		options.fetcher = fetcher
		return nil
	}
}

// OptClientLogger sets the logger.
func OptClientLogger(l logger.Logger) ClientOption {
	return func(options *ClientOptions) error {
		options.logger = l
		return nil
	}
}

// OptClientTracer sets the Open Tracing tracer
// See: https://opentracing.io
func OptClientTracer(tracer opentracing.Tracer) ClientOption {
	return func(options *ClientOptions) error {
		options.tracer = tracer
		return nil
	}
}

// OptClientMetrics registers the client metrics with reg.
func OptClientMetrics(reg prometheus.Registerer) ClientOption {
	return func(options *ClientOptions) error {
		options.registerer = reg
		return nil
	}
}

func (co *ClientOptions) withDefaults() (updated *ClientOptions) {
	// copy options so the original is not updated
	updated = &ClientOptions{}
	*updated = *co
	// impose defaults
	if updated.URL == "" && updated.Region != "" {
		updated.URL = "https://" + updated.Region + ".unbounded.cloud"
	}
	if updated.SocketTimeout <= 0 {
		updated.SocketTimeout = time.Second * 300
	}
	if updated.ConnectTimeout <= 0 {
		updated.ConnectTimeout = time.Second * 60
	}
	if updated.PoolSizePerRoute <= 0 {
		updated.PoolSizePerRoute = 50
	}
	if updated.TotalPoolSize <= 0 {
		updated.TotalPoolSize = 500
	}
	if updated.TLSConfig == nil {
		updated.TLSConfig = &tls.Config{}
	}
	if updated.retries == nil {
		retries := 2
		updated.retries = &retries
	}
	if updated.fileRetries == nil {
		retries := DefaultFileRetries
		updated.fileRetries = &retries
	}
	if updated.minBackoff == 0 && updated.maxBackoff == 0 {
		updated.minBackoff = time.Second
		updated.maxBackoff = 30 * time.Second
	}
	if updated.fileConcurrency <= 0 {
		updated.fileConcurrency = DefaultFileConcurrency
	}
	if updated.requestLimit <= 0 {
		updated.requestLimit = DefaultRequestLimit
	}
	if updated.logger == nil {
		updated.logger = logger.NopLogger
	}
	if updated.tracer == nil {
		updated.tracer = opentracing.NoopTracer{}
	}
	return
}
