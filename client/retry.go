// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/molecula/unbounded/logger"
)

// newRetryClient wraps hc in a transport which retries connection failures
// and 5xx responses up to retries times. Once retries are exhausted the last
// response is handed back unchanged so callers can decode its body.
func newRetryClient(hc *http.Client, retries int, minWait, maxWait time.Duration, log logger.Logger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.RetryMax = retries
	rc.RetryWaitMin = minWait
	rc.RetryWaitMax = maxWait
	rc.Backoff = retryablehttp.DefaultBackoff
	rc.CheckRetry = retryablehttp.DefaultRetryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = logger.LeveledLogger{Logger: log}
	return rc
}
