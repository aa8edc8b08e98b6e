// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/molecula/unbounded/errors"
)

// Predefined client errors.
var (
	ErrNoRegion       = errors.New(errors.ErrInvalidOption, "a region or URL is required")
	ErrAlreadyAsync   = errors.New(errors.ErrAlreadyAsync, "the handle is already asynchronous")
	ErrNotBindable    = errors.New(errors.ErrNotBindable, "previous option is not bindable")
	ErrAlreadySent    = errors.New(errors.ErrInvalidOption, "operation has already been sent")
	ErrObjectTooLarge = errors.New(errors.ErrObjectTooLarge, "Object is too large")
	ErrUploadFailed   = errors.New(errors.ErrUploaderFailed, "An error was thrown in a previous call")
	ErrUploadFinished = errors.New(errors.ErrUploaderFinished, "finish() has already been called")
)

// responseError is returned by the transport when the service answered
// with an error status.
type responseError struct {
	StatusCode int
	Body       []byte
}

func (e *responseError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), bytes.TrimSpace(e.Body))
}

// noResponseError is returned by the transport when a request was sent but
// no response was received.
type noResponseError struct {
	err error
}

func (e *noResponseError) Error() string {
	return "no response: " + e.err.Error()
}

func (e *noResponseError) Unwrap() error {
	return e.err
}

// transient reports whether err is worth retrying: the service could not be
// reached or failed on its side.
func transient(err error) bool {
	var re *responseError
	if errors.As(err, &re) {
		return re.StatusCode >= 500
	}
	var ne *noResponseError
	return errors.As(err, &ne)
}

// translate converts any failure into an *errors.Error. Errors which are
// already translated are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsError(err); ok {
		return err
	}

	var re *responseError
	if errors.As(err, &re) {
		return errors.NewWithStatus(errors.ErrServer, re.StatusCode, responseMessage(re.Body))
	}
	var ne *noResponseError
	if errors.As(err, &ne) {
		return errors.NewWithCause(errors.ErrNoResponse, "No response received", ne.err)
	}
	return errors.NewWithCause(errors.ErrTransport, err.Error(), err)
}

// responseMessage prefers the "error" field of a JSON payload, and falls
// back to the payload itself.
func responseMessage(body []byte) string {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(bytes.TrimSpace(body))
	}
	if m, ok := payload.(map[string]interface{}); ok {
		switch e := m["error"].(type) {
		case nil:
		case string:
			if e != "" {
				return e
			}
		default:
			if buf, err := json.Marshal(e); err == nil {
				return string(buf)
			}
		}
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return string(bytes.TrimSpace(body))
	}
	return string(buf)
}
