// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package errors wraps pkg/errors and adds the coded Error type which every
// failure surfaced by the client is translated into.
package errors

import (
	"github.com/pkg/errors"
)

// Code is an error code which can be used to check against a given error. For
// example, see the Is() method.
type Code string

const (
	ErrUncoded Code = "Uncoded"

	// ErrServer is used when the service answered with an error status.
	ErrServer Code = "Server"
	// ErrNoResponse is used when a request was sent but nothing came back.
	ErrNoResponse Code = "NoResponse"
	// ErrTransport covers every other failure to complete a request.
	ErrTransport Code = "Transport"

	ErrNotBindable      Code = "NotBindable"
	ErrObjectTooLarge   Code = "ObjectTooLarge"
	ErrUploaderFailed   Code = "UploaderFailed"
	ErrUploaderFinished Code = "UploaderFinished"
	ErrShardFetch       Code = "ShardFetch"
	ErrInvalidOption    Code = "InvalidOption"
	ErrAlreadyAsync     Code = "AlreadyAsync"
)

// Error is the single error kind returned by the client. StatusCode is the
// HTTP status of the failing response, or zero when there was none.
type Error struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status,omitempty"`

	// Err is the underlying failure, if any.
	Err error `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is an *Error carrying the same code.
func (e *Error) Is(err error) bool {
	if o, ok := err.(*Error); ok && e.Code == o.Code {
		return true
	}
	return false
}

func New(code Code, message string) error {
	return errors.WithStack(&Error{
		Code:    code,
		Message: message,
	})
}

// NewWithStatus is New for errors which originate from an HTTP response.
func NewWithStatus(code Code, status int, message string) error {
	return errors.WithStack(&Error{
		Code:       code,
		Message:    message,
		StatusCode: status,
	})
}

// NewWithCause is New for errors translated from another failure; the
// cause stays reachable through errors.Unwrap.
func NewWithCause(code Code, message string, cause error) error {
	return errors.WithStack(&Error{
		Code:    code,
		Message: message,
		Err:     cause,
	})
}

// AsError returns the *Error in err's chain, if there is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Cause(err error) error {
	return errors.Cause(err)
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Is is a fork of the Is() method from `pkg/errors` which takes as its target
// an error Code instead of an error.
func Is(err error, target Code) bool {
	return errors.Is(err, &Error{Code: target})
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

func WithMessagef(err error, format string, args ...interface{}) error {
	return errors.WithMessagef(err, format, args...)
}

func WithStack(err error) error {
	return errors.WithStack(err)
}

func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, fmt string, args ...interface{}) error {
	return errors.Wrapf(err, fmt, args...)
}
