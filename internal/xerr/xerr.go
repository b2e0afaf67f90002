// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xerr defines the error taxonomy shared across the query engine.
// Errors are values, never panics, and cross goroutine boundaries on result
// channels or as plain returns.
package xerr

import "fmt"

// Kind identifies the category of a failure, independent of its message.
type Kind int

const (
	// Unknown is the zero value; KindOf reports it for errors that are not
	// (and do not wrap) an *Error.
	Unknown Kind = iota
	// Malformed marks a request with an empty PV set or an inverted/unbounded range.
	Malformed
	// TransportRejected marks a server rejection of a request; fatal to the call.
	TransportRejected
	// TransportFailure marks a mid-stream transport error; fatal to the sub-request
	// and, by default, the whole call.
	TransportFailure
	// Cancelled marks a cooperative cancellation. Not an error at the API level
	// when caller-initiated.
	Cancelled
	// DuplicateSeries marks two buckets for the same PV matching the same basis.
	DuplicateSeries
	// SizeMismatch marks a column whose length does not equal its basis sample count.
	SizeMismatch
	// TypeMismatch marks a value whose element type is not assignable to the
	// declared PV type.
	TypeMismatch
	// CompletionFailure marks a correlator pool task that failed or timed out.
	CompletionFailure
	// Exhausted marks a unary response that would exceed the frame size limit.
	Exhausted
	// QueryFailure wraps any other fatal kind at the façade boundary.
	QueryFailure
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Malformed:
		return "request-malformed"
	case TransportRejected:
		return "transport-rejected"
	case TransportFailure:
		return "transport-failure"
	case Cancelled:
		return "cancelled"
	case DuplicateSeries:
		return "duplicate-series"
	case SizeMismatch:
		return "size-mismatch"
	case TypeMismatch:
		return "type-mismatch"
	case CompletionFailure:
		return "completion-failure"
	case Exhausted:
		return "exhausted"
	case QueryFailure:
		return "query-failure"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by the engine. Kind drives
// programmatic handling; Message and Cause carry human/debug context.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error carrying cause as the underlying error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to Cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, xerr.New(xerr.Cancelled, "")) style checks; only Kind
// is compared.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the Kind from err, returning Unknown if err is not (or does
// not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Unknown
	}
	return e.Kind
}
