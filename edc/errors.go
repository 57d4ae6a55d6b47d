// Copyright 2024 go-dataspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package edc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the classification of an error, it is string based so it can be shown as is.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindConflict          Kind = "CONFLICT"
	KindReference         Kind = "REFERENCE_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindUnreachable       Kind = "UNREACHABLE"
	KindProtocolViolation Kind = "PROTOCOL_VIOLATION"
	KindNegotiationFailed Kind = "NEGOTIATION_FAILED"
	KindTransferFailed    Kind = "TRANSFER_FAILED"
	KindTimeout           Kind = "TIMEOUT"
	KindCancelled         Kind = "CANCELLED"
	KindUnknown           Kind = "UNKNOWN"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("already exists")
	ErrReference         = errors.New("unknown reference")
	ErrNotFound          = errors.New("not found")
	ErrUnreachable       = errors.New("connector unreachable")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrNegotiationFailed = errors.New("negotiation failed")
	ErrTransferFailed    = errors.New("transfer failed")
	ErrTimeout           = errors.New("timed out")
	ErrCancelled         = errors.New("cancelled")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrCancelled, KindCancelled},
	{ErrTimeout, KindTimeout},
	{ErrProtocolViolation, KindProtocolViolation},
	{ErrNegotiationFailed, KindNegotiationFailed},
	{ErrTransferFailed, KindTransferFailed},
	{ErrReference, KindReference},
	{ErrConflict, KindConflict},
	{ErrNotFound, KindNotFound},
	{ErrValidation, KindValidation},
	{ErrUnreachable, KindUnreachable},
}

// KindOf returns the kind of err, an empty kind for nil, and KindUnknown for errors that don't
// wrap one of the errors of this package.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Resumable reports if err leaves the operation in a state where polling can be picked up again.
func Resumable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrCancelled)
}

// ConnectorError is returned for every failed exchange with the connector. It wraps the kind of
// failure, so it can be tested with errors.Is.
type ConnectorError struct {
	Kind       error
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *ConnectorError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %s", e.Method, e.URL, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&sb, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err)
	}
	return sb.String()
}

func (e *ConnectorError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// classify maps an HTTP status code and body onto an error kind.
func classify(status int, body string) error {
	lower := strings.ToLower(body)
	switch {
	case status == http.StatusConflict,
		strings.Contains(lower, "already exists"),
		strings.Contains(lower, "duplicate"):
		return ErrConflict
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrUnreachable
	case status >= 400:
		return ErrValidation
	default:
		return ErrProtocolViolation
	}
}

// rekind changes the kind of a connector error if the predicate matches it.
func rekind(err error, to error, match func(*ConnectorError) bool) error {
	var ce *ConnectorError
	if !errors.As(err, &ce) || !match(ce) {
		return err
	}
	nce := *ce
	nce.Kind = to
	return &nce
}
