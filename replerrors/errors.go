// Copyright (C) 2019-2020 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Package replerrors defines the error kinds the replication API surfaces to
// callers. Every kind but Internal is recoverable; Internal means the node
// can no longer guarantee consistency with the rest of the group and must
// leave the cluster.
package replerrors

// Kind identifies one of the error kinds a replication operation can fail with.
type Kind string

const (
	// ConnectionLost means the node's group-communication transport dropped
	// out of the current view; in-flight writes are unresolved.
	ConnectionLost Kind = "connection_lost"

	// NotConnected means the node has not yet joined a primary component.
	NotConnected Kind = "not_connected"

	// NotPrimary means the node's current component lost primary status
	// (partitioned into a minority) and cannot certify or apply writes.
	NotPrimary Kind = "not_primary"

	// CertificationFailed means a write set lost optimistic certification
	// against a concurrently committed conflicting write set. Recoverable:
	// normal outcome of optimistic concurrency, reported per write set.
	CertificationFailed Kind = "certification_failed"

	// SizeExceeded means a write set exceeded the configured size bound.
	SizeExceeded Kind = "size_exceeded"

	// BadRequest means the caller supplied a malformed or out-of-range request.
	BadRequest Kind = "bad_request"

	// TransportError means a lower-level I/O or framing fault occurred.
	TransportError Kind = "transport_error"

	// Conflict means a local precondition (e.g. causal-read deadline) could
	// not be satisfied given the node's current apply position.
	Conflict Kind = "conflict"

	// Internal means an invariant was violated: seqno regression, cache
	// index corruption, or another state the node cannot continue past.
	// Not recoverable — callers should expect the node to abort.
	Internal Kind = "internal_fatal"
)

// ReplicationError is the concrete error type every replication API call returns.
type ReplicationError struct {
	kind    Kind
	message string
	cause   error
}

// New creates a ReplicationError of the given kind with a message.
func New(kind Kind, message string) *ReplicationError {
	return &ReplicationError{kind: kind, message: message}
}

// Wrap creates a ReplicationError of the given kind wrapping an underlying cause.
func Wrap(kind Kind, message string, cause error) *ReplicationError {
	return &ReplicationError{kind: kind, message: message, cause: cause}
}

// Error satisfies the builtin error interface.
func (e *ReplicationError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap lets errors.Is/errors.As see through to the cause.
func (e *ReplicationError) Unwrap() error {
	return e.cause
}

// Kind reports which of the recognised error kinds this error is.
func (e *ReplicationError) Kind() Kind {
	return e.kind
}

// Fatal reports whether this error kind requires the node to leave the cluster.
func (e *ReplicationError) Fatal() bool {
	return e.kind == Internal
}

// Is lets errors.Is(err, replerrors.New(kind, "")) match on kind alone.
func (e *ReplicationError) Is(target error) bool {
	other, ok := target.(*ReplicationError)
	if !ok {
		return false
	}
	return other.kind == e.kind
}

// MakeConnectionLostError reports the node's view membership was lost mid-operation.
func MakeConnectionLostError(text string) *ReplicationError {
	return New(ConnectionLost, text)
}

// MakeNotConnectedError reports the node has not joined a primary component yet.
func MakeNotConnectedError(text string) *ReplicationError {
	return New(NotConnected, text)
}

// MakeNotPrimaryError reports the node's component is no longer primary.
func MakeNotPrimaryError(text string) *ReplicationError {
	return New(NotPrimary, text)
}

// MakeCertificationFailedError reports a write set lost certification.
func MakeCertificationFailedError(text string) *ReplicationError {
	return New(CertificationFailed, text)
}

// MakeSizeExceededError reports a write set exceeded its configured size bound.
func MakeSizeExceededError(text string) *ReplicationError {
	return New(SizeExceeded, text)
}

// MakeBadRequestError reports a malformed or out-of-range caller request.
func MakeBadRequestError(text string) *ReplicationError {
	return New(BadRequest, text)
}

// MakeTransportError wraps a lower-level transport fault.
func MakeTransportError(text string, cause error) *ReplicationError {
	return Wrap(TransportError, text, cause)
}

// MakeConflictError reports a local precondition the caller asked for could not be met.
func MakeConflictError(text string) *ReplicationError {
	return New(Conflict, text)
}

// MakeInternalError reports an invariant violation. Callers that observe this
// kind should expect the node process to abort shortly after.
func MakeInternalError(text string, cause error) *ReplicationError {
	return Wrap(Internal, text, cause)
}
