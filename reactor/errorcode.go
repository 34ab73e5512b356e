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

package reactor

import (
	"errors"
	"io"
	"syscall"
)

// ErrorCode wraps whatever the underlying transport reported: a POSIX errno
// for a raw socket, or any other error a StreamEngine surfaces (e.g. a TLS
// alert). IsEOF lets callers distinguish orderly close from a real failure
// without inspecting the wrapped error's concrete type.
type ErrorCode struct {
	Err   error
	Errno syscall.Errno
}

// NewErrorCode wraps err, extracting a syscall.Errno if one is present
// anywhere in its chain.
func NewErrorCode(err error) ErrorCode {
	var errno syscall.Errno
	errors.As(err, &errno)
	return ErrorCode{Err: err, Errno: errno}
}

// IsEOF reports whether this error represents an orderly peer close.
func (e ErrorCode) IsEOF() bool {
	return errors.Is(e.Err, io.EOF)
}

func (e ErrorCode) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e ErrorCode) Unwrap() error {
	return e.Err
}
