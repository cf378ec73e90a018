// Copyright 2013 Richard Lehane. All rights reserved.
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

package cfbf

import "fmt"

// Kind classifies an Error returned by this package.
type Kind int

const (
	KindMalformedHeader Kind = iota
	KindOutOfRangeSector
	KindCorruptFAT
	KindCyclicChain
	KindInvalidName
	KindEmpty
	KindFileSizeLimitExceeded
	KindFilenameTooLong
)

func (k Kind) String() string {
	switch k {
	case KindMalformedHeader:
		return "malformed header"
	case KindOutOfRangeSector:
		return "out-of-range sector reference"
	case KindCorruptFAT:
		return "corrupt FAT"
	case KindCyclicChain:
		return "cyclic chain"
	case KindInvalidName:
		return "invalid name"
	case KindEmpty:
		return "empty"
	case KindFileSizeLimitExceeded:
		return "file_size_limit_exceeded"
	case KindFilenameTooLong:
		return "filename_too_long"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every exported function in this
// package. Callers compare against the sentinel values below with
// errors.Is, or switch on Kind directly.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "cfbf: " + e.Kind.String()
	}
	return fmt.Sprintf("cfbf: %s: %s", e.Kind, e.Msg)
}

// Is reports whether target is a *Error with the same Kind, so that
// errors.Is(err, ErrEmpty) works regardless of the wrapped Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Writer error sentinels. All three are detected before any commitment
// to output.
var (
	ErrEmpty                 = &Error{Kind: KindEmpty, Msg: "document has no objects"}
	ErrFileSizeLimitExceeded = &Error{Kind: KindFileSizeLimitExceeded}
	ErrFilenameTooLong       = &Error{Kind: KindFilenameTooLong}
)

func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}
