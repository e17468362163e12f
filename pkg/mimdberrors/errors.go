// Package mimdberrors provides structured error handling for MIMDB, with
// categorized error kinds, contextual details, and captured stack traces.
//
// # Overview
//
// Every failure surfaced by the core format/codec/table packages is one of
// a closed set of Kind values, so callers can branch on the failure
// category instead of matching on message text.
//
// # Basic Usage
//
//	err := mimdberrors.New(mimdberrors.InvalidMagic, "unexpected file magic")
//	err = err.WithDetail("got", magic)
//
//	if err := readHeader(r); err != nil {
//	    return mimdberrors.Wrap(err, mimdberrors.IoFailure, "reading header").
//	        WithDetail("path", path)
//	}
package mimdberrors

import (
	"errors"
	"runtime"

	stringpool "github.com/QuerthDP/mimdb/pkg/strings"
)

// Kind categorizes a MIMDB error for handling strategies, logging, and
// REST response mapping.
type Kind string

const (
	// InvalidMagic means a file did not start with the expected magic bytes.
	InvalidMagic Kind = "invalid_magic"
	// UnsupportedVersion means a file's header declared a version this
	// build does not know how to read.
	UnsupportedVersion Kind = "unsupported_version"
	// MalformedMetadata means the metadata block could not be parsed
	// according to the wire layout.
	MalformedMetadata Kind = "malformed_metadata"
	// SizeMismatch means a declared size (row count, column length,
	// uncompressed/compressed byte count) disagreed with the data found.
	SizeMismatch Kind = "size_mismatch"
	// CodecFailure means a compression or decompression stage failed.
	CodecFailure Kind = "codec_failure"
	// DuplicateColumn means a column name was added twice to a table.
	DuplicateColumn Kind = "duplicate_column"
	// ColumnLengthMismatch means a column's length disagreed with the
	// table's established row count.
	ColumnLengthMismatch Kind = "column_length_mismatch"
	// EmptyColumnName means a column was added with an empty name.
	EmptyColumnName Kind = "empty_column_name"
	// IoFailure means an underlying read/write/open operation failed.
	IoFailure Kind = "io_failure"
)

// Error is a structured error carrying a Kind, a human-readable message,
// an optional wrapped cause, arbitrary context details, and a captured
// call stack.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is a single frame of a captured call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return stringpool.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key-value detail and returns the same error for
// chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new Error of the given kind, capturing the current stack.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps err as the cause of a new Error of the given kind. Returns
// nil if err is nil. If err is already a *Error, its stack is preserved.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Kind:    kind,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Is reports whether the first *Error found in err's chain has the given
// kind. Kinds of *Error causes wrapped beneath that one are not checked.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
