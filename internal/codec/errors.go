package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when the input ends inside a record.
	ErrTruncated = errors.New("codec: truncated input")
	// ErrTrailingBytes is returned when a section holds more bytes than its records.
	ErrTrailingBytes = errors.New("codec: trailing bytes after table")
	// ErrUnknownKind is returned for node or edge kinds outside the schema.
	ErrUnknownKind = errors.New("codec: unknown kind")
	// ErrInvalidUTF8 is returned for strings that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("codec: invalid UTF-8 string")
)

// RangeError reports a value that does not fit its wire field.
type RangeError struct {
	Field string // e.g. "edge[3].source"
	Value uint64
	Max   uint64
	Err   error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("codec: %s = %d does not fit (max %d)", e.Field, e.Value, e.Max)
}

func (e *RangeError) Unwrap() error { return e.Err }
