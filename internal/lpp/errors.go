package lpp

import "errors"

// Error is the closed set of decode failures. Values are returned as-is so
// callers can compare them directly or through errors.Is.
type Error uint8

const (
	// ErrPayloadEmpty reports a zero-length buffer.
	ErrPayloadEmpty Error = iota + 1
	// ErrUnknownDataType reports a type identifier with no registry entry.
	ErrUnknownDataType
	// ErrBadPayloadFormat reports a truncated record or unconsumed trailing bytes.
	ErrBadPayloadFormat
)

func (e Error) Error() string {
	switch e {
	case ErrPayloadEmpty:
		return "lpp: payload empty"
	case ErrUnknownDataType:
		return "lpp: unknown data type"
	case ErrBadPayloadFormat:
		return "lpp: bad payload format"
	default:
		return "lpp: unknown error"
	}
}

// Registration failures, kept apart from the decode taxonomy.
var (
	ErrInvalidTypeSize = errors.New("lpp: data type size must be at least 1 byte")
	ErrInvalidTypeName = errors.New("lpp: data type name must not be empty")
)
