package ffi

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	tagSuccess = '0'
	tagFailure = '1'
)

// ErrUnknownResponse is returned for responses that carry no known tag.
// Its text is part of the engine contract and is shown to users verbatim.
var ErrUnknownResponse = errors.New("Unknown error") //nolint:staticcheck

// EngineError is a failure reported by the engine through a '1' response.
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

// EncodingError reports input that cannot cross the boundary.
type EncodingError struct {
	Field  string // "path" or "content"
	Offset int    // byte offset of the offending byte, -1 if not applicable
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("cannot encode %s: %s at byte %d", e.Field, e.Reason, e.Offset)
	}
	return fmt.Sprintf("cannot encode %s: %s", e.Field, e.Reason)
}

// validate checks that path and content survive conversion to C strings
// unchanged.
func validate(path, content string) error {
	if !utf8.ValidString(path) {
		return &EncodingError{Field: "path", Offset: -1, Reason: "not valid UTF-8"}
	}
	if i := strings.IndexByte(path, 0); i >= 0 {
		return &EncodingError{Field: "path", Offset: i, Reason: "embedded NUL byte"}
	}
	if i := strings.IndexByte(content, 0); i >= 0 {
		return &EncodingError{Field: "content", Offset: i, Reason: "embedded NUL byte"}
	}
	return nil
}

// Decode parses an engine response.
//
// Leading whitespace is stripped, then the first byte selects the outcome:
// '0' returns the rest as formatted code, '1' returns the rest wrapped in an
// *EngineError. Anything else, including an empty response or one that is
// not valid UTF-8, yields ErrUnknownResponse. Whitespace after the tag is
// part of the payload.
func Decode(raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return "", ErrUnknownResponse
	}
	res := strings.TrimLeftFunc(raw, unicode.IsSpace)
	if res == "" {
		return "", ErrUnknownResponse
	}
	switch res[0] {
	case tagSuccess:
		return res[1:], nil
	case tagFailure:
		return "", &EngineError{Message: res[1:]}
	default:
		return "", ErrUnknownResponse
	}
}
