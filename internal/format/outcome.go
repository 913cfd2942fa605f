package format

// Kind tags an Outcome.
type Kind uint8

const (
	KindIgnored Kind = iota // excluded by an ignore file, engine not called
	KindSuccess             // Formatted holds the engine output
	KindError               // Message holds the failure text
)

// String returns the status word used in reports.
func (k Kind) String() string {
	switch k {
	case KindIgnored:
		return "ignored"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Format call.
type Outcome struct {
	Kind      Kind
	Formatted string
	Message   string
	// Cause is the typed error behind a KindError outcome:
	// *ffi.EncodingError, *ffi.EngineError or ffi.ErrUnknownResponse.
	Cause error
}

// Ignored reports whether the file was skipped.
func (o Outcome) Ignored() bool { return o.Kind == KindIgnored }

// OK reports whether the engine produced output.
func (o Outcome) OK() bool { return o.Kind == KindSuccess }

// Err returns the failure as an *Error, or nil unless Kind is KindError.
func (o Outcome) Err() error {
	if o.Kind != KindError {
		return nil
	}
	return &Error{Message: o.Message, Cause: o.Cause}
}

// Error is the error form of a failed Outcome. Its text is the outcome
// message; it unwraps to the cause.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }
