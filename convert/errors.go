package convert

import "fmt"

// Kind classifies an operation failure so handlers can map it to a status
// code without string matching.
type Kind int

const (
	// KindInvalidInput covers bad extensions, malformed parameters and
	// wrong passwords. Maps to a 4xx.
	KindInvalidInput Kind = iota
	// KindNotFound covers references to pages or records that do not
	// exist in the input.
	KindNotFound
	// KindProcessing covers failures inside the underlying libraries:
	// corrupt files, unsupported structures.
	KindProcessing
)

// Error is the typed failure returned by every conversion operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func processing(msg string, err error) *Error {
	return &Error{Kind: KindProcessing, Msg: msg, Err: err}
}
