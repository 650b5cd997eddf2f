package booking

import "fmt"

// Error codes for booking flow failures.
const (
	CodeNotFound       = "notFound"
	CodeInvalidRequest = "invalidRequest"
	CodeInternal       = "internal"
)

// Error carries a taxonomy code and an operator-facing message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewNotFoundError(msg string) error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func NewInvalidRequestError(msg string) error {
	return &Error{Code: CodeInvalidRequest, Message: msg}
}

func NewInternalError(msg string, err error) error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}
