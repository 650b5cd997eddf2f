package payment

import "fmt"

// Error codes for payment flow failures. Handlers map these onto HTTP
// statuses at the request boundary.
const (
	CodeNotFound         = "notFound"
	CodeUnauthorized     = "unauthorized"
	CodeDuplicatePayment = "duplicatePayment"
	CodeConflict         = "conflict"
	CodeInvalidRequest   = "invalidRequest"
	CodeGateway          = "gatewayError"
	CodeInternal         = "internal"
)

// Error carries a taxonomy code, an operator-facing message, and optional
// diagnostic details (the raw gateway payload for gateway failures).
type Error struct {
	Code    string
	Message string
	Details any
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

func NewUnauthorizedError(msg string) error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func NewDuplicatePaymentError(msg string) error {
	return &Error{Code: CodeDuplicatePayment, Message: msg}
}

func NewConflictError(msg string) error {
	return &Error{Code: CodeConflict, Message: msg}
}

func NewInvalidRequestError(msg string) error {
	return &Error{Code: CodeInvalidRequest, Message: msg}
}

func NewGatewayError(msg string, details any, err error) error {
	return &Error{Code: CodeGateway, Message: msg, Details: details, Err: err}
}

func NewInternalError(msg string, err error) error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}
