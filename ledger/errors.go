package ledger

import "fmt"

// Error codes returned by ledger operations.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeDuplicateHash = "DUPLICATE_HASH"
	ErrCodeWriteFailed   = "WRITE_FAILED"
	ErrCodeReadFailed    = "READ_FAILED"
)

// LedgerError represents an error in the ledger layer. A failed authenticity
// verification is not a LedgerError; it is a normal negative result.
type LedgerError struct {
	Code    string
	Message string
	Detail  string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
}

func newValidationError(detail string) *LedgerError {
	return &LedgerError{
		Code:    ErrCodeValidation,
		Message: "Invalid input",
		Detail:  detail,
	}
}

func newNotFoundError(entity string, detail string) *LedgerError {
	return &LedgerError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s does not exist", entity),
		Detail:  detail,
	}
}

func newDuplicateHashError(hash string) *LedgerError {
	return &LedgerError{
		Code:    ErrCodeDuplicateHash,
		Message: "QR hash is already registered",
		Detail:  fmt.Sprintf("hash %s is already bound to a product", hash),
	}
}

func newWriteFailure(err error) *LedgerError {
	return &LedgerError{
		Code:    ErrCodeWriteFailed,
		Message: "Durable append did not complete",
		Detail:  err.Error(),
	}
}

func newReadFailure(err error) *LedgerError {
	return &LedgerError{
		Code:    ErrCodeReadFailed,
		Message: "Ledger read did not complete",
		Detail:  err.Error(),
	}
}
