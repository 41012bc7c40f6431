package shared

import "fmt"

// Error codes for the engine's validation failures.
const (
	CodeInvalidRange          = "INVALID_RANGE"
	CodeNegativeAmount        = "NEGATIVE_AMOUNT"
	CodeUnknownRateTable      = "UNKNOWN_RATE_TABLE"
	CodeMissingReferenceData  = "MISSING_REFERENCE_DATA"
	CodeEmptyInputForForecast = "EMPTY_INPUT_FOR_FORECAST"
	CodeInvalidInput          = "INVALID_INPUT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNegativeAmount) matches any negative-amount failure
// regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Sentinel errors, one per code. Match with errors.Is.
var (
	ErrInvalidRange          = NewDomainError(CodeInvalidRange, "Invalid date range or tax year")
	ErrNegativeAmount        = NewDomainError(CodeNegativeAmount, "Amount cannot be negative")
	ErrUnknownRateTable      = NewDomainError(CodeUnknownRateTable, "No rate table for tax year")
	ErrMissingReferenceData  = NewDomainError(CodeMissingReferenceData, "Referenced data not found")
	ErrEmptyInputForForecast = NewDomainError(CodeEmptyInputForForecast, "Forecast requires at least one month of data")
	ErrInvalidInput          = NewDomainError(CodeInvalidInput, "Invalid input provided")
)

// NewInvalidRangeError reports an unusable date range or tax-year key.
func NewInvalidRangeError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidRange, fmt.Sprintf(format, args...))
}

// NewNegativeAmountError reports a negative amount on the named record.
func NewNegativeAmountError(record string, amount fmt.Stringer) *DomainError {
	return NewDomainError(CodeNegativeAmount,
		fmt.Sprintf("%s has negative amount %s", record, amount))
}

// NewUnknownRateTableError reports a tax year without a rate table.
func NewUnknownRateTableError(taxYear string) *DomainError {
	return NewDomainError(CodeUnknownRateTable,
		fmt.Sprintf("no rate table for tax year %q", taxYear))
}

// NewMissingReferenceError reports a reference to an entity absent from the supplied data.
func NewMissingReferenceError(kind, id string) *DomainError {
	return NewDomainError(CodeMissingReferenceData,
		fmt.Sprintf("%s %s not found in supplied reference data", kind, id))
}

// NewInvalidInputError reports malformed input.
func NewInvalidInputError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf(format, args...))
}
