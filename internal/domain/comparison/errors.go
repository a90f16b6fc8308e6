package comparison

import (
	"errors"
	"fmt"
)

// Sentinel kinds for comparison errors.
var (
	ErrValidation      = errors.New("invalid comparison request")
	ErrBudgetExceeded  = errors.New("prompt exceeds token budget")
	ErrOracleFormat    = errors.New("oracle reply unusable")
	ErrOracleTransport = errors.New("oracle call failed")
)

// BudgetExceededError reports an estimated prompt size above the ceiling.
type BudgetExceededError struct {
	Estimated int
	Limit     int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("estimated %d tokens exceeds limit of %d", e.Estimated, e.Limit)
}

// Is matches ErrBudgetExceeded.
func (e *BudgetExceededError) Is(target error) bool { return target == ErrBudgetExceeded }

// OracleFormatError reports a reply from which not even a summary could be recovered.
type OracleFormatError struct {
	Reason string
}

func (e *OracleFormatError) Error() string {
	return "oracle reply unusable: " + e.Reason
}

// Is matches ErrOracleFormat.
func (e *OracleFormatError) Is(target error) bool { return target == ErrOracleFormat }

// OracleTransportError wraps a failed oracle call without altering its cause.
type OracleTransportError struct {
	Err error
}

func (e *OracleTransportError) Error() string {
	return "oracle call failed: " + e.Err.Error()
}

func (e *OracleTransportError) Unwrap() error { return e.Err }

// Is matches ErrOracleTransport.
func (e *OracleTransportError) Is(target error) bool { return target == ErrOracleTransport }
