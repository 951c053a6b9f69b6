package vault

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine failures. All failures are local and
// synchronous; the engine has no retry policy.
type ErrorCode string

const (
	// ErrCodeStateNotFound indicates the state id is unknown.
	ErrCodeStateNotFound ErrorCode = "STATE_NOT_FOUND"

	// ErrCodeWrongStatus indicates the operation is invalid for the state's
	// current status.
	ErrCodeWrongStatus ErrorCode = "WRONG_STATUS"

	// ErrCodeNotAuthorized indicates the caller is neither the required
	// creator nor controller.
	ErrCodeNotAuthorized ErrorCode = "NOT_AUTHORIZED"

	// ErrCodeInvalidOutcome indicates a chosen outcome outside the state's
	// potential-outcome set.
	ErrCodeInvalidOutcome ErrorCode = "INVALID_OUTCOME"

	// ErrCodeInvalidOutcomeSet indicates an empty, duplicated, or unknown
	// potential-outcome set at creation.
	ErrCodeInvalidOutcomeSet ErrorCode = "INVALID_OUTCOME_SET"

	// ErrCodeInvalidExpiry indicates a missing or non-increasing deadline.
	ErrCodeInvalidExpiry ErrorCode = "INVALID_EXPIRY"

	// ErrCodeExpiryNotReached indicates expiry resolution before the deadline.
	ErrCodeExpiryNotReached ErrorCode = "EXPIRY_NOT_REACHED"

	// ErrCodeConditionNotMet indicates a condition payload mismatch.
	ErrCodeConditionNotMet ErrorCode = "CONDITION_NOT_MET"

	// ErrCodeOracleUnavailable indicates no entropy provider is configured.
	ErrCodeOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"

	// ErrCodeAlreadyEntangled indicates a link attempt on an entangled state.
	ErrCodeAlreadyEntangled ErrorCode = "ALREADY_ENTANGLED"

	// ErrCodeNotEntangled indicates an unlink for links that do not match.
	ErrCodeNotEntangled ErrorCode = "NOT_ENTANGLED"

	// ErrCodeNothingToClaim indicates a zero entitlement at claim time.
	ErrCodeNothingToClaim ErrorCode = "NOTHING_TO_CLAIM"

	// ErrCodeTransferFailed indicates the value ledger rejected a transfer.
	// Internal bookkeeping is restored before this surfaces.
	ErrCodeTransferFailed ErrorCode = "TRANSFER_FAILED"
)

// Error is a structured engine failure with a code and diagnostic fields.
type Error struct {
	Code    ErrorCode
	Message string

	// StateID identifies the affected state, when known.
	StateID string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StateID != "" {
		return fmt.Sprintf("%s: %s (state=%s)", e.Code, e.Message, e.StateID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errf builds an Error with a formatted message.
func Errf(code ErrorCode, stateID, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		StateID: stateID,
	}
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Returns "" for nil or non-engine errors.
func CodeOf(err error) ErrorCode {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// IsCode reports whether err carries the given code, unwrapping as needed.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsWrongStatus reports whether err is a WRONG_STATUS failure.
func IsWrongStatus(err error) bool {
	return IsCode(err, ErrCodeWrongStatus)
}

// IsNotFound reports whether err is a STATE_NOT_FOUND failure.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeStateNotFound)
}

// IsTransferFailed reports whether err is a TRANSFER_FAILED failure.
func IsTransferFailed(err error) bool {
	return IsCode(err, ErrCodeTransferFailed)
}
