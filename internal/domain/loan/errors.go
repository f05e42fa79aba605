package loan

import "errors"

// Kind classifies failures so transports can map them without matching on
// individual sentinels.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindInvalidState
	KindInvalidAmount
	KindInvalidParameter
	KindExternalFailure
	KindReentrant
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidAmount:
		return "invalid_amount"
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindExternalFailure:
		return "external_failure"
	case KindReentrant:
		return "reentrant"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newError(k Kind, msg string) *Error { return &Error{Kind: k, msg: msg} }

var (
	ErrLoanNotFound = newError(KindNotFound, "loan not found")

	ErrNotOwner         = newError(KindUnauthorized, "caller does not hold the collateral")
	ErrNotBorrower      = newError(KindUnauthorized, "caller is not the borrower")
	ErrNotLender        = newError(KindUnauthorized, "caller is not the current lender")
	ErrNotProtocolOwner = newError(KindUnauthorized, "caller is not the protocol owner")

	ErrLoanAlreadyAccepted = newError(KindInvalidState, "loan already accepted")
	ErrNoBidYet            = newError(KindInvalidState, "loan has no bid")
	ErrNotAccepted         = newError(KindInvalidState, "loan not accepted")
	ErrDurationExpired     = newError(KindInvalidState, "loan duration expired")
	ErrNotExpired          = newError(KindInvalidState, "loan duration not expired")
	ErrLoanClosed          = newError(KindInvalidState, "loan already settled")

	ErrIncorrectValue = newError(KindInvalidAmount, "supplied value does not match required amount")
	ErrNoProtocolFees = newError(KindInvalidAmount, "no protocol fees to withdraw")

	ErrAssetNotAllowed   = newError(KindInvalidParameter, "collateral contract not allowed")
	ErrRateNotImproved   = newError(KindInvalidParameter, "rate does not improve on current rate")
	ErrRateAboveCeiling  = newError(KindInvalidParameter, "rate above borrower ceiling")
	ErrInvalidLoanTerms  = newError(KindInvalidParameter, "invalid loan terms")
	ErrInvalidAccount    = newError(KindInvalidParameter, "invalid account")
	ErrFeeRateOutOfRange = newError(KindInvalidParameter, "protocol fee rate out of range")
	ErrMathOverflow      = newError(KindInvalidParameter, "amount overflow")

	ErrExternal      = newError(KindExternalFailure, "external capability failed")
	ErrReentrantCall = newError(KindReentrant, "reentrant call rejected")
)

type externalError struct {
	op  string
	err error
}

func (e *externalError) Error() string { return e.op + ": " + e.err.Error() }

func (e *externalError) Unwrap() []error { return []error{ErrExternal, e.err} }

// External tags a custody or value-transfer failure so KindOf reports
// KindExternalFailure while the cause stays reachable through errors.Is.
func External(op string, err error) error {
	if err == nil {
		return nil
	}
	return &externalError{op: op, err: err}
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
