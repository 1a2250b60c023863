package domain

import "errors"

// Kind classifies a domain error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidState
	KindValidation
)

// Error is a classified domain error. Sentinels below are compared with errors.Is.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newErr(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

var (
	ErrUnauthenticated  = newErr(KindUnauthenticated, "wallet authentication required")
	ErrInvalidSignature = newErr(KindUnauthenticated, "invalid wallet signature")
	ErrNonceReplayed    = newErr(KindConflict, "nonce already used")

	ErrForbidden        = newErr(KindForbidden, "action not allowed for this wallet")
	ErrInsufficientRole = newErr(KindForbidden, "insufficient role")
	ErrNotWhitelisted   = newErr(KindForbidden, "wallet is not whitelisted")

	ErrLaunchNotFound = newErr(KindNotFound, "project not found")

	ErrSaleNotActive        = newErr(KindInvalidState, "sale is not active")
	ErrSaleClosed           = newErr(KindInvalidState, "sale window is closed")
	ErrHardCapExceeded      = newErr(KindInvalidState, "hard cap exceeded")
	ErrPerWalletCapExceeded = newErr(KindInvalidState, "per-wallet cap exceeded")
	ErrSaleNotFinalized     = newErr(KindInvalidState, "sale is not finalized")
	ErrNothingToClaim       = newErr(KindInvalidState, "nothing to claim")
	ErrNotPaused            = newErr(KindInvalidState, "sale is not paused")
	ErrSaleEnded            = newErr(KindInvalidState, "sale has ended")
	ErrFinalizeNotAllowed   = newErr(KindInvalidState, "sale cannot be finalized yet")
	ErrRefundNotAllowed     = newErr(KindInvalidState, "sale cannot be refunded")
	ErrPauseNotAllowed      = newErr(KindInvalidState, "only active sales can be paused")
	ErrWhitelistLocked      = newErr(KindInvalidState, "whitelist cannot change after the sale closed")

	ErrAmountOutOfRange = newErr(KindValidation, "amount outside buy limits")

	ErrTxImmutable = newErr(KindInternal, "transactions are append-only")
)

// Invalid builds a validation error naming the first offending field.
func Invalid(msg string) error {
	return newErr(KindValidation, msg)
}

// KindOf returns the Kind of err, or KindInternal when err is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
