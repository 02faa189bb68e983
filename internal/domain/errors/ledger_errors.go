package errors

import (
	"errors"
	"fmt"

	apperrors "github.com/cvtoletter/backend/pkg/errors"
)

// Kind classifies ledger and reconciliation failures.
type Kind string

const (
	KindUnauthenticated         Kind = "UNAUTHENTICATED"
	KindInvalidReference        Kind = "INVALID_REFERENCE"
	KindProviderUnverifiable    Kind = "PROVIDER_UNVERIFIABLE"
	KindProviderUnavailable     Kind = "PROVIDER_UNAVAILABLE"
	KindResolutionIndeterminate Kind = "RESOLUTION_INDETERMINATE"
	KindPaymentPending          Kind = "PAYMENT_PENDING"
	KindPaymentRejected         Kind = "PAYMENT_REJECTED"
	KindStorageConflict         Kind = "STORAGE_CONFLICT"
	KindStorageFatal            Kind = "STORAGE_FATAL"
	KindInsufficientCredits     Kind = "INSUFFICIENT_CREDITS"
)

var kindCodes = map[Kind]string{
	KindUnauthenticated:         apperrors.ErrUnauthenticated,
	KindInvalidReference:        apperrors.ErrInvalidArgument,
	KindProviderUnverifiable:    apperrors.ErrInvalidArgument,
	KindProviderUnavailable:     apperrors.ErrBadGateway,
	KindResolutionIndeterminate: apperrors.ErrUnprocessable,
	KindPaymentPending:          apperrors.ErrAccepted,
	KindPaymentRejected:         apperrors.ErrUnprocessable,
	KindStorageConflict:         apperrors.ErrConflict,
	KindStorageFatal:            apperrors.ErrInternal,
	KindInsufficientCredits:     apperrors.ErrPaymentRequired,
}

var retriableKinds = map[Kind]bool{
	KindProviderUnavailable: true,
	KindPaymentPending:      true,
	KindStorageConflict:     true,
}

// LedgerError is the typed error returned by the credit ledger and the
// reconciliation flow. Reference is the checkout session or account it concerns.
type LedgerError struct {
	Kind      Kind
	Message   string
	Reference string
	Cause     error
}

func (e *LedgerError) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Reference != "" {
		msg += fmt.Sprintf(" (ref: %s)", e.Reference)
	}
	if e.Cause != nil {
		msg += " - " + e.Cause.Error()
	}
	return msg
}

// ClientMessage omits the cause, which may carry provider or database detail.
func (e *LedgerError) ClientMessage() string {
	if e.Reference != "" {
		return e.Message + " (ref: " + e.Reference + ")"
	}
	return e.Message
}

func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// Code maps the kind onto the shared error code table.
func (e *LedgerError) Code() string {
	if code, ok := kindCodes[e.Kind]; ok {
		return code
	}
	return apperrors.ErrInternal
}

// Retriable reports whether the same call may succeed later.
func (e *LedgerError) Retriable() bool {
	return retriableKinds[e.Kind]
}

// Is matches on Kind so errors.Is(err, &LedgerError{Kind: KindInvalidReference}) works.
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Reference == ""
}

// KindOf returns the kind of the first LedgerError in err's chain, or "".
func KindOf(err error) Kind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsKind reports whether err carries a LedgerError of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetriable reports whether err is a retriable LedgerError.
func IsRetriable(err error) bool {
	var le *LedgerError
	return errors.As(err, &le) && le.Retriable()
}

func newLedgerError(kind Kind, ref, message string, cause error) *LedgerError {
	return &LedgerError{Kind: kind, Message: message, Reference: ref, Cause: cause}
}

func NewUnauthenticatedError(message string) *LedgerError {
	return newLedgerError(KindUnauthenticated, "", message, nil)
}

func NewInvalidReferenceError(ref, message string) *LedgerError {
	return newLedgerError(KindInvalidReference, ref, message, nil)
}

func NewProviderUnverifiableError(ref string, cause error) *LedgerError {
	return newLedgerError(KindProviderUnverifiable, ref, "payment provider data could not be verified", cause)
}

func NewProviderUnavailableError(ref string, cause error) *LedgerError {
	return newLedgerError(KindProviderUnavailable, ref, "payment provider unavailable", cause)
}

func NewResolutionIndeterminateError(ref string) *LedgerError {
	return newLedgerError(KindResolutionIndeterminate, ref, "could not determine credits for payment", nil)
}

func NewPaymentPendingError(ref, status string) *LedgerError {
	return newLedgerError(KindPaymentPending, ref, "payment not completed yet: "+status, nil)
}

func NewPaymentRejectedError(ref, status string) *LedgerError {
	return newLedgerError(KindPaymentRejected, ref, "payment will not complete: "+status, nil)
}

func NewStorageConflictError(ref string, cause error) *LedgerError {
	return newLedgerError(KindStorageConflict, ref, "concurrent update conflict", cause)
}

func NewStorageFatalError(ref string, cause error) *LedgerError {
	return newLedgerError(KindStorageFatal, ref, "storage failure", cause)
}

func NewInsufficientCreditsError(accountID string, available int64) *LedgerError {
	return newLedgerError(KindInsufficientCredits, accountID, fmt.Sprintf("insufficient credits: available %d", available), nil)
}

// Sentinel lookups
var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrCheckoutSessionNotFound = errors.New("checkout session not found")
	ErrPackageNotFound         = errors.New("credit package not found")
)
