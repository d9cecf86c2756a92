package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	// validation
	KindUnsupportedProvider  ErrorKind = "UNSUPPORTED_PROVIDER"
	KindAmountTooLow         ErrorKind = "AMOUNT_TOO_LOW"
	KindSelfPaymentForbidden ErrorKind = "SELF_PAYMENT_FORBIDDEN"
	KindBeneficiaryNotFound  ErrorKind = "BENEFICIARY_NOT_FOUND"
	KindInvalidAmount        ErrorKind = "INVALID_AMOUNT"
	KindInvalidRequest       ErrorKind = "INVALID_REQUEST"

	// provider
	KindNetworkError        ErrorKind = "NETWORK_ERROR"
	KindProviderRejected    ErrorKind = "PROVIDER_REJECTED"
	KindProviderUnavailable ErrorKind = "PROVIDER_UNAVAILABLE"
	KindRequestInProgress   ErrorKind = "REQUEST_IN_PROGRESS"

	// internal
	KindUnknownProvider ErrorKind = "UNKNOWN_PROVIDER"
	KindInternal        ErrorKind = "INTERNAL_ERROR"
)

type Category string

const (
	CategoryValidation Category = "validation"
	CategoryProvider   Category = "provider"
	CategoryInternal   Category = "internal"
)

func (k ErrorKind) Category() Category {
	switch k {
	case KindUnsupportedProvider, KindAmountTooLow, KindSelfPaymentForbidden,
		KindBeneficiaryNotFound, KindInvalidAmount, KindInvalidRequest:
		return CategoryValidation
	case KindNetworkError, KindProviderRejected, KindProviderUnavailable, KindRequestInProgress:
		return CategoryProvider
	default:
		return CategoryInternal
	}
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindBeneficiaryNotFound:
		return http.StatusNotFound
	case KindSelfPaymentForbidden:
		return http.StatusForbidden
	case KindAmountTooLow, KindInvalidAmount, KindUnsupportedProvider, KindInvalidRequest:
		return http.StatusUnprocessableEntity
	case KindProviderRejected:
		return http.StatusPaymentRequired
	case KindRequestInProgress:
		return http.StatusConflict
	case KindNetworkError:
		return http.StatusBadGateway
	case KindProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a stable kind next to the detailed cause. Only validation messages
// are shown to users; everything else is replaced by a generic text.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so callers can write errors.Is(err, payment.ErrAmountTooLow).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) PublicMessage() string {
	switch e.Kind.Category() {
	case CategoryValidation:
		return e.Message
	case CategoryProvider:
		switch e.Kind {
		case KindProviderRejected:
			return "The payment provider declined the request"
		case KindRequestInProgress:
			return "An identical request is still being processed"
		}
		return "The payment provider is currently unreachable, please retry"
	default:
		return "Something went wrong while creating the payment"
	}
}

var (
	ErrUnsupportedProvider  = &Error{Kind: KindUnsupportedProvider, Message: "provider is not supported"}
	ErrAmountTooLow         = &Error{Kind: KindAmountTooLow, Message: "amount is below the minimum"}
	ErrSelfPaymentForbidden = &Error{Kind: KindSelfPaymentForbidden, Message: "you cannot pay yourself"}
	ErrBeneficiaryNotFound  = &Error{Kind: KindBeneficiaryNotFound, Message: "beneficiary not found"}
	ErrInvalidAmount        = &Error{Kind: KindInvalidAmount, Message: "amount must be positive"}
	ErrUnknownProvider      = &Error{Kind: KindUnknownProvider, Message: "no fee profile for provider"}
	ErrRequestInProgress    = &Error{Kind: KindRequestInProgress, Message: "request in progress"}
)

// AsError classifies err. Context errors become network errors, anything
// unrecognised becomes an internal error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(KindNetworkError, "provider call timed out", err)
	}
	return NewError(KindInternal, "unexpected error", err)
}
