package http

import (
	"errors"
	"net/http"

	"github.com/polimarket/market-service/internal/domain"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrInvalidDeliveryCode),
		errors.Is(err, domain.ErrNotDeliveryStaff):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrChatNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrInvalidOrderStatus):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmailDomain),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrSelfChat),
		errors.Is(err, domain.ErrSelfOrder),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrMalformedMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the sentinel's text so wrapped details stay server side.
func messageFor(err error) string {
	for _, s := range []error{
		domain.ErrUnauthenticated, domain.ErrInvalidCredentials,
		domain.ErrForbidden, domain.ErrInvalidDeliveryCode, domain.ErrNotDeliveryStaff,
		domain.ErrUserNotFound, domain.ErrProductNotFound, domain.ErrChatNotFound, domain.ErrOrderNotFound,
		domain.ErrEmailTaken, domain.ErrInvalidOrderStatus,
		domain.ErrInvalidEmail, domain.ErrEmailDomain, domain.ErrPasswordTooShort,
		domain.ErrSelfChat, domain.ErrSelfOrder, domain.ErrMessageTooLong,
		domain.ErrMalformedMessage, domain.ErrInvalidInput,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}

	return err.Error()
}
