package domain

import "errors"

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrMalformedMessage = errors.New("malformed message")

	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrChatNotFound    = errors.New("chat not found")
	ErrOrderNotFound   = errors.New("order not found")

	ErrInvalidEmail        = errors.New("invalid email")
	ErrEmailDomain         = errors.New("email domain not allowed")
	ErrEmailTaken          = errors.New("email already registered")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidDeliveryCode = errors.New("invalid delivery code")

	ErrInvalidInput       = errors.New("invalid input")
	ErrSelfChat           = errors.New("cannot start a chat on your own product")
	ErrSelfOrder          = errors.New("cannot order your own product")
	ErrMessageTooLong     = errors.New("message too long")
	ErrInvalidOrderStatus = errors.New("invalid order status transition")
	ErrNotDeliveryStaff   = errors.New("user is not delivery staff")
)
