package errs

import (
	"errors"
	"net/http"
)

// Ошибки чата: верификация личности, валидация, хранилище, доставка.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnknownSubject    = errors.New("unknown subject")
	ErrValidation        = errors.New("validation error")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrConnectionLost    = errors.New("connection lost")
)

// Ошибки токенов и аккаунтов.
var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmptyPasswordHash  = errors.New("empty password hash")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidIssuer      = errors.New("invalid issuer")
	ErrInvalidAudience    = errors.New("invalid audience")
	ErrTokenExpired       = errors.New("token expired or not valid yet")
	ErrInvalidSubject     = errors.New("invalid subject")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user account is inactive")
)

// Ошибки репозиториев и загрузок.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrUnsupportedMedia = errors.New("unsupported file type")
	ErrTooLarge         = errors.New("file too large")
)

func ToHTTP(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidCredential),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInactiveUser):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnknownSubject), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrPasswordTooShort):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsAuth: ошибки, после которых real-time сессия закрывается.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrUnknownSubject)
}
