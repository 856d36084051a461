// Package apperr описывает типизированные ошибки предметной области.
// Сервисы возвращают *Error, а HTTP-слой переводит Kind в код ответа.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind - категория ошибки
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindResolverUnavailable
	KindAddressNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindResolverUnavailable:
		return "resolver_unavailable"
	case KindAddressNotFound:
		return "address_not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error - ошибка домена с категорией для маппинга в HTTP
type Error struct {
	Kind    Kind
	Message string // безопасно показывать клиенту
	Op      string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus возвращает код ответа для категории ошибки
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindAddressNotFound, KindResolverUnavailable:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// GetKind достает категорию из цепочки ошибок; для нетипизированных - KindInternal
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is проверяет, что в цепочке есть *Error заданной категории
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
