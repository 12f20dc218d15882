package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/npezzotti/campus-courier/internal/database"
	"github.com/npezzotti/campus-courier/internal/delivery"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    lower(http.StatusText(http.StatusBadRequest)),
	}
}

// NewBadRequestMessage is a 400 whose message tells the user what to fix.
func NewBadRequestMessage(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    msg,
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    lower(http.StatusText(http.StatusNotFound)),
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewUnauthorizedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
	}
}

func NewForbiddenError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Message:    lower(http.StatusText(http.StatusForbidden)),
	}
}

// errorFor maps pipeline and storage errors onto API errors. Client errors
// keep the pipeline's message so the user knows what went wrong.
func errorFor(err error) *ApiError {
	var apiErr *ApiError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, delivery.ErrNotFound), errors.Is(err, database.ErrNotFound):
		return NewNotFoundError()
	case errors.Is(err, delivery.ErrForbidden):
		return NewForbiddenError()
	case errors.Is(err, delivery.ErrInvalidState), errors.Is(err, delivery.ErrInvalidArgument):
		return NewBadRequestMessage(err.Error())
	default:
		return NewInternalServerError(err)
	}
}
