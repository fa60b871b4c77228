package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds surfaced by resource clients. Match with errors.Is.
var (
	ErrTransport  = errors.New("transport error")
	ErrAuth       = errors.New("not authenticated")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrServer     = errors.New("server error")
)

// APIError is a classified failure of one gateway call.
type APIError struct {
	Kind    error
	Op      string
	Status  int    // 0 when no response was received
	Message string // server-provided message, if any
	Err     error  // underlying cause for transport and decode failures
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Status != 0 && msg != "":
		return fmt.Sprintf("%s: %v (status %d): %s", e.Op, e.Kind, e.Status, msg)
	case e.Status != 0:
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Kind, e.Status)
	case msg != "":
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindForStatus maps an HTTP status to a failure kind. 2xx returns nil.
func KindForStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status == http.StatusNotFound:
		return ErrNotFound
	}
	return ErrServer
}

// ValidationError builds a client-side precondition failure.
func ValidationError(msg string) error {
	return &APIError{Kind: ErrValidation, Op: "validate", Message: msg}
}

// UserMessage returns the server-provided message carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
