package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidData = errors.New("invalid data")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned when the target row or user is absent.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// UpstreamError is returned when a call to an external store failed.
// Its message is forwarded to API clients.
type UpstreamError struct {
	Store string
	Op    string
	Err   error
}

func NewUpstreamError(store, op string, err error) error {
	return &UpstreamError{Store: store, Op: op, Err: err}
}

func (err UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", err.Store, err.Op, err.Err)
}

func (err UpstreamError) Unwrap() error { return err.Err }

// ConfigError is returned by every handler depending on configuration that is not set.
type ConfigError struct {
	Keys []string
}

func NewConfigError(keys ...string) error {
	return &ConfigError{Keys: keys}
}

func (err ConfigError) Error() string {
	return "missing configuration: " + strings.Join(err.Keys, ", ")
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
