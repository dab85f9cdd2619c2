package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	// Malformed client input. These map to a client-facing rejection.
	ErrMissingTopic     ErrorKind = "missing_topic"
	ErrUnknownTopic     ErrorKind = "unknown_topic"
	ErrInvalidParameter ErrorKind = "invalid_parameter"
	ErrUnconfiguredKey  ErrorKind = "unconfigured_key"
	ErrInvalidKeyValue  ErrorKind = "invalid_key_value"

	ErrConfig   ErrorKind = "config"
	ErrSQL      ErrorKind = "sql"
	ErrIO       ErrorKind = "io"
	ErrCanceled ErrorKind = "canceled" // caller gave up or its deadline passed
)

// Error is the structured error used across moneta. The context fields are
// populated when known so a failure can be diagnosed without the logs.
type Error struct {
	Kind    ErrorKind
	Message string

	Path  string // original request path
	Topic string // resolved topic name or the requested token
	Param string // request parameter name
	Value string // offending raw value
	Field string // key column

	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if ctx := e.contextString(); ctx != "" {
		base = fmt.Sprintf("%s (%s)", base, ctx)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) contextString() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("topic", e.Topic)
	add("param", e.Param)
	add("field", e.Field)
	add("value", e.Value)
	add("path", e.Path)
	return strings.Join(parts, " ")
}

// Context returns the populated diagnostic fields keyed by name.
func (e *Error) Context() map[string]string {
	out := make(map[string]string, 5)
	for k, v := range map[string]string{
		"path":  e.Path,
		"topic": e.Topic,
		"param": e.Param,
		"value": e.Value,
		"field": e.Field,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsClientError reports whether the kind describes malformed client input.
func (k ErrorKind) IsClientError() bool {
	switch k {
	case ErrMissingTopic, ErrUnknownTopic, ErrInvalidParameter, ErrUnconfiguredKey, ErrInvalidKeyValue:
		return true
	default:
		return false
	}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func MissingTopic(path string) *Error {
	return &Error{Kind: ErrMissingTopic, Message: "search topic not provided in request path", Path: path}
}

func UnknownTopic(token, path string) *Error {
	return &Error{Kind: ErrUnknownTopic, Message: "topic not configured", Topic: token, Value: token, Path: path}
}

func InvalidParameter(name, raw, topic, path string, cause error) *Error {
	return &Error{
		Kind:    ErrInvalidParameter,
		Message: "invalid request parameter",
		Param:   name,
		Value:   raw,
		Topic:   topic,
		Path:    path,
		Cause:   cause,
	}
}

func UnconfiguredKey(segment, topic, path string) *Error {
	return &Error{
		Kind:    ErrUnconfiguredKey,
		Message: "search key in request path not configured for topic",
		Value:   segment,
		Topic:   topic,
		Path:    path,
	}
}

func InvalidKeyValue(segment, field, topic, path string, cause error) *Error {
	return &Error{
		Kind:    ErrInvalidKeyValue,
		Message: "search key is not a valid number",
		Value:   segment,
		Field:   field,
		Topic:   topic,
		Path:    path,
		Cause:   cause,
	}
}

func ConfigError(msg string) *Error {
	return &Error{Kind: ErrConfig, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
