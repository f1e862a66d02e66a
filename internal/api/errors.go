package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies gateway failures.
type ErrorKind int

const (
	// KindOther covers request construction and unexpected failures.
	KindOther ErrorKind = iota
	// KindNetwork means no response was received (refused, DNS, timeout).
	KindNetwork
	// KindServer means the backend answered with an error status.
	KindServer
	// KindDecode means the backend answered but the body was unusable.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "other"
	}
}

// Error is the uniform failure returned by every Client call.
type Error struct {
	Kind    ErrorKind
	Op      string // e.g. "GET /posts/feed"
	Status  int    // HTTP status for KindServer
	Message string // server-provided message, when any
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		if e.Message != "" {
			return fmt.Sprintf("api %s returned status %d: %s", e.Op, e.Status, e.Message)
		}
		return fmt.Sprintf("api %s returned status %d", e.Op, e.Status)
	case KindNetwork:
		return fmt.Sprintf("execute request %s: %v", e.Op, e.Err)
	case KindDecode:
		return fmt.Sprintf("decode response %s: %v", e.Op, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("api %s: %v", e.Op, e.Err)
		}
		return fmt.Sprintf("api %s failed", e.Op)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err is a transport failure with no response.
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}

// IsStatus reports whether err is a server error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindServer && apiErr.Status == status
}

// UserMessage returns the server-provided message carried by err, or
// fallback when there is none.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
	}
	return fallback
}
