package provider

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Error is a backend failure. Code carries a machine error code when the
// failure originated in the network stack, and is empty otherwise.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(msg string) *Error {
	return &Error{Message: msg}
}

// wrapTransport converts a transport-level failure into an Error with a
// machine code so it can be recognized as a connectivity problem.
func wrapTransport(err error) *Error {
	return &Error{Code: errorCode(err), Message: err.Error()}
}

// errorCode maps a Go network error to the conventional errno-style code
// string used by the error classifier.
func errorCode(err error) string {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return "ECONNREFUSED"
	case errors.Is(err, syscall.ECONNRESET):
		return "ECONNRESET"
	case errors.Is(err, syscall.ENETUNREACH):
		return "ENETUNREACH"
	case errors.Is(err, context.DeadlineExceeded):
		return "ETIMEDOUT"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTemporary {
			return "EAI_AGAIN"
		}
		return "ENOTFOUND"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ETIMEDOUT"
	}

	return ""
}
