package adapter

import (
	"errors"
	"net/http"
	"strings"

	"model-emulator/internal/provider"
)

// networkCodes are machine error codes that always mean the backend is
// unreachable, regardless of the message text.
var networkCodes = map[string]bool{
	"ECONNREFUSED": true,
	"ENOTFOUND":    true,
	"ETIMEDOUT":    true,
	"ECONNRESET":   true,
	"ENETUNREACH":  true,
	"EAI_AGAIN":    true,
}

// classifications are tried in order against the lowercased message.
// The order encodes priority among overlapping keywords: "invalid
// token" must classify as an auth failure, not an invalid request.
var classifications = []struct {
	status int
	typ    string
	terms  []string
}{
	{http.StatusServiceUnavailable, "service_unavailable", []string{"network", "timeout", "connect", "offline", "unavailable", "empty response"}},
	{http.StatusUnauthorized, "authentication_error", []string{"auth", "token", "unauthorized", "api key"}},
	{http.StatusForbidden, "permission_error", []string{"permission", "forbidden"}},
	{http.StatusTooManyRequests, "rate_limit_error", []string{"rate", "limit", "quota"}},
	{http.StatusBadRequest, "invalid_request_error", []string{"invalid", "bad request"}},
	{http.StatusNotFound, "not_found_error", []string{"not found"}},
}

// Classify maps a raw backend failure to an HTTP status code and OpenAI
// error type. Backend errors arrive as free text with no stable
// taxonomy, so beyond the machine codes this is substring sniffing.
func Classify(err error) (int, string) {
	var backendErr *provider.Error
	if errors.As(err, &backendErr) && networkCodes[backendErr.Code] {
		return http.StatusServiceUnavailable, "service_unavailable"
	}

	message := strings.ToLower(err.Error())
	for _, c := range classifications {
		for _, term := range c.terms {
			if strings.Contains(message, term) {
				return c.status, c.typ
			}
		}
	}

	return http.StatusInternalServerError, "internal_server_error"
}
