package middleware

import (
	"net/http"
	"strings"
)

// UnknownIdentity is the shared bucket for requests that carry no forwarding headers.
const UnknownIdentity = "unknown"

// ClientIdentity resolves the caller from X-Forwarded-For (first entry), then
// X-Real-IP, then UnknownIdentity. RemoteAddr is never consulted.
func ClientIdentity(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownIdentity
}
