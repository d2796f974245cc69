package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/szamlaconv/internal/core"
)

// clientIP returns the request's client address without the port.
// RemoteAddr has already been rewritten by TrustedRealIP.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// withRequestMetadata adds the client IP to the context for the export history.
func withRequestMetadata(r *http.Request) context.Context {
	return core.ContextWithClientIP(r.Context(), clientIP(r))
}
