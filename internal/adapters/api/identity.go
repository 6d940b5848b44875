package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/Richwell111/auth2/internal/core/domain"
	"github.com/Richwell111/auth2/internal/core/ports"
)

// ResolveIdentity determines the acting identity for a request: the
// session's subject id when a valid session exists, else the client
// address, else the loopback fallback. Never empty.
func ResolveIdentity(r *http.Request, sessions ports.SessionVerifier) domain.IdentityKey {
	if subjectID, ok := sessions.Session(r.Context(), r.Header); ok && subjectID != "" {
		return domain.IdentityKey(subjectID)
	}
	if addr := clientAddr(r); addr != "" {
		return domain.IdentityKey(addr)
	}
	return domain.FallbackIdentity
}

// clientAddr extracts the client address from trusted proxy headers,
// falling back to the connection's remote address.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop is the original client.
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
