package ratelimit

import (
	"fmt"
	"hash/fnv"
	"net"
	"net/http"
	"strings"
)

// ClientKey derives a rate-limit identifier for a request: the first
// proxy-forwarded address when present, then the direct peer address, and
// as a last resort a user-agent/locale fingerprint.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(r.UserAgent()))
	_, _ = h.Write([]byte(r.Header.Get("Accept-Language")))
	return fmt.Sprintf("fp:%08x", h.Sum32())
}
