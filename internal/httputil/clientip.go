// Package httputil holds small helpers shared by the HTTP handlers and
// middleware.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address for request logs. With trustProxy
// the leftmost X-Forwarded-For entry, then X-Real-IP, is used when it
// parses as an IP; otherwise the host part of RemoteAddr.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
