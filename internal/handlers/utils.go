package handlers

import (
	"net"
	"net/http"
	"strings"
)

// inviteToken extracts the invite from the "invite" query parameter, a Bearer
// Authorization header, or an "invite" cookie, in that order.
func inviteToken(r *http.Request) string {
	if tok := r.URL.Query().Get("invite"); tok != "" {
		return tok
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie("invite"); err == nil {
		return c.Value
	}
	return ""
}

// isLoopback reports whether the request came from this machine.
func isLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
