package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

// Client is the request-side identity the key builders consume. The
// HTTP layer adapts its request context to this; the limiter itself
// never touches a request.
type Client interface {
	// UserID returns the authenticated user id, or 0 for anonymous
	// callers.
	UserID() int64
	// Header returns the named request header, or "" when absent.
	Header(name string) string
	// RemoteAddr returns the direct connection address (host or
	// host:port).
	RemoteAddr() string
}

// HashKey returns the hex sha256 digest of a logical key, suitable for
// logs and events where the raw key must not appear.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}

// ForUser builds a per-identity logical key for an action, namespaced
// by user id. Anonymous callers (id 0) fall back to the per-IP key.
func ForUser(c Client, action string) string {
	id := c.UserID()
	if id == 0 {
		return ForIP(c, action)
	}

	return fmt.Sprintf("user_%d_%s", id, action)
}

// ForIP builds a per-client-address logical key for an action. The
// address is hashed so raw client identifiers never become cache keys.
func ForIP(c Client, action string) string {
	sum := sha256.Sum256([]byte(clientIP(c)))

	return fmt.Sprintf("ip_%s_%s", hex.EncodeToString(sum[:]), action)
}

// clientIP resolves the client address, preferring proxy headers over
// the connection address. Each candidate must parse as an IP before it
// is trusted; loopback is the fallback when nothing does.
func clientIP(c Client) string {
	if ip := c.Header("CF-Connecting-IP"); validIP(ip) {
		return ip
	}

	if xff := c.Header("X-Forwarded-For"); xff != "" {
		// Take the first entry (original client)
		first := xff
		if idx := strings.Index(xff, ","); idx != -1 {
			first = xff[:idx]
		}

		if ip := strings.TrimSpace(first); validIP(ip) {
			return ip
		}
	}

	if ip := c.Header("X-Real-IP"); validIP(ip) {
		return ip
	}

	addr := c.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	if validIP(addr) {
		return addr
	}

	return "127.0.0.1"
}

func validIP(s string) bool {
	return net.ParseIP(s) != nil
}
