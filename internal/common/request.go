package common

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
)

type ctxKey int

const clientIPKey ctxKey = iota

// WithClientIP stores the resolved client address in ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the address stored by the client-IP middleware, or
// falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return RemoteHost(r)
}

// ResolveClientIP picks the client address. proxyHops is the number of
// trusted proxies in front of the service that append to X-Forwarded-For;
// the client is the entry the outermost of them appended. Entries to the
// left of it are client-supplied and ignored. With zero hops, or when the
// header is shorter than expected, RemoteAddr is used.
func ResolveClientIP(r *http.Request, proxyHops int) string {
	if proxyHops <= 0 {
		return RemoteHost(r)
	}
	var hops []string
	for _, line := range r.Header.Values("X-Forwarded-For") {
		for _, part := range strings.Split(line, ",") {
			hops = append(hops, strings.TrimSpace(part))
		}
	}
	if len(hops) < proxyHops {
		return RemoteHost(r)
	}
	if ip := hops[len(hops)-proxyHops]; net.ParseIP(ip) != nil {
		return ip
	}
	return RemoteHost(r)
}

// RemoteHost strips the port from r.RemoteAddr.
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Paging reads limit/offset query parameters with sane bounds.
func Paging(r *http.Request, defLimit, maxLimit int) (limit, offset int) {
	limit = defLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
