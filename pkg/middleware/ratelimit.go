package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
	"github.com/KelvCodes/real-time-chat-app/pkg/logging"
)

// ProxyTrust is the set of reverse proxies whose X-Forwarded-For header is
// believed. The zero value trusts nobody.
type ProxyTrust struct {
	prefixes []netip.Prefix
}

// NewProxyTrust accepts plain addresses and CIDR ranges.
func NewProxyTrust(log *slog.Logger, entries []string) *ProxyTrust {
	p := &ProxyTrust{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(e); err == nil {
			p.prefixes = append(p.prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(e); err == nil {
			p.prefixes = append(p.prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		log.Warn("proxy trust - ignoring invalid entry", "entry", e)
	}
	return p
}

func (p *ProxyTrust) trusts(ip string) bool {
	if p == nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the socket peer unless that peer is a trusted proxy, in
// which case X-Forwarded-For is walked from the right and the first hop not
// owned by a trusted proxy wins.
func (p *ProxyTrust) ClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !p.trusts(peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !p.trusts(hop) {
			return hop
		}
		peer = hop
	}
	return peer
}

// RateLimit caps requests per client IP over a sliding window. When the
// limiter itself fails the request is let through.
func RateLimit(limiter contracts.RateLimiter, limit int, window time.Duration, proxies *ProxyTrust) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, err := limiter.Allow(r.Context(), proxies.ClientIP(r), limit, window)
			if err != nil {
				logging.FromContext(r.Context()).WarnContext(r.Context(),
					"rate limit - allow - limiter unavailable", logging.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
