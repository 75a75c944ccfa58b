package httpx

import (
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu        sync.Mutex
	perSec    rate.Limit
	burst     int
	buckets   map[string]*bucket
	lastSweep time.Time
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > limiterIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.perSec, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// RateLimit is a per-client token bucket keyed by clientIP (ClientIP(nil)
// when nil). Excess requests get 429 with a Retry-After hint.
func RateLimit(perSecond float64, burst int, clientIP func(*http.Request) string) Stage {
	if clientIP == nil {
		clientIP = ClientIP(nil)
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	l := &ipLimiter{
		perSec:    rate.Limit(perSecond),
		burst:     burst,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
	retryAfter := strconv.Itoa(int(math.Ceil(1 / perSecond)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r), time.Now()) {
				w.Header().Set("Retry-After", retryAfter)
				WriteJSON(w, http.StatusTooManyRequests, ErrorBody{
					Timestamp: time.Now().UTC(),
					Status:    http.StatusTooManyRequests,
					Error:     http.StatusText(http.StatusTooManyRequests),
					Message:   "rate limit exceeded",
					Path:      r.URL.Path,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by their direct peer. X-Forwarded-For is read only
// when the peer is in trusted, and then the right-most hop that is not itself
// trusted is the client.
func ClientIP(trusted []netip.Prefix) func(*http.Request) string {
	isTrusted := func(a netip.Addr) bool {
		for _, p := range trusted {
			if p.Contains(a) {
				return true
			}
		}
		return false
	}
	return func(r *http.Request) string {
		peer := remoteHost(r)
		addr, err := netip.ParseAddr(peer)
		if err != nil || len(trusted) == 0 || !isTrusted(addr.Unmap()) {
			return peer
		}

		var hops []string
		for _, v := range r.Header.Values("X-Forwarded-For") {
			for _, h := range strings.Split(v, ",") {
				if h = strings.TrimSpace(h); h != "" {
					hops = append(hops, h)
				}
			}
		}
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(hops[i])
			if err != nil {
				return peer
			}
			hop = hop.Unmap()
			if !isTrusted(hop) {
				return hop.String()
			}
		}
		if len(hops) > 0 {
			return hops[0]
		}
		return peer
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
