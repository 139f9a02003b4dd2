package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/jwtauth/pkg/authsdk"
	"github.com/aussiebroadwan/jwtauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: RequestsPerWindow refill per Window, at
// most Burst at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) limit() rate.Limit {
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// Profiles, overridable with RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit guards credential checks on /token.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards /token/validate.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards authenticated reads and health probes.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit guards static public content such as the API docs.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", PublicLimit)
}

// ParseRateLimitFromEnv overrides def with RATELIMIT_{prefix}_REQUESTS,
// RATELIMIT_{prefix}_WINDOW_SEC and RATELIMIT_{prefix}_BURST. Values that are
// not positive integers are ignored.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	positive := func(field string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv("RATELIMIT_" + prefix + "_" + field))
		return n, err == nil && n > 0
	}

	cfg := def
	if n, ok := positive("REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

// KeyExtractor groups requests into buckets. An empty key means the request
// is not limited.
type KeyExtractor func(*http.Request) string

// ClientIP resolves the address a request came from. Forwarding headers
// are client-controlled, so they are only read when the direct peer is one
// of the Trusted proxies.
type ClientIP struct {
	Trusted []netip.Prefix
}

// ParseTrustedProxies reads CIDRs or bare addresses.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("httpx: trusted proxy %q: %w", e, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("httpx: trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (c ClientIP) trusts(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range c.Trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Key returns the client address. Behind trusted proxies it is the
// right-most X-Forwarded-For hop that is not itself a trusted proxy, or
// X-Real-IP when no X-Forwarded-For is present.
func (c ClientIP) Key(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil || !c.trusts(addr) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			hopAddr, err := netip.ParseAddr(hop)
			if err != nil {
				// Anything left of an unparsable hop is unverifiable.
				break
			}
			if !c.trusts(hopAddr) || i == 0 {
				return hopAddr.Unmap().String()
			}
		}
		return peer
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return peer
}

// IPKeyExtractor keys on the direct peer address and ignores forwarding
// headers. Use ClientIP with trusted proxies to honour them.
func IPKeyExtractor(r *http.Request) string {
	return ClientIP{}.Key(r)
}

// UserIDKeyExtractor returns "user:<id>" for requests with a resolved identity.
func UserIDKeyExtractor(r *http.Request) string {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10)
	}
	return ""
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// maxPeekBody bounds how much of a JSON body FormFieldKeyExtractor reads.
const maxPeekBody = 64 << 10

// FormFieldKeyExtractor keys on a request parameter, lowercased so that
// case variants of one login share a bucket. Query strings, form bodies and
// top-level string fields of JSON bodies are searched; a JSON body is
// restored so the handler can still read it.
func FormFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		var v string
		switch {
		case isJSON(r) && r.Body != nil:
			if v = peekJSONField(r, fieldName); v == "" {
				v = r.URL.Query().Get(fieldName)
			}
		case r.ParseForm() == nil:
			v = r.FormValue(fieldName)
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func peekJSONField(r *http.Request, fieldName string) string {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	v, _ := fields[fieldName].(string)
	return v
}

// bucket is one key's limiter and when it was last asked.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// bucketSet holds a limiter per key. Buckets idle for longer than it takes
// to refill completely are dropped, since a fresh one behaves the same.
type bucketSet struct {
	cfg  RateLimitConfig
	now  func() time.Time
	idle time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newBucketSet(cfg RateLimitConfig) *bucketSet {
	idle := cfg.Window
	if per := time.Duration(float64(time.Second) / float64(cfg.limit())); per*time.Duration(cfg.Burst) > idle {
		idle = per * time.Duration(cfg.Burst)
	}
	return &bucketSet{
		cfg:       cfg,
		now:       time.Now,
		idle:      idle,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// reserve takes a token for key. When none is available it returns the
// wait until the next one.
func (s *bucketSet) reserve(key string) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.cfg.limit(), s.cfg.Burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := b.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return false, delay
}

func (s *bucketSet) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.idle {
		return
	}
	s.lastSweep = now
	for key, b := range s.buckets {
		if now.Sub(b.lastSeen) >= s.idle {
			delete(s.buckets, key)
		}
	}
}

// RateLimitMiddleware rejects requests over config per key with 429 and
// rest_rate_limit_exceeded.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	buckets := newBucketSet(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			allowed, delay := buckets.reserve(key)
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(delay.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", config.Window.String())

			log.Warn("rate limit exceeded",
				"key", key,
				"endpoint", r.URL.Path,
				"retry_after", retryAfter,
			)

			WriteJSON(w, http.StatusTooManyRequests, authsdk.ErrorResponse{
				Code:    "rest_rate_limit_exceeded",
				Message: "Too many requests. Please try again later.",
				Data:    authsdk.ErrorData{Status: http.StatusTooManyRequests},
			})
		})
	}
}

// RateLimitByIP limits by client address.
func (c ClientIP) RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, c.Key)
}

// RateLimitByUser limits by resolved identity and address together, so
// anonymous callers are limited per address.
func (c ClientIP) RateLimitByUser(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		UserIDKeyExtractor,
		c.Key,
	))
}

// RateLimitByIPAndFormField limits login attempts per address and username.
func (c ClientIP) RateLimitByIPAndFormField(config RateLimitConfig, fieldName string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		c.Key,
		FormFieldKeyExtractor(fieldName),
	))
}

// RateLimitByIP limits by direct peer address.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return ClientIP{}.RateLimitByIP(config)
}

// RateLimitByUser limits by resolved identity and direct peer address.
func RateLimitByUser(config RateLimitConfig) Middleware {
	return ClientIP{}.RateLimitByUser(config)
}

// RateLimitByIPAndFormField limits by direct peer address and fieldName.
func RateLimitByIPAndFormField(config RateLimitConfig, fieldName string) Middleware {
	return ClientIP{}.RateLimitByIPAndFormField(config, fieldName)
}
