package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tilequote/quote-api/internal/auth"
	"github.com/tilequote/quote-api/internal/config"
	"go.uber.org/zap"
)

// RateLimiter holds rate limiting middleware and configuration
type RateLimiter struct {
	cfg            *config.RateLimitConfig
	logger         *zap.Logger
	ipLimiter      func(http.Handler) http.Handler
	userLimiter    func(http.Handler) http.Handler
	extractLimiter func(http.Handler) http.Handler
	whitelistIPs   map[string]bool
	whitelistPaths map[string]bool
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:            cfg,
		logger:         logger,
		whitelistIPs:   make(map[string]bool),
		whitelistPaths: make(map[string]bool),
	}

	for _, ip := range cfg.WhitelistIPs {
		rl.whitelistIPs[ip] = true
	}
	for _, path := range cfg.WhitelistPaths {
		rl.whitelistPaths[path] = true
	}

	rl.ipLimiter = rl.newLimiter(cfg.RequestsPerMinute, httprate.KeyByIP)
	rl.userLimiter = rl.newLimiter(cfg.RequestsPerMinute, rl.keyByUserOrIP)

	// extraction calls a paid model, so it gets its own tighter budget
	extractionPerMinute := cfg.ExtractionPerMinute
	if extractionPerMinute <= 0 {
		extractionPerMinute = 10
	}
	rl.extractLimiter = rl.newLimiter(extractionPerMinute, rl.keyByUserOrIP)

	logger.Info("Rate limiter initialized",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Int("extraction_per_minute", extractionPerMinute),
		zap.Strings("whitelist_ips", cfg.WhitelistIPs),
		zap.Strings("whitelist_paths", cfg.WhitelistPaths),
	)

	return rl
}

// Limit keys authenticated requests by subject and anonymous ones by client IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	byUser := rl.userLimiter(next)
	byIP := rl.ipLimiter(next)
	return rl.guard(next, true, func(r *http.Request) http.Handler {
		if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx != nil {
			return byUser
		}
		return byIP
	})
}

// LimitByIP is for routes mounted before authentication, such as login.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	byIP := rl.ipLimiter(next)
	return rl.guard(next, true, func(*http.Request) http.Handler { return byIP })
}

// LimitExtraction applies the extraction budget. Mount it on the extraction routes only.
// Path whitelisting does not apply here.
func (rl *RateLimiter) LimitExtraction(next http.Handler) http.Handler {
	limited := rl.extractLimiter(next)
	return rl.guard(next, false, func(*http.Request) http.Handler { return limited })
}

// guard skips limiting when disabled or whitelisted and otherwise hands the
// request to the limiter chosen by pick.
func (rl *RateLimiter) guard(next http.Handler, honourPaths bool, pick func(*http.Request) http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (honourPaths && rl.isPathWhitelisted(r.URL.Path)) || rl.whitelistIPs[rl.getClientIP(r)] {
			next.ServeHTTP(w, r)
			return
		}
		pick(r).ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) newLimiter(perMinute int, key httprate.KeyFunc) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(rl.rateLimitExceededHandler),
	)
}

// keyByUserOrIP returns the user subject for authenticated requests, or IP for unauthenticated
func (rl *RateLimiter) keyByUserOrIP(r *http.Request) (string, error) {
	if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx != nil {
		return "user:" + userCtx.Subject, nil
	}
	return "ip:" + rl.getClientIP(r), nil
}

// getClientIP extracts the client IP from the request
func (rl *RateLimiter) getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// isPathWhitelisted checks if the path is in the whitelist
func (rl *RateLimiter) isPathWhitelisted(path string) bool {
	if rl.whitelistPaths[path] {
		return true
	}

	// entries ending in /* match by prefix
	for wp := range rl.whitelistPaths {
		if strings.HasSuffix(wp, "/*") {
			prefix := strings.TrimSuffix(wp, "/*")
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}

	return false
}

// rateLimitExceededHandler handles rate limit exceeded responses
func (rl *RateLimiter) rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	key, _ := rl.keyByUserOrIP(r)
	rl.logger.Warn("rate limit exceeded",
		zap.String("key", key),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	w.Header().Set("Retry-After", "60")
	respondJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":   "Too Many Requests",
		"message": "Too many requests, try again in a minute.",
	})
}
