package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/seifpharma/storefront-gateway/api/responses"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit throttles a route with a per-IP fixed window. A limiter
// failure lets the request through rather than blocking sign-in on a
// redis outage.
func RateLimit(scope string, limit int64, window time.Duration, limiter rateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			allowed, count, err := limiter.FixedWindowAllow(ctx, scope+":"+clientIP(r), limit, window)
			if err != nil {
				if logg != nil {
					logg.Warn(ctx, "rate limiter unavailable: "+err.Error())
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					ctx = logg.WithField(ctx, "rate_limit_count", count)
					logg.Warn(ctx, "rate limit exceeded for "+scope)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
