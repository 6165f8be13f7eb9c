package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/freightdesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

// RateLimiterStore counts hits per scope inside a fixed window.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy defines the throttling parameters for a traffic surface.
type RateLimitPolicy struct {
	name      string
	window    time.Duration
	ipLimit   int
	userLimit int
}

// NewRateLimitPolicy builds a policy with the supplied window and limits.
// A zero limit disables that dimension.
func NewRateLimitPolicy(name string, window time.Duration, ipLimit, userLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:      strings.ToLower(strings.TrimSpace(name)),
		window:    window,
		ipLimit:   ipLimit,
		userLimit: userLimit,
	}
}

// UploadRateLimitPolicy throttles file uploads per user per minute.
func UploadRateLimitPolicy(perMinute int) RateLimitPolicy {
	return NewRateLimitPolicy("uploads", time.Minute, 0, perMinute)
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.userLimit > 0)
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "default"
	}
	return p.name
}

func (p RateLimitPolicy) ipScope(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("ip:%s:%s", p.normalizedName(), ip)
}

func (p RateLimitPolicy) userScope(userID string) string {
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("user:%s:%s", p.normalizedName(), userID)
}

// RateLimit enforces per-IP and per-user fixed-window counters. The per-user
// dimension needs Auth to run first.
func RateLimit(policy RateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				ip := clientIP(r)
				if scope := policy.ipScope(ip); scope != "" {
					if allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.ipLimit), policy.window); err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "ip", count, policy.ipLimit)
						return
					}
				}
			}

			if policy.userLimit > 0 {
				if scope := policy.userScope(UserIDFromContext(ctx)); scope != "" {
					if allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.userLimit), policy.window); err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "user", count, policy.userLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, scope string, count int64, limit int) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		})
		logg.Warn(logCtx, "rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
