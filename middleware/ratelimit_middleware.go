package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/modelplane/router/services/ratelimit"
	"github.com/modelplane/router/utils"
)

// RateLimitMiddleware applies the per-caller sliding window limiter
type RateLimitMiddleware struct {
	limiter *ratelimit.Service
	logger  *zap.Logger
	enabled bool
}

// NewRateLimitMiddleware creates a rate limit middleware
func NewRateLimitMiddleware(limiter *ratelimit.Service, logger *zap.Logger, enabled bool) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
		enabled: enabled,
	}
}

// Limit enforces the rate limit keyed by authenticated subject, falling
// back to the remote address for anonymous callers. Mount after
// RequireAuth so the subject is available.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := GetSubjectFromContext(r.Context())
		if key == "" || key == "anonymous" {
			key = r.RemoteAddr
		}

		result := m.limiter.Allow(key)
		if !result.Allowed {
			m.logger.Warn("request rate limited",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("key", key))
			_ = utils.WriteTooManyRequests(w, "", map[string]interface{}{
				"reset_at": result.ResetAt,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
