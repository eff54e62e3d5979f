package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/respond"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/metrics"
)

// RateLimitMW limits requests per client address and route in fixed windows.
type RateLimitMW struct {
	repo   domain.RateLimitRepository
	window time.Duration
	max    int64
	log    *slog.Logger
}

// NewRateLimitMW creates the limiter.
func NewRateLimitMW(repo domain.RateLimitRepository, window time.Duration, max int, log *slog.Logger) *RateLimitMW {
	return &RateLimitMW{repo: repo, window: window, max: int64(max), log: log}
}

// WithMax returns a limiter sharing the store and window with a different budget.
func (mw *RateLimitMW) WithMax(max int) *RateLimitMW {
	out := *mw
	out.max = int64(max)
	return &out
}

// Limit rejects the request with 429 once the window's budget is spent.
// When the counter store is unreachable requests are let through.
func (mw *RateLimitMW) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := c.Request.Method + ":" + route + ":" + c.ClientIP()

		count, err := mw.repo.Hit(c.Request.Context(), key, mw.window)
		if err != nil {
			mw.log.WarnContext(c.Request.Context(), "rate limiter unavailable", "route", route, "error", err)
			c.Next()
			return
		}

		remaining := mw.max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(mw.max, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > mw.max {
			metrics.RateLimitedTotal.WithLabelValues(route).Inc()
			c.Header("Retry-After", strconv.Itoa(int(mw.window.Seconds())))
			respond.Abort(c, domain.ErrRateLimited)
			return
		}
		c.Next()
	}
}
