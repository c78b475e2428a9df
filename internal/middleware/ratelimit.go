package middleware

import (
	"sync"
	"tafaseel/internal/apperr"
	"tafaseel/internal/config"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per account.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[uint]*rate.Limiter
}

func NewRateLimiter(cfg *config.RateLimit) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(cfg.PromptsPerMinute / 60),
		burst:    cfg.Burst,
		limiters: make(map[uint]*rate.Limiter),
	}
}

func (l *RateLimiter) limiter(accountID uint) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[accountID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[accountID] = limiter
	}
	return limiter
}

// Middleware must run after Authenticate.
func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account := CurrentAccount(c)
			if account == nil {
				return apperr.Unauthenticated("Authentication credentials were not provided.")
			}

			if !l.limiter(account.ID).Allow() {
				return apperr.RateLimited()
			}
			return next(c)
		}
	}
}
