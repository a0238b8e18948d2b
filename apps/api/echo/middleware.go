package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/services/monitoring"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// metricsMiddleware records every request by its route. Errors are handled here so that the
// recorded status is the one sent to the client.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			monitoring.ObserveRequest(ctx.Request().Method, route, ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}

// loginRateLimiter counts login attempts per client IP within a fixed window.
type loginRateLimiter struct {
	limit  int
	window time.Duration
	hits   *cache.Cache
}

func newLoginRateLimiter(conf *core.Config) *loginRateLimiter {
	window := conf.Server.LoginRateWindow
	if window <= 0 {
		window = time.Minute
	}
	return &loginRateLimiter{
		limit:  conf.Server.LoginRateLimit,
		window: window,
		hits:   cache.New(window, 2*window),
	}
}

// allow records an attempt of key and reports whether it is within the limit. A limit <= 0 disables it.
func (l *loginRateLimiter) allow(key string) bool {
	if l.limit <= 0 {
		return true
	}
	if err := l.hits.Add(key, 1, l.window); err == nil {
		return true
	}
	n, err := l.hits.IncrementInt(key, 1)
	if err != nil { // expired between Add and IncrementInt
		l.hits.Set(key, 1, l.window)
		return true
	}
	return n <= l.limit
}

func (l *loginRateLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !l.allow(ctx.RealIP()) {
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
				return errTooManyAttempts
			}
			return next(ctx)
		}
	}
}
