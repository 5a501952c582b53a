// Package app contains the web front-end.
package app

import (
	"embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"

	"github.com/stolasapp/journal/internal/app/component"
	"github.com/stolasapp/journal/internal/config"
	"github.com/stolasapp/journal/internal/sec"
	"github.com/stolasapp/journal/internal/storage"
)

//go:embed static
var staticFiles embed.FS

const (
	csrfContextKey = "csrf"
	csrfCookieName = "_csrf"
	csrfHeader     = "X-CSRF-Token"

	maxBodySize = "1M"

	loginLimiterExpiry = 3 * time.Minute
)

// New creates a web front-end server.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	entries storage.Entries,
) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)

	tickets := sec.NewTickets(cfg)
	creds := sec.NewCredentials(cfg.AdminUsername, []byte(cfg.AdminPasswordHash))
	h := handler{
		entries: entries,
		creds:   creds,
		tickets: tickets,
		flashes: sec.NewFlashes(cfg),
		logger:  logger,
	}

	srv.HTTPErrorHandler = h.handleError
	srv.Validator = newFormValidator()

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	} else {
		srv.Use(middleware.Recover())
	}

	srv.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: uuid.NewString,
		}),
		middleware.Decompress(),
		middleware.Gzip(),
		middleware.BodyLimit(maxBodySize),
		middleware.Secure(),
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			// logout only clears the caller's own ticket
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == component.PathLogout
			},
			TokenLookup:    "header:" + csrfHeader + ",form:" + csrfCookieName,
			ContextKey:     csrfContextKey,
			CookieName:     csrfCookieName,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   !cfg.DevMode,
			CookieSameSite: http.SameSiteLaxMode,
			ErrorHandler: func(err error, _ echo.Context) error {
				return echo.NewHTTPError(http.StatusForbidden, "invalid or missing CSRF token").SetInternal(err)
			},
		}),
		echo.WrapMiddleware(sec.NewAuthMiddleware(creds, tickets).Wrap),
	)

	h.register(srv, loginLimiter(cfg))
	staticFS := echo.MustSubFS(staticFiles, "static")
	srv.StaticFS("/static/", staticFS)
	srv.FileFS("/robots.txt", "robots.txt", staticFS)
	return srv
}

// loginLimiter throttles login attempts per client IP. It is a no-op if the
// configured limit is zero.
func loginLimiter(cfg *config.Config) echo.MiddlewareFunc {
	if cfg.LoginRateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.LoginRateLimit) / time.Minute.Seconds()),
		Burst:     cfg.LoginRateLimit,
		ExpiresIn: loginLimiterExpiry,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client").SetInternal(err)
		},
		DenyHandler: func(_ echo.Context, _ string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later").SetInternal(err)
		},
	})
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return nil
		}
	}
}
