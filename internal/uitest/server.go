// Package uitest provides UI testing utilities using Rod.
package uitest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/journal/internal/app"
	"github.com/stolasapp/journal/internal/config"
	"github.com/stolasapp/journal/internal/devdata"
	"github.com/stolasapp/journal/internal/server"
	"github.com/stolasapp/journal/internal/storage"
)

// TestSeed is the fixed seed used for reproducible test data.
const TestSeed uint64 = 12345

// SeedEntries is how many generated entries the test journal starts with.
const SeedEntries = 3

// Server is a test server that runs the app in dev mode.
type Server struct {
	baseURL string
	cancel  context.CancelFunc
	grp     *errgroup.Group
	store   storage.Store
}

// newTestServer creates and starts a new test server for use in TestMain.
// It panics on errors since TestMain cannot use testing.TB.
func newTestServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	grp, ctx := errgroup.WithContext(ctx)

	logger := slog.New(slog.DiscardHandler)

	// Create in-memory storage
	cfg := testConfig()
	store, err := storage.NewDB(ctx, cfg, logger)
	if err != nil {
		cancel()
		panic(fmt.Sprintf("failed to create storage: %v", err))
	}

	if _, err = devdata.New(TestSeed).Populate(ctx, store, SeedEntries); err != nil {
		cancel()
		_ = store.Close()
		panic(fmt.Sprintf("failed to seed storage: %v", err))
	}

	// Create and start app server
	appServer := app.New(cfg, logger, store)
	appAddr, err := startAppServer(ctx, grp, cfg, appServer)
	if err != nil {
		cancel()
		_ = store.Close()
		panic(fmt.Sprintf("failed to start app server: %v", err))
	}

	return &Server{
		baseURL: "http://" + appAddr,
		cancel:  cancel,
		grp:     grp,
		store:   store,
	}
}

// BaseURL returns the base URL of the test server.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Close shuts down the test server.
// Errors are ignored since this runs during test cleanup where failures
// are typically unrecoverable and already logged by the errgroup.
func (s *Server) Close() {
	s.cancel()
	_ = s.grp.Wait()
	_ = s.store.Close()
}

// URL constructs a full URL from the server base URL and a path.
func (s *Server) URL(path string) string {
	return fmt.Sprintf("%s%s", s.baseURL, path)
}

func testConfig() *config.Config {
	hash, err := bcrypt.GenerateFromPassword([]byte(config.DevAdminPassword), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("failed to hash password: %v", err))
	}
	cfg := config.Default()
	cfg.DevMode = true
	cfg.LogLevel = "debug"
	cfg.DatabaseURL = ":memory:"
	cfg.AuthSecret = "uitest-ticket-secret-0123456789"
	cfg.SessionSecret = "uitest-session-secret-0123456789"
	cfg.AdminPasswordHash = string(hash)
	cfg.LoginRateLimit = 0
	return cfg
}

func startAppServer(ctx context.Context, grp *errgroup.Group, cfg *config.Config, srv *echo.Echo) (string, error) {
	listener, err := server.Listen(ctx, "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	addr := listener.Addr().String()

	server.Serve(ctx, grp, srv.Server, listener, server.TimeoutsFrom(cfg))

	return addr, nil
}
