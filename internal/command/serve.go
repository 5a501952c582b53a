package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/journal/internal/app"
	"github.com/stolasapp/journal/internal/config"
	"github.com/stolasapp/journal/internal/devdata"
	"github.com/stolasapp/journal/internal/server"
	"github.com/stolasapp/journal/internal/storage"
)

// devSeedEntries is how many fake entries an empty dev-mode journal starts
// with.
const devSeedEntries = 5

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the journal web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			grp, ctx := errgroup.WithContext(cmd.Context())

			// In dev mode, an empty journal is filled with fake entries
			if cfg.DevMode {
				if err = seedDevEntries(ctx, logger, store); err != nil {
					return err
				}
			}

			serveApp(ctx, grp, cfg, logger, app.New(cfg, logger, store))
			return grp.Wait()
		},
	}
}

func serveApp(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	srv *echo.Echo,
) {
	addr := cfg.Address()
	listener, err := server.Listen(ctx, addr)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}

	logger.InfoContext(ctx,
		"starting app server...",
		slog.String("address", "http://"+listener.Addr().String()),
	)
	server.Serve(ctx, grp, srv.Server, listener, server.TimeoutsFrom(cfg))
}

func seedDevEntries(ctx context.Context, logger *slog.Logger, store storage.Entries) error {
	existing, err := store.ListEntries(ctx)
	if err != nil || len(existing) > 0 {
		return err
	}
	seed := devdata.Seed()
	ids, err := devdata.New(seed).Populate(ctx, store, devSeedEntries)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx,
		"seeded dev entries",
		slog.Int("count", len(ids)),
		slog.Uint64("seed", seed),
	)
	return nil
}
