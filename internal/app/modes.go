package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arbradar/arbradar/internal/server"
	"github.com/arbradar/arbradar/internal/server/handler"
	"github.com/arbradar/arbradar/internal/server/ws"
)

// shutdownTimeout bounds graceful HTTP server shutdown.
const shutdownTimeout = 10 * time.Second

// FullMode runs the sync loop and the HTTP/WebSocket server together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	a.initializeFacade(ctx, g, deps)

	g.Go(func() error {
		err := deps.Syncer.RunLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return err
	})

	a.startHTTPServer(ctx, g, deps)

	return g.Wait()
}

// SyncMode runs only the sync loop: fetch, match, calculate, persist.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode")

	err := deps.Syncer.RunLoop(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// ServeMode runs only the HTTP/WebSocket server over already-persisted data.
// Manual POST /api/sync triggers still work.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.initializeFacade(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// initializeFacade runs the first sync cycle in the background so the API
// can start answering immediately with a degraded health status.
func (a *App) initializeFacade(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	g.Go(func() error {
		if err := deps.Facade.Initialize(ctx); err != nil && ctx.Err() == nil {
			a.logger.WarnContext(ctx, "initial sync failed",
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
}

// startHTTPServer wires the handlers, attaches the WebSocket hub when a
// signal bus is available, and runs the server plus its shutdown watcher on
// the group.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "http server disabled")
		return
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		},
		server.Handlers{
			Health:        handler.NewHealthHandler(),
			Status:        handler.NewStatusHandler(deps.Facade, a.logger),
			Markets:       handler.NewMarketHandler(deps.Facade, a.logger),
			Opportunities: handler.NewOpportunityHandler(deps.Facade, a.logger),
			Admin:         handler.NewAdminHandler(deps.Facade, a.logger),
		},
		hub,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})
}
