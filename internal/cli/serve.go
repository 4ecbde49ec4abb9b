package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/thinkofyou/internal/server"
)

// serveOptions holds flags for the serve command.
type serveOptions struct {
	listen  string
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tap page and the live bubble stream",
		Long: `Serve the tap page, the tap API and the live bubble stream over HTTP.

Each person opens the page with their access key:

  http://localhost:8080/?k=<key>`,
		Example: `  thinkofyou serve
  thinkofyou serve --listen :9000 -c thinkofyou.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "listen address (overrides server.listen)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

// runServe runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully within the configured timeout.
func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.listen != "" {
		cfg.Server.Listen = opts.listen
	}
	if len(cfg.People) == 0 {
		printWarning("No people configured; every request will be rejected")
	}

	a, err := c.openApp(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	srv := server.New(server.Config{
		Store:    a.store,
		Keys:     a.keys,
		Tapper:   a.tapper,
		Runner:   a.runner,
		Logger:   logger,
		Location: loc,
		Limit:    cfg.Display.Limit,
		Width:    cfg.Display.Width,
		Height:   cfg.Display.Height,
	})

	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	printSuccess("Listening on %s", StyleHighlight.Render(ln.Addr().String()))
	printDetail("store: %s · cache: %s · notify: %s", cfg.Store.Backend, cfg.Cache.Backend, cfg.Notify.Backend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "views", srv.Views())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	printInfo("Server stopped")
	return nil
}
