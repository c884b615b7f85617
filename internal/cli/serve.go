package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"resumerag/internal/app"
	"resumerag/internal/httpapi"
	"resumerag/internal/logger"
	"resumerag/internal/watch"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resume assistant over HTTP",
	Long: `Starts an HTTP API:
  GET  /health        readiness and served index generation
  POST /api/query     {"question": "...", "top_k": 3}
  GET  /api/profile   quick facts and summary
  GET  /api/units     every indexed unit
  GET  /api/resume    the resume document
  POST /api/rebuild   reload the resume and rebuild the index`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rebuild when the resume file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := startApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if serveWatch || cfg.Watch.Enabled {
		startWatcher(ctx, a)
	}

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return httpapi.Serve(ctx, addr, a)
}

func startWatcher(ctx context.Context, a *app.App) {
	w := watch.New(cfg.Record.Path, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond,
		func(ctx context.Context) error {
			_, err := a.Reload(ctx)
			return err
		})
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("record watcher stopped", err)
		}
	}()
}
