package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/bmc/internal/api"
	"github.com/abhisek/bmc/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local mirror of the course with a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd, envOptions{writer: true})
		if err != nil {
			return err
		}
		defer e.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = e.cfg.Server.Addr
		}
		link, _ := cmd.Flags().GetString("link")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics.Init()
		if _, err := e.start(ctx, link); err != nil {
			return err
		}

		if e.worker != nil {
			go func() {
				if err := e.worker.Register(context.WithoutCancel(ctx)); err != nil {
					e.logger.Warn("offline cache unavailable; serving from network", zap.Error(err))
					return
				}
				e.logger.Info("offline cache ready", zap.String("cache", e.worker.Manifest().Name))
			}()
		}

		srv, err := api.NewServer(api.Options{
			Controller:   e.ctrl,
			Worker:       e.worker,
			AssetBaseURL: e.cfg.AssetBaseURL,
			Logger:       e.logger,
		})
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from server.addr)")
	serveCmd.Flags().String("link", "", `Location reference to start from, e.g. "#unit=u2"`)
}
