package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/shoppable/internal/config"
	"github.com/ivlev/shoppable/internal/logger"
	"github.com/ivlev/shoppable/internal/server"
	"github.com/ivlev/shoppable/internal/system"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve player sessions over websocket",
		Long:  "Loads every content file of --content-dir and runs one hotspot scene per connected player at /ws/{video}.",
		RunE: func(cmd *cobra.Command, args []string) error {
			system.InitResourceLimits(4096)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			catalog, err := server.NewCatalog(cfg.ContentDir)
			if err != nil {
				return err
			}

			if watch {
				go func() {
					if err := catalog.Watch(ctx, 250*time.Millisecond); err != nil {
						logger.Error("Content watcher stopped", zap.Error(err))
					}
				}()
			}

			srv := server.New(catalog, server.Options{
				Addr:         cfg.ListenAddr,
				MarkerRadius: cfg.MarkerRadius,
				TickInterval: cfg.TickInterval,
				BaseURL:      cfg.BaseURL,
				QRSize:       cfg.QRSize,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "Listen address")
	cmd.Flags().DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Marker update interval between player time events")
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Shop site root for absolute links")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload the catalog when content files change")
	return cmd
}
