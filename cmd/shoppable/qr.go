package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/shoppable/internal/config"
	"github.com/ivlev/shoppable/internal/linkcode"
	"github.com/ivlev/shoppable/internal/system"
)

func newQRCmd(cfg *config.Config) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Generate one QR code per hotspot destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, path, err := loadContent(cfg)
			if err != nil {
				return err
			}
			start := time.Now()

			if dir == "" {
				dir = filepath.Join(cfg.OutputDir, "qr")
			}
			codes, err := linkcode.Generate(cmd.Context(), sv, dir, linkcode.Options{
				BaseURL: cfg.BaseURL,
				Size:    cfg.QRSize,
				Workers: cfg.Workers,
			})
			if err != nil {
				return err
			}

			for _, c := range codes {
				fmt.Printf("  %-16s %s -> %s\n", c.HotspotID, c.URL, c.Path)
			}
			fmt.Printf("[*] %d QR codes written to %s\n", len(codes), dir)

			report(cfg, path, start, system.Stage{Name: "QR", Duration: time.Since(start)})
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default: qr in --output-dir)")
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Shop site root for absolute links")
	cmd.Flags().IntVar(&cfg.QRSize, "size", cfg.QRSize, "QR image edge in pixels")
	return cmd
}
