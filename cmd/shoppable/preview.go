package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/shoppable/internal/config"
	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/logger"
	"github.com/ivlev/shoppable/internal/renderer"
	"github.com/ivlev/shoppable/internal/source"
	"github.com/ivlev/shoppable/internal/system"
	"github.com/ivlev/shoppable/internal/video"
)

func newPreviewCmd(cfg *config.Config) *cobra.Command {
	var (
		output string
		retime bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Burn the hotspot markers into a copy of the video",
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, path, err := loadContent(cfg)
			if err != nil {
				return err
			}
			start := time.Now()

			in := cfg.VideoPath
			if in == "" {
				if in, err = system.FindLatest("input/video", system.VideoExtensions...); err != nil {
					return fmt.Errorf("%w; pass --video", err)
				}
				fmt.Printf("[*] Selected video: %s\n", in)
			}

			probeStart := time.Now()
			meta, err := source.Prober{Path: cfg.FFprobePath}.Probe(cmd.Context(), in)
			if err != nil {
				return err
			}
			probeTime := time.Since(probeStart)

			if retime && meta.Duration > 0 && math.Abs(meta.Duration-sv.Video.Duration) > 0.5/float64(max(cfg.FPS, 1)) {
				logger.Info("Retiming content to video",
					zap.Float64("authored", sv.Video.Duration), zap.Float64("actual", meta.Duration))
				sv = content.NewDirector(meta.Duration, cfg.FPS).Retime(sv)
			}

			width, height := meta.Width, meta.Height
			if width <= 0 || height <= 0 {
				width, height = cfg.Width, cfg.Height
			}
			filter := renderer.MarkerFilter(sv, renderer.FilterOptions{
				Width:    width,
				Height:   height,
				Size:     cfg.MarkerSize,
				Captions: system.CheckFilterSupport(cfg.FFmpegPath, "drawtext"),
			})
			if filter == "" {
				fmt.Println("[!] No drawable hotspots; the preview is a plain re-encode")
			}

			out, err := outputPath(cfg, output, "preview", ".mp4")
			if err != nil {
				return err
			}

			encoder := cfg.VideoEncoder
			if encoder == "auto" {
				encoder = system.BestH264Encoder(cfg.FFmpegPath)
			}
			b := &video.Burner{FFmpeg: cfg.FFmpegPath, Encoder: encoder, Quality: cfg.Quality}

			fmt.Printf("[*] Burning %d hotspots with %s...\n", len(sv.Hotspots), encoder)
			burnStart := time.Now()
			if err := b.Burn(cmd.Context(), in, out, filter); err != nil {
				return err
			}
			fmt.Printf("[*] Preview written to %s\n", out)

			report(cfg, path, start,
				system.Stage{Name: "Probe", Duration: probeTime},
				system.Stage{Name: "Encode", Duration: time.Since(burnStart)},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.VideoPath, "video", cfg.VideoPath, "Source video (default: newest file in input/video)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: timestamped file in --output-dir)")
	cmd.Flags().BoolVar(&retime, "retime", true, "Scale keyframe times when the video duration differs from the content")
	cmd.Flags().StringVar(&cfg.VideoEncoder, "encoder", cfg.VideoEncoder, "Video encoder, or auto")
	cmd.Flags().IntVar(&cfg.Quality, "quality", cfg.Quality, "Encoder quality")
	cmd.Flags().IntVar(&cfg.MarkerSize, "marker-size", cfg.MarkerSize, "Marker box edge in pixels")
	return cmd
}
