package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
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

func newSnapshotCmd(cfg *config.Config) *cobra.Command {
	var (
		times      []float64
		every      float64
		background string
		videoPath  string
		dir        string
		labels     bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render marker states at given times to PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, path, err := loadContent(cfg)
			if err != nil {
				return err
			}
			start := time.Now()

			if every > 0 {
				times = sampleTimes(sv, every)
			}
			if len(times) == 0 {
				return errors.New("no times given; use --time or --every")
			}

			opts := renderer.SnapshotOptions{Width: cfg.Width, Height: cfg.Height, Labels: labels}

			switch {
			case background != "":
				if opts.Background, err = source.LoadFrame(background); err != nil {
					return err
				}
			case videoPath != "":
				if len(times) != 1 {
					return errors.New("--video needs exactly one --time")
				}
				if opts.Background, err = videoStill(cmd.Context(), cfg, videoPath, times[0]); err != nil {
					return err
				}
			}
			if opts.Background != nil {
				b := opts.Background.Bounds()
				opts.Width, opts.Height = b.Dx(), b.Dy()
			}

			if dir == "" {
				dir = filepath.Join(cfg.OutputDir, fmt.Sprintf("snapshots_%s", time.Now().Format("20060102_150405")))
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}

			renderStart := time.Now()
			paths, err := renderer.RenderSequence(cmd.Context(), sv, times, dir, opts, cfg.Workers)
			if err != nil {
				return err
			}
			logger.Info("Snapshots rendered", zap.Int("count", len(paths)), zap.String("dir", dir))
			fmt.Printf("[*] %d snapshots written to %s\n", len(paths), dir)

			report(cfg, path, start, system.Stage{Name: "Render", Duration: time.Since(renderStart)})
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&times, "time", nil, "Media times in seconds (repeatable)")
	cmd.Flags().Float64Var(&every, "every", 0, "Sample the whole content every N seconds")
	cmd.Flags().StringVar(&background, "background", "", "Still image painted under the markers")
	cmd.Flags().StringVar(&videoPath, "video", "", "Video to take the background frame from (single --time only)")
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default: timestamped directory in --output-dir)")
	cmd.Flags().BoolVar(&labels, "labels", false, "Draw target and selector labels")
	cmd.Flags().IntVar(&cfg.Width, "width", cfg.Width, "Frame width without a background")
	cmd.Flags().IntVar(&cfg.Height, "height", cfg.Height, "Frame height without a background")
	return cmd
}

// sampleTimes covers [0, end] with a fixed step; end is the video duration
// or the last keyframe
func sampleTimes(sv *content.ShoppableVideo, step float64) []float64 {
	end := sv.Video.Duration
	if end <= 0 {
		end = lastKeyframe(sv)
	}
	var times []float64
	for i := 0; ; i++ {
		t := float64(i) * step
		if t > end+1e-9 {
			break
		}
		times = append(times, t)
	}
	return times
}

func videoStill(ctx context.Context, cfg *config.Config, path string, t float64) (image.Image, error) {
	tmp, err := os.CreateTemp("", "shoppable_still_*.png")
	if err != nil {
		return nil, err
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	b := &video.Burner{FFmpeg: cfg.FFmpegPath, Width: cfg.Width, Height: cfg.Height}
	if err := b.ExtractFrame(ctx, path, t, tmp.Name()); err != nil {
		return nil, err
	}
	return source.LoadFrame(tmp.Name())
}
