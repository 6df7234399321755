package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/shoppable/internal/config"
	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/engine"
	"github.com/ivlev/shoppable/internal/playback"
)

// simulation emulates a player: sparse timeupdate events with smoother
// ticks at frame rate in between
type simulation struct {
	From   float64
	To     float64
	FPS    int
	Update float64 // Media seconds between time events
	JSON   bool
	Radius float64
}

func newSimulateCmd(cfg *config.Config) *cobra.Command {
	sim := simulation{FPS: cfg.FPS, Update: 0.25}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play content through the engine and print marker states",
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, path, err := loadContent(cfg)
			if err != nil {
				return err
			}
			start := time.Now()
			sim.Radius = cfg.MarkerRadius
			if err := sim.run(cmd.OutOrStdout(), sv); err != nil {
				return err
			}
			report(cfg, path, start)
			return nil
		},
	}

	cmd.Flags().Float64Var(&sim.From, "from", 0, "Start time in seconds")
	cmd.Flags().Float64Var(&sim.To, "to", 0, "End time in seconds (default: video duration or last keyframe)")
	cmd.Flags().IntVar(&sim.FPS, "fps", sim.FPS, "Output frames per second")
	cmd.Flags().Float64Var(&sim.Update, "update", sim.Update, "Seconds between player time events; frames in between are extrapolated")
	cmd.Flags().BoolVar(&sim.JSON, "json", false, "Print one JSON frame per line")
	return cmd
}

func (s simulation) run(w io.Writer, sv *content.ShoppableVideo) error {
	if s.FPS <= 0 {
		return errors.New("fps must be positive")
	}
	to := s.To
	if to <= 0 {
		to = sv.Video.Duration
	}
	if to <= 0 {
		to = lastKeyframe(sv)
	}
	if to <= s.From {
		return fmt.Errorf("nothing to simulate between %.3fs and %.3fs", s.From, to)
	}

	base := time.Unix(0, 0)
	now := base
	scene, err := engine.NewScene(sv, engine.Options{
		MarkerRadius: s.Radius,
		Clock:        func() time.Time { return now },
	})
	if err != nil {
		return err
	}
	defer scene.Close()

	feed := &playback.Feed{}
	binding, err := scene.Sync().Bind(feed)
	if err != nil {
		return err
	}
	defer binding.Close()

	enc := json.NewEncoder(w)
	step := 1 / float64(s.FPS)
	frames := int(math.Floor((to-s.From)/step + 1e-9))
	nextUpdate := s.From

	feed.TimeChanged(s.From)
	feed.PlayStateChanged(true)

	for i := 0; i <= frames; i++ {
		media := s.From + float64(i)*step
		now = base.Add(time.Duration(float64(i) * step * float64(time.Second)))

		if media >= nextUpdate-1e-9 {
			feed.TimeChanged(media)
			nextUpdate += s.Update
		} else {
			scene.Tick()
		}

		if s.JSON {
			if err := enc.Encode(frameLine{Time: scene.Sync().Position(), Markers: scene.Visible()}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(w, formatFrame(scene.Sync().Position(), scene.Visible()))
	}

	feed.PlayStateChanged(false)
	return nil
}

type frameLine struct {
	Time    float64              `json:"time"`
	Markers []engine.MarkerFrame `json:"markers"`
}

func formatFrame(t float64, markers []engine.MarkerFrame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[t=%7.3f]", t)
	if len(markers) == 0 {
		b.WriteString(" -")
	}
	for _, m := range markers {
		fmt.Fprintf(&b, " %s(%.3f,%.3f a=%.2f)", m.ID, m.State.Position.X, m.State.Position.Y, m.State.Opacity)
	}
	return b.String()
}

func lastKeyframe(sv *content.ShoppableVideo) float64 {
	var end float64
	for _, h := range sv.Hotspots {
		if tl := h.Build(); tl.Len() > 0 && tl.End() > end {
			end = tl.End()
		}
	}
	return end
}
