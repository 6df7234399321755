package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/shoppable/internal/config"
	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/logger"
	"github.com/ivlev/shoppable/internal/system"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "shoppable",
		Short:         "Shoppable video hotspot engine",
		Long:          "Drives keyframed product hotspots in sync with video playback: serves player sessions, renders snapshots and burnt-in previews, and generates link QR codes.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.BuildVersion == "dev" {
				cfg.BuildVersion = Version
			}
			return logger.Init(logger.Config{
				Level: cfg.LogLevel,
				File:  cfg.LogFile,
				JSON:  cfg.LogJSON,
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.ContentPath, "content", cfg.ContentPath, "Content YAML file (default: newest file in --content-dir)")
	flags.StringVar(&cfg.ContentDir, "content-dir", cfg.ContentDir, "Directory with content YAML files")
	flags.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory for generated files")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel workers for batch commands")
	flags.Float64Var(&cfg.MarkerRadius, "marker-radius", cfg.MarkerRadius, "Hit radius in frame-height units")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Rotated JSON log file")
	flags.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "Print a performance report and append it to benchmark.log")

	root.AddCommand(
		newServeCmd(cfg),
		newSimulateCmd(cfg),
		newSnapshotCmd(cfg),
		newPreviewCmd(cfg),
		newQRCmd(cfg),
		newProbeCmd(cfg),
	)
	return root
}

// loadContent reads --content, or the newest file of --content-dir
func loadContent(cfg *config.Config) (*content.ShoppableVideo, string, error) {
	path := cfg.ContentPath
	if path == "" {
		latest, err := content.FindLatest(cfg.ContentDir)
		if err != nil {
			return nil, "", fmt.Errorf("%w; put a content file into %s or pass --content", err, cfg.ContentDir)
		}
		path = latest
		fmt.Printf("[*] Selected content: %s\n", path)
	}

	sv, err := content.Read(path)
	if err != nil {
		return nil, "", err
	}

	for _, issue := range content.Validate(sv) {
		logger.Warn("Content issue", zap.String("file", path), zap.String("hotspot", issue.HotspotID),
			zap.String("kind", string(issue.Kind)), zap.String("message", issue.Message))
	}
	return sv, path, nil
}

// outputPath returns explicit when set, otherwise a timestamped name
func outputPath(cfg *config.Config, explicit, prefix, ext string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return "", err
	}
	return content.TimestampedPath(cfg.OutputDir, prefix, ext), nil
}

// report prints the --stats performance report
func report(cfg *config.Config, input string, start time.Time, stages ...system.Stage) {
	if !cfg.ShowStats {
		return
	}
	stats, err := system.CollectStats()
	if err != nil {
		logger.Warn("Process stats unavailable", zap.Error(err))
	}

	r := system.Report{
		Build:  cfg.BuildVersion,
		Input:  filepath.Base(input),
		Total:  time.Since(start),
		Stages: stages,
		Stats:  stats,
	}
	fmt.Print(r.String())
	if err := system.AppendBenchmarkLog("benchmark.log", r); err != nil {
		fmt.Printf("[!] Failed to write benchmark.log: %v\n", err)
	}
}
