package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ContentPath  string
	ContentDir   string
	VideoPath    string
	OutputDir    string
	Width        int
	Height       int
	FPS          int
	Workers      int
	MarkerRadius float64
	MarkerSize   int
	QRSize       int
	BaseURL      string
	ListenAddr   string
	TickInterval time.Duration
	FFmpegPath   string
	FFprobePath  string
	VideoEncoder string
	Quality      int
	LogLevel     string
	LogFile      string
	LogJSON      bool
	ShowStats    bool
	BuildVersion string
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ContentDir:   "input/content",
		OutputDir:    "output",
		Width:        1280,
		Height:       720,
		FPS:          30,
		Workers:      runtime.NumCPU(),
		MarkerRadius: 0.04,
		MarkerSize:   24,
		QRSize:       256,
		ListenAddr:   ":8080",
		TickInterval: 50 * time.Millisecond,
		FFmpegPath:   "ffmpeg",
		FFprobePath:  "ffprobe",
		VideoEncoder: "libx264",
		Quality:      23,
		LogLevel:     "info",
		BuildVersion: "dev",
	}
}

// Load reads .env files (missing ones are skipped) and the environment on
// top of the defaults. Existing environment variables win over .env values.
func Load(files ...string) *Config {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else {
		for _, f := range files {
			_ = godotenv.Load(f)
		}
	}

	c := Default()
	c.ContentPath = getEnv("SHOPPABLE_CONTENT", c.ContentPath)
	c.ContentDir = getEnv("SHOPPABLE_CONTENT_DIR", c.ContentDir)
	c.VideoPath = getEnv("SHOPPABLE_VIDEO", c.VideoPath)
	c.OutputDir = getEnv("SHOPPABLE_OUTPUT_DIR", c.OutputDir)
	c.Width = getEnvInt("SHOPPABLE_WIDTH", c.Width)
	c.Height = getEnvInt("SHOPPABLE_HEIGHT", c.Height)
	c.FPS = getEnvInt("SHOPPABLE_FPS", c.FPS)
	c.Workers = getEnvInt("SHOPPABLE_WORKERS", c.Workers)
	c.MarkerRadius = getEnvFloat("SHOPPABLE_MARKER_RADIUS", c.MarkerRadius)
	c.MarkerSize = getEnvInt("SHOPPABLE_MARKER_SIZE", c.MarkerSize)
	c.QRSize = getEnvInt("SHOPPABLE_QR_SIZE", c.QRSize)
	c.BaseURL = getEnv("SHOPPABLE_BASE_URL", c.BaseURL)
	c.ListenAddr = getEnv("SHOPPABLE_LISTEN", c.ListenAddr)
	c.TickInterval = getEnvDuration("SHOPPABLE_TICK", c.TickInterval)
	c.FFmpegPath = getEnv("FFMPEG_PATH", c.FFmpegPath)
	c.FFprobePath = getEnv("FFPROBE_PATH", c.FFprobePath)
	c.VideoEncoder = getEnv("SHOPPABLE_ENCODER", c.VideoEncoder)
	c.Quality = getEnvInt("SHOPPABLE_QUALITY", c.Quality)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogJSON = getEnvBool("LOG_JSON", c.LogJSON)
	c.ShowStats = getEnvBool("SHOPPABLE_STATS", c.ShowStats)
	return c
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
