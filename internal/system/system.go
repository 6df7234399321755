package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/shoppable/internal/logger"
)

// VideoExtensions are the containers the preview and probe commands accept
var VideoExtensions = []string{".mp4", ".mov", ".m4v", ".webm", ".mkv"}

// ImageExtensions are the stills accepted as snapshot backgrounds
var ImageExtensions = []string{".jpg", ".jpeg", ".png"}

// InitResourceLimits raises the open file limit; every websocket session
// holds a descriptor.
func InitResourceLimits(want uint64) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("Failed to read open file limit", zap.Error(err))
		return
	}
	if rLimit.Cur >= want {
		return
	}

	rLimit.Cur = want
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("Failed to raise open file limit", zap.Error(err))
		return
	}
	logger.Debug("Open file limit raised", zap.Uint64("limit", uint64(rLimit.Cur)))
}

// FindLatest returns the most recently modified file in dir with one of the
// given extensions. A file path is searched in its directory.
func FindLatest(path string, exts ...string) (string, error) {
	dir := path
	if fi, err := os.Stat(path); err != nil {
		return "", err
	} else if !fi.IsDir() {
		dir = filepath.Dir(path)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// CheckFilterSupport reports whether the ffmpeg binary has the named filter
func CheckFilterSupport(ffmpeg, filter string) bool {
	out, err := exec.Command(ffmpeg, "-hide_banner", "-filters").CombinedOutput()
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == filter {
			return true
		}
	}
	return false
}

// BestH264Encoder picks a hardware encoder when ffmpeg offers one
func BestH264Encoder(ffmpeg string) string {
	out, err := exec.Command(ffmpeg, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}
