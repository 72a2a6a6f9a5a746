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
)

// InitResourceLimits raises the open-file limit; ffmpeg pipes and media temp
// files add up on long timelines.
func InitResourceLimits(log *zap.Logger) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warn("could not read open-file limit", zap.Error(err))
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warn("could not raise open-file limit", zap.Error(err))
	} else {
		log.Debug("open-file limit raised", zap.Uint64("limit", uint64(rLimit.Cur)))
	}
}

// FindLatestTimeline returns the most recently modified timeline file
// (.yaml, .yml or .json) in dir.
func FindLatestTimeline(dir string) (string, error) {
	return findLatest(dir, []string{".yaml", ".yml", ".json"}, "timeline")
}

func findLatest(dir string, extensions []string, what string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		matched := false
		for _, ext := range extensions {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				matched = true
				break
			}
		}
		if !matched {
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
		return "", fmt.Errorf("no %s files found in %s", what, dir)
	}

	return latestFile, nil
}

// CheckFFmpeg reports whether the ffmpeg and ffprobe binaries are on PATH.
func CheckFFmpeg() error {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", bin, err)
		}
	}
	return nil
}

// GetBestH264Encoder picks a hardware encoder when ffmpeg exposes one.
// Order: VideoToolbox (macOS), NVENC, then libx264.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
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

// DefaultQuality returns the quality knob that suits the encoder: bitrate
// units for VideoToolbox, CQ for NVENC, CRF for x264 and VP9.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	case "libvpx-vp9":
		return 32
	default:
		return 23
	}
}
