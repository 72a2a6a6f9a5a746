package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "SCENE2VIDEO_"

type Config struct {
	TimelinePath string
	OutputVideo  string
	Width        int
	Height       int
	FPS          int
	Workers      int
	Format       string // mp4 | webm
	VideoEncoder string
	Quality      int
	StrictMedia  bool
	PDFDPI       int
	ShowStats    bool
	Debug        bool
	BuildVersion string
}

// ExportParams is what the encoder needs to open a sink.
type ExportParams struct {
	Width, Height int
	FPS           int
	Format        string
	VideoEncoder  string
	Quality       int
	OutputPath    string
}

// Default mirrors the canvas the editor renders into: 1280x720 at 30 FPS.
func Default() *Config {
	return &Config{
		Width:        1280,
		Height:       720,
		FPS:          30,
		Workers:      runtime.NumCPU(),
		Format:       "mp4",
		VideoEncoder: "libx264",
		Quality:      23,
		PDFDPI:       150,
		BuildVersion: "dev",
	}
}

// Load returns defaults overridden by an optional .env file and SCENE2VIDEO_*
// environment variables. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("TIMELINE", &c.TimelinePath)
	str("OUTPUT", &c.OutputVideo)
	str("FORMAT", &c.Format)
	str("ENCODER", &c.VideoEncoder)

	for key, dst := range map[string]*int{
		"WIDTH":   &c.Width,
		"HEIGHT":  &c.Height,
		"FPS":     &c.FPS,
		"WORKERS": &c.Workers,
		"QUALITY": &c.Quality,
		"PDF_DPI": &c.PDFDPI,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*bool{
		"STRICT_MEDIA": &c.StrictMedia,
		"STATS":        &c.ShowStats,
		"DEBUG":        &c.Debug,
	} {
		if err := flag(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects settings no encoder could honor.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	// yuv420p needs even dimensions
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("resolution %dx%d must be even", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", c.FPS)
	}
	switch strings.ToLower(c.Format) {
	case "mp4", "webm":
	default:
		return fmt.Errorf("unsupported format %q (mp4, webm)", c.Format)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}

// ExportParams derives encoder parameters from the configuration.
func (c *Config) ExportParams() ExportParams {
	return ExportParams{
		Width:        c.Width,
		Height:       c.Height,
		FPS:          c.FPS,
		Format:       strings.ToLower(c.Format),
		VideoEncoder: c.VideoEncoder,
		Quality:      c.Quality,
		OutputPath:   c.OutputVideo,
	}
}
