// Package config loads the optional TOML defaults file used by the CLI.
// The timelapse core never reads it; commands translate it into run parameters.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/lepinkainen/timelapse/timelapse"
)

// Output holds the video defaults
type Output struct {
	FrameRate int                  `toml:"frame_rate"`
	Size      timelapse.SizePreset `toml:"size"`
	Codec     string               `toml:"codec"`
	CRF       int                  `toml:"crf"`
	Preset    string               `toml:"preset"`
}

// Tools names the external programs
type Tools struct {
	FFmpeg string `toml:"ffmpeg"`
	DCRaw  string `toml:"dcraw"`
}

// Logging controls the zap logger
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
	File   string `toml:"file"`
}

// Inspect holds sequence inspection defaults
type Inspect struct {
	Threshold int `toml:"threshold"`
	Workers   int `toml:"workers"`
}

// Config is the whole configuration file
type Config struct {
	Output  Output  `toml:"output"`
	Tools   Tools   `toml:"tools"`
	Logging Logging `toml:"logging"`
	Inspect Inspect `toml:"inspect"`
}

// Default returns the built-in configuration
func Default() Config {
	enc := timelapse.DefaultEncoderOptions()
	return Config{
		Output: Output{
			FrameRate: timelapse.DefaultFrameRate,
			Size:      timelapse.SizeOriginal,
			Codec:     enc.Codec,
			CRF:       enc.CRF,
			Preset:    enc.Preset,
		},
		Tools: Tools{
			FFmpeg: enc.Binary,
			DCRaw:  timelapse.DefaultRawConverter,
		},
		Logging: Logging{
			Level:  "warn",
			Format: "console",
		},
		Inspect: Inspect{
			Threshold: timelapse.DefaultJumpThreshold,
		},
	}
}

// DefaultPath returns ~/.config/timelapse/config.toml
func DefaultPath() (string, error) {
	return expandPath("~/.config/timelapse/config.toml")
}

// Load reads path, or the default location when path is empty. A missing
// file yields the defaults; exists reports whether a file was read.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	c := Default()

	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return nil, "", false, err
		}
	}
	resolved, err = expandPath(path)
	if err != nil {
		return nil, "", false, err
	}

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		exists = true
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&c); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, "", false, err
	}
	return &c, resolved, exists, nil
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.File != "" {
		if p, err := expandPath(c.Logging.File); err == nil {
			c.Logging.File = p
		}
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = timelapse.DefaultEncoderOptions().Binary
	}
	if c.Tools.DCRaw == "" {
		c.Tools.DCRaw = timelapse.DefaultRawConverter
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Output.FrameRate < timelapse.MinFrameRate || c.Output.FrameRate > timelapse.MaxFrameRate {
		return fmt.Errorf("output.frame_rate: %d outside %d-%d", c.Output.FrameRate, timelapse.MinFrameRate, timelapse.MaxFrameRate)
	}
	if c.Output.CRF < 0 || c.Output.CRF > 51 {
		return fmt.Errorf("output.crf: %d outside 0-51", c.Output.CRF)
	}
	if c.Output.Codec == "" {
		return errors.New("output.codec: must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Inspect.Threshold < 0 || c.Inspect.Threshold > 64 {
		return fmt.Errorf("inspect.threshold: %d outside 0-64", c.Inspect.Threshold)
	}
	return nil
}

// EncoderOptions converts the output and tool settings for the encoder
func (c *Config) EncoderOptions() timelapse.EncoderOptions {
	return timelapse.EncoderOptions{
		Binary: c.Tools.FFmpeg,
		Codec:  c.Output.Codec,
		CRF:    c.Output.CRF,
		Preset: c.Output.Preset,
	}
}

// Encode renders the configuration as TOML
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// WriteDefault writes the built-in configuration to path, refusing to overwrite
func WriteDefault(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("%s already exists", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	c := Default()
	data, err := c.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(resolved, data, 0o644)
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
