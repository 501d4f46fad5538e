package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	OutputDir       string        `mapstructure:"output_dir"`
	OutputPrefix    string        `mapstructure:"output_prefix"`
	PlaceholderName string        `mapstructure:"placeholder_name"`
	ToolName        string        `mapstructure:"tool_name"`
	ToolDir         string        `mapstructure:"tool_dir"`
	ToolSubdir      string        `mapstructure:"tool_subdir"`
	VersionMarker   string        `mapstructure:"version_marker"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	ImageExt        []string      `mapstructure:"image_extensions"`
	VideoExt        []string      `mapstructure:"video_extensions"`
	JPEGQuality     int           `mapstructure:"jpeg_quality"`
	AutoOrient      bool          `mapstructure:"auto_orient"`
	RemovePartial   bool          `mapstructure:"remove_partial"`
	LogFile         string        `mapstructure:"log_file"`
	LogLevel        string        `mapstructure:"log_level"`
}

const (
	configName = "metaclean"
	envPrefix  = "METACLEAN"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "")
	v.SetDefault("output_prefix", "[CLEANED]")
	v.SetDefault("placeholder_name", "arquivo")
	v.SetDefault("tool_name", "ffmpeg")
	v.SetDefault("tool_dir", "")
	v.SetDefault("tool_subdir", "ffmpeg")
	v.SetDefault("version_marker", "ffmpeg version")
	v.SetDefault("probe_timeout", "10s")
	v.SetDefault("image_extensions", []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tiff"})
	v.SetDefault("video_extensions", []string{".mp4", ".mov", ".m4v", ".mkv", ".avi", ".webm"})
	v.SetDefault("jpeg_quality", 95)
	v.SetDefault("auto_orient", false)
	v.SetDefault("remove_partial", false)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	cfg, err := decodeConfig(newViper())
	if err != nil {
		// defaults are static; a decode failure here is a programming error
		panic(err)
	}
	return cfg
}

// LoadConfig reads path when given, otherwise metaclean.toml from the user
// config directory. A missing default file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return decodeConfig(v)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to find user config dir: %w", err)
	}
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join(configDir, configName))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decodeConfig(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ImageExt = normalizeExtensions(cfg.ImageExt)
	cfg.VideoExt = normalizeExtensions(cfg.VideoExt)
	return &cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ToolName) == "" {
		return errors.New("tool_name must not be empty")
	}
	if c.OutputPrefix == "" {
		return errors.New("output_prefix must not be empty")
	}
	if Sanitize(c.PlaceholderName, "x") != c.PlaceholderName || strings.Contains(c.PlaceholderName, ".") {
		return fmt.Errorf("placeholder_name %q must only contain letters, digits, '_' or '-'", c.PlaceholderName)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %s", c.ProbeTimeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
