// Package config loads and validates the engine configuration. The schema
// is closed: a key the schema does not know is a startup error, because a
// typoed key silently falling back to a default is how tickets come out on
// the wrong codepage.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/drukwerk/ticket-engine/internal/escpos"
)

// Config is the full engine configuration.
type Config struct {
	Printer PrinterConfig `mapstructure:"printer"`
	Render  RenderConfig  `mapstructure:"render"`
	Preview PreviewConfig `mapstructure:"preview"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PrinterConfig describes the physical head and its character setup.
type PrinterConfig struct {
	Device           string `mapstructure:"device"`
	BaudRate         int    `mapstructure:"baud_rate"`
	WidthPx          int    `mapstructure:"width_px"`
	TicketWidthChars int    `mapstructure:"ticket_width_chars"`
	Codepage         string `mapstructure:"codepage"`
	International    string `mapstructure:"international"`
}

// RenderConfig describes the off-device text rendering stack.
type RenderConfig struct {
	DefaultFontPath string  `mapstructure:"default_font_path"`
	EmojiFontPath   string  `mapstructure:"emoji_font_path"`
	FontsDir        string  `mapstructure:"fonts_dir"`
	FontSize        float64 `mapstructure:"font_size"`
}

// ResolveFont joins a relative font path onto FontsDir. Absolute and empty
// paths pass through.
func (r RenderConfig) ResolveFont(path string) string {
	if path == "" || r.FontsDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.FontsDir, path)
}

// PreviewConfig controls where simulator output lands.
type PreviewConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggingConfig mirrors the zap/lumberjack setup.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// knownKeys is the closed key set, kept in lockstep with the structs above.
var knownKeys = map[string]bool{
	"printer.device":             true,
	"printer.baud_rate":          true,
	"printer.width_px":           true,
	"printer.ticket_width_chars": true,
	"printer.codepage":           true,
	"printer.international":      true,
	"render.default_font_path":   true,
	"render.emoji_font_path":     true,
	"render.fonts_dir":           true,
	"render.font_size":           true,
	"preview.output_dir":         true,
	"logging.level":              true,
	"logging.format":             true,
	"logging.output":             true,
	"logging.max_size_mb":        true,
	"logging.max_backups":        true,
	"logging.max_age_days":       true,
	"logging.compress":           true,
}

// Load reads the config file at path (or the default search locations when
// path is empty), applies TICKET_ENGINE_* environment overrides, rejects
// unknown keys and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ticket-engine")
	}

	v.SetEnvPrefix("TICKET_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("config: %w", err)
		}
		// No file found on the search path: defaults plus environment.
	}

	if err := rejectUnknownKeys(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("printer.device", "/dev/ttyUSB0")
	v.SetDefault("printer.baud_rate", 9600)
	v.SetDefault("printer.width_px", 384)
	v.SetDefault("printer.ticket_width_chars", 32)
	v.SetDefault("printer.codepage", "cp850")
	v.SetDefault("printer.international", "FRANCE")

	v.SetDefault("render.font_size", 24)

	v.SetDefault("preview.output_dir", "output")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

func rejectUnknownKeys(v *viper.Viper) error {
	var unknown []string
	for _, key := range v.AllKeys() {
		if !knownKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("config: unknown keys: %s", strings.Join(unknown, ", "))
}

// Validate checks the values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Printer.WidthPx <= 0 {
		return fmt.Errorf("config: printer.width_px must be positive, got %d", c.Printer.WidthPx)
	}
	if c.Printer.TicketWidthChars <= 0 {
		return fmt.Errorf("config: printer.ticket_width_chars must be positive, got %d", c.Printer.TicketWidthChars)
	}
	if c.Printer.BaudRate < 0 {
		return fmt.Errorf("config: printer.baud_rate must not be negative, got %d", c.Printer.BaudRate)
	}
	if _, err := escpos.LookupCodepage(c.Printer.Codepage); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := escpos.LookupInternational(c.Printer.International); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Render.FontSize <= 0 {
		return fmt.Errorf("config: render.font_size must be positive, got %v", c.Render.FontSize)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	return nil
}
