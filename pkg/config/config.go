// Package config loads and saves the YAML configuration of the otpfield demo.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/otpfield/pkg/otp"
)

// EnvTOTPSecret overrides totp.secret when set.
const EnvTOTPSecret = "OTPFIELD_TOTP_SECRET"

// Config is the on-disk configuration.
type Config struct {
	Length       int    `yaml:"length"`
	Value        string `yaml:"value,omitempty"`
	Placeholder  string `yaml:"placeholder,omitempty"`
	Separator    string `yaml:"separator,omitempty"`
	InputType    string `yaml:"input_type"`
	Disabled     bool   `yaml:"disabled,omitempty"`
	ReadOnly     bool   `yaml:"readonly,omitempty"`
	DefaultFocus bool   `yaml:"default_focus"`

	TOTP    TOTPConfig    `yaml:"totp"`
	Log     LogConfig     `yaml:"log"`
	History HistoryConfig `yaml:"history"`
}

// TOTPConfig configures code verification. An empty secret disables it.
type TOTPConfig struct {
	Secret string `yaml:"secret,omitempty"`
	Issuer string `yaml:"issuer"`
	Period uint   `yaml:"period"`
	Skew   uint   `yaml:"skew"`
}

// LogConfig configures the debug log. An empty path disables logging.
type LogConfig struct {
	Path  string `yaml:"path,omitempty"`
	Level string `yaml:"level"`
}

// HistoryConfig configures the attempt log. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

var (
	// ErrInvalidPeriod indicates a zero TOTP period.
	ErrInvalidPeriod = errors.New("config: totp period must be positive")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("config: unknown log level")
	// ErrLengthDigitsMismatch indicates a TOTP secret combined with a field
	// length no authenticator code has. Codes are 6 digits in that case, so
	// every complete entry is rejected.
	ErrLengthDigitsMismatch = errors.New("config: with a totp secret, length must be 6 or 8")
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Length:       6,
		InputType:    string(otp.InputText),
		DefaultFocus: true,
		TOTP: TOTPConfig{
			Issuer: "otpfield",
			Period: 30,
			Skew:   1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".otpfield", "config.yaml")
	}
	return filepath.Join(dir, "otpfield", "config.yaml")
}

// Load reads the config at path on top of the defaults. A missing file
// yields the defaults. The secret environment override is applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if secret := os.Getenv(EnvTOTPSecret); secret != "" {
		cfg.TOTP.Secret = secret
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories. The file may hold a
// TOTP secret, so it is only readable by the owner.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports every problem with cfg. Field problems are advisory and
// are normalized when the field is built.
func (c Config) Validate() error {
	var errs []error
	if err := c.FieldOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.TOTP.Secret != "" && c.TOTP.Period == 0 {
		errs = append(errs, ErrInvalidPeriod)
	}
	if c.TOTP.Secret != "" && c.Length != 6 && c.Length != 8 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrLengthDigitsMismatch, c.Length))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level))
	}
	return errors.Join(errs...)
}

// FieldOptions maps the config onto field options. Callbacks and logger are
// left for the caller.
func (c Config) FieldOptions() otp.Options {
	return otp.Options{
		Length:       c.Length,
		Value:        c.Value,
		Placeholder:  c.Placeholder,
		Separator:    c.Separator,
		InputType:    otp.InputType(c.InputType),
		Disabled:     c.Disabled,
		ReadOnly:     c.ReadOnly,
		DefaultFocus: c.DefaultFocus,
	}
}
