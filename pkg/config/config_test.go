package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dicklesworthstone/otpfield/pkg/otp"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvTOTPSecret, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Length != 6 || cfg.InputType != "text" || !cfg.DefaultFocus {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.TOTP.Period != 30 {
		t.Errorf("Expected default period 30, got %d", cfg.TOTP.Period)
	}
}

func TestLoad_OverlaysFile(t *testing.T) {
	t.Setenv(EnvTOTPSecret, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
length: 4
separator: "-"
input_type: password
totp:
  secret: JBSWY3DPEHPK3PXP
history:
  path: /tmp/attempts.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Length != 4 || cfg.Separator != "-" || cfg.InputType != "password" {
		t.Errorf("Expected file values, got %+v", cfg)
	}
	if cfg.TOTP.Secret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("Expected secret from file, got %q", cfg.TOTP.Secret)
	}
	// Unset keys keep their defaults
	if cfg.TOTP.Period != 30 || cfg.TOTP.Issuer != "otpfield" {
		t.Errorf("Expected default totp settings, got %+v", cfg.TOTP)
	}
	if cfg.History.Path != "/tmp/attempts.db" {
		t.Errorf("Expected history path, got %q", cfg.History.Path)
	}
}

func TestLoad_EnvSecretOverride(t *testing.T) {
	t.Setenv(EnvTOTPSecret, "GEZDGNBVGY3TQOJQ")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TOTP.Secret != "GEZDGNBVGY3TQOJQ" {
		t.Errorf("Expected env secret, got %q", cfg.TOTP.Secret)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("length: [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(EnvTOTPSecret, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Length = 8
	cfg.Placeholder = "_"
	cfg.TOTP.Secret = "JBSWY3DPEHPK3PXP"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected mode 0600, got %o", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != cfg {
		t.Errorf("Expected %+v, got %+v", cfg, got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}

	cfg.Length = 0
	cfg.Placeholder = "ab"
	cfg.Log.Level = "loud"
	cfg.TOTP.Secret = "X"
	cfg.TOTP.Period = 0
	err := cfg.Validate()
	for _, want := range []error{otp.ErrInvalidLength, otp.ErrInvalidPlaceholder, ErrInvalidLogLevel, ErrInvalidPeriod} {
		if !errors.Is(err, want) {
			t.Errorf("Expected %v in %v", want, err)
		}
	}
}

func TestValidate_SecretNeedsAuthenticatorLength(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		secret  string
		wantErr bool
	}{
		{"six digits", 6, "JBSWY3DPEHPK3PXP", false},
		{"eight digits", 8, "JBSWY3DPEHPK3PXP", false},
		{"four digits", 4, "JBSWY3DPEHPK3PXP", true},
		{"seven digits", 7, "JBSWY3DPEHPK3PXP", true},
		{"no secret", 4, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Length = tt.length
			cfg.TOTP.Secret = tt.secret
			err := cfg.Validate()
			if got := errors.Is(err, ErrLengthDigitsMismatch); got != tt.wantErr {
				t.Errorf("Expected mismatch=%v, got err %v", tt.wantErr, err)
			}
		})
	}
}

func TestFieldOptions(t *testing.T) {
	cfg := Default()
	cfg.Length = 4
	cfg.Value = "12"
	cfg.InputType = "password"
	cfg.ReadOnly = true

	opts := cfg.FieldOptions()
	if opts.Length != 4 || opts.Value != "12" || opts.InputType != otp.InputPassword || !opts.ReadOnly {
		t.Errorf("Unexpected options %+v", opts)
	}
	if opts.OnChange != nil || opts.OnComplete != nil {
		t.Error("Expected callbacks to be left unset")
	}
}
