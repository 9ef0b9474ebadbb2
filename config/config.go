// Package config holds the persistent settings of the e2ee engine and the
// per-conversation enable rules.
//
// Settings are stored as TOML. Environment variables override file values:
//
//	E2EE_FORCE_ENCRYPTION      refuse to send unencrypted to mixed destinations
//	E2EE_ENCRYPTED_INDICATOR   show the encrypted-message indicator
//	E2EE_LOCALE                locale of placeholders and dialogs (e.g. "de")
//	E2EE_RULE_MODE             "whitelist" or "blacklist"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvForceEncryption    = "E2EE_FORCE_ENCRYPTION"
	EnvEncryptedIndicator = "E2EE_ENCRYPTED_INDICATOR"
	EnvLocale             = "E2EE_LOCALE"
	EnvRuleMode           = "E2EE_RULE_MODE"
)

const (
	defaultCacheSize = 100
	maxCacheSize     = 1 << 20
)

// Config is the persistent e2ee configuration.
type Config struct {
	// ForceEncryption refuses sends that would reach a destination without
	// end-to-end encryption.
	ForceEncryption bool `toml:"force_encryption"`
	// EncryptedIndicator shows a marker on encrypted messages.
	EncryptedIndicator bool   `toml:"encrypted_indicator"`
	Locale             string `toml:"locale"`

	KeyCacheSize     int `toml:"key_cache_size"`
	MessageCacheSize int `toml:"message_cache_size"`

	RuleMode RuleMode `toml:"rule_mode"`
	// Conversations lists the conversation ids named by the rule: enabled ids
	// in whitelist mode, disabled ids in blacklist mode.
	Conversations []string `toml:"conversations"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		EncryptedIndicator: true,
		Locale:             "en",
		KeyCacheSize:       defaultCacheSize,
		MessageCacheSize:   defaultCacheSize,
		RuleMode:           RuleWhitelist,
	}
}

// Load reads the configuration at path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from the given .env files into the
// process environment without overriding variables that are already set.
// Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from E2EE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := lookupEnv(EnvForceEncryption); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean, got %q", EnvForceEncryption, v)
		}
		c.ForceEncryption = b
	}
	if v, ok := lookupEnv(EnvEncryptedIndicator); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean, got %q", EnvEncryptedIndicator, v)
		}
		c.EncryptedIndicator = b
	}
	if v, ok := lookupEnv(EnvLocale); ok {
		c.Locale = v
	}
	if v, ok := lookupEnv(EnvRuleMode); ok {
		c.RuleMode = RuleMode(strings.ToLower(v))
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.RuleMode {
	case RuleWhitelist, RuleBlacklist:
	default:
		return fmt.Errorf("invalid rule_mode %q (expected whitelist|blacklist)", c.RuleMode)
	}
	if c.KeyCacheSize <= 0 || c.KeyCacheSize > maxCacheSize {
		return fmt.Errorf("key_cache_size must be between 1 and %d, got %d", maxCacheSize, c.KeyCacheSize)
	}
	if c.MessageCacheSize <= 0 || c.MessageCacheSize > maxCacheSize {
		return fmt.Errorf("message_cache_size must be between 1 and %d, got %d", maxCacheSize, c.MessageCacheSize)
	}
	return nil
}

// Save writes the configuration to path as TOML, replacing it atomically.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func lookupEnv(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
