package e2ee

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/quietline/e2ee/config"
	"github.com/quietline/e2ee/internal/cache"
	"github.com/quietline/e2ee/internal/keystore"
)

const (
	defaultKeyCacheSize     = keystore.DefaultCapacity
	defaultMessageCacheSize = cache.DefaultCapacity
	defaultLocale           = "en"

	keyDirName     = "e2ee"
	pairingDirName = "e2ee-pairing"
)

// engineConfig holds configuration for the engine.
type engineConfig struct {
	logger *zap.Logger

	keyStorage     keystore.Storage
	pairingStorage keystore.Storage
	dataDir        string
	keyDatabase    string
	deviceSecret   []byte

	keyCacheSize     int
	messageCacheSize int
	locale           string
	registerer       prometheus.Registerer

	forceEncryption    bool
	encryptedIndicator bool

	settings *config.Config
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		logger:             zap.NewNop(),
		keyCacheSize:       defaultKeyCacheSize,
		messageCacheSize:   defaultMessageCacheSize,
		locale:             defaultLocale,
		encryptedIndicator: true,
	}
}

// Option configures the engine.
type Option func(*engineConfig)

// WithLogger sets the logger. Default: a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithKeyStorage sets the durable storage for shared keys.
// Default: in-memory storage, or files under the data directory when
// WithDataDir is set.
func WithKeyStorage(s keystore.Storage) Option {
	return func(c *engineConfig) {
		c.keyStorage = s
	}
}

// WithPairingStorage sets the storage for ephemeral private keys. It must
// implement keystore.Wiper: the pairing area is wiped when the engine starts.
func WithPairingStorage(s keystore.Storage) Option {
	return func(c *engineConfig) {
		c.pairingStorage = s
	}
}

// WithDataDir stores shared keys as files under dir/e2ee and ephemeral
// private keys under dir/e2ee-pairing.
func WithDataDir(dir string) Option {
	return func(c *engineConfig) {
		c.dataDir = dir
	}
}

// WithKeyDatabase stores shared keys in the SQLite database at path. It takes
// precedence over WithDataDir for shared keys.
func WithKeyDatabase(path string) Option {
	return func(c *engineConfig) {
		c.keyDatabase = path
	}
}

// WithDeviceSecret encrypts shared keys at rest under a key derived from secret.
func WithDeviceSecret(secret []byte) Option {
	return func(c *engineConfig) {
		c.deviceSecret = secret
	}
}

// WithKeyCacheSize sets how many shared keys are kept in memory.
// Default: 100
func WithKeyCacheSize(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.keyCacheSize = n
		}
	}
}

// WithMessageCacheSize sets how many decrypted messages are kept in memory.
// Default: 100
func WithMessageCacheSize(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.messageCacheSize = n
		}
	}
}

// WithLocale sets the language of placeholders, toasts and dialogs.
// Default: "en"
func WithLocale(tag string) Option {
	return func(c *engineConfig) {
		c.locale = tag
	}
}

// WithMetricsRegisterer registers the engine's metrics on reg.
// Default: a private registry.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *engineConfig) {
		c.registerer = reg
	}
}

// WithForceEncryption refuses sends to mixed destinations instead of sending
// them unencrypted.
func WithForceEncryption(force bool) Option {
	return func(c *engineConfig) {
		c.forceEncryption = force
	}
}

// WithEncryptedIndicator sets whether ShowIndicator may report encrypted
// messages. Default: true
func WithEncryptedIndicator(show bool) Option {
	return func(c *engineConfig) {
		c.encryptedIndicator = show
	}
}

// WithConfig applies persistent settings: force encryption, the indicator,
// locale and cache sizes. Options after it override its values. When the
// engine has no Rules dependency, the configuration's rules are used.
func WithConfig(cfg *config.Config) Option {
	return func(c *engineConfig) {
		if cfg == nil {
			return
		}
		c.settings = cfg
		c.forceEncryption = cfg.ForceEncryption
		c.encryptedIndicator = cfg.EncryptedIndicator
		if cfg.Locale != "" {
			c.locale = cfg.Locale
		}
		if cfg.KeyCacheSize > 0 {
			c.keyCacheSize = cfg.KeyCacheSize
		}
		if cfg.MessageCacheSize > 0 {
			c.messageCacheSize = cfg.MessageCacheSize
		}
	}
}
