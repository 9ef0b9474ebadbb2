package e2ee

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/quietline/e2ee/config"
	"github.com/quietline/e2ee/internal/keystore"
)

func TestDefaultConstants(t *testing.T) {
	if defaultKeyCacheSize != 100 {
		t.Errorf("defaultKeyCacheSize = %d, want 100", defaultKeyCacheSize)
	}
	if defaultMessageCacheSize != 100 {
		t.Errorf("defaultMessageCacheSize = %d, want 100", defaultMessageCacheSize)
	}
	if defaultLocale != "en" {
		t.Errorf("defaultLocale = %s, want en", defaultLocale)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.logger == nil {
		t.Error("logger is nil")
	}
	if !cfg.encryptedIndicator {
		t.Error("encryptedIndicator = false, want true")
	}
	if cfg.forceEncryption {
		t.Error("forceEncryption = true, want false")
	}
}

func TestWithLogger(t *testing.T) {
	cfg := defaultConfig()
	l := zap.NewExample()
	WithLogger(l)(cfg)
	if cfg.logger != l {
		t.Error("logger was not set")
	}
	WithLogger(nil)(cfg)
	if cfg.logger != l {
		t.Error("nil logger replaced the logger")
	}
}

func TestWithStorage(t *testing.T) {
	cfg := &engineConfig{}
	keys := keystore.NewMemoryStorage()
	pairing := keystore.NewMemoryStorage()
	WithKeyStorage(keys)(cfg)
	WithPairingStorage(pairing)(cfg)
	if cfg.keyStorage != keys || cfg.pairingStorage != pairing {
		t.Error("storage was not set")
	}

	WithDataDir("/data")(cfg)
	WithKeyDatabase("/data/keys.db")(cfg)
	WithDeviceSecret([]byte("secret"))(cfg)
	if cfg.dataDir != "/data" || cfg.keyDatabase != "/data/keys.db" || string(cfg.deviceSecret) != "secret" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestWithCacheSizes(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"positive", 10, 10},
		{"zero keeps default", 0, 100},
		{"negative keeps default", -1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			WithKeyCacheSize(tt.n)(cfg)
			WithMessageCacheSize(tt.n)(cfg)
			if cfg.keyCacheSize != tt.want || cfg.messageCacheSize != tt.want {
				t.Errorf("sizes = %d, %d; want %d", cfg.keyCacheSize, cfg.messageCacheSize, tt.want)
			}
		})
	}
}

func TestWithFlags(t *testing.T) {
	cfg := defaultConfig()
	WithForceEncryption(true)(cfg)
	WithEncryptedIndicator(false)(cfg)
	WithLocale("de")(cfg)
	if !cfg.forceEncryption || cfg.encryptedIndicator || cfg.locale != "de" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestWithMetricsRegisterer(t *testing.T) {
	cfg := defaultConfig()
	reg := prometheus.NewRegistry()
	WithMetricsRegisterer(reg)(cfg)
	if cfg.registerer != reg {
		t.Error("registerer was not set")
	}
}

func TestWithConfig(t *testing.T) {
	settings := config.Default()
	settings.ForceEncryption = true
	settings.EncryptedIndicator = false
	settings.Locale = "de"
	settings.KeyCacheSize = 5
	settings.MessageCacheSize = 7

	cfg := defaultConfig()
	WithConfig(settings)(cfg)
	if cfg.settings != settings {
		t.Error("settings were not kept")
	}
	if !cfg.forceEncryption || cfg.encryptedIndicator || cfg.locale != "de" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.keyCacheSize != 5 || cfg.messageCacheSize != 7 {
		t.Errorf("cache sizes = %d, %d", cfg.keyCacheSize, cfg.messageCacheSize)
	}

	// later options win
	WithForceEncryption(false)(cfg)
	if cfg.forceEncryption {
		t.Error("option after WithConfig did not override")
	}

	WithConfig(nil)(cfg)
	if cfg.settings != settings {
		t.Error("nil config replaced settings")
	}
}
