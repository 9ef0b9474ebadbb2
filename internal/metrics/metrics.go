// Package metrics holds the Prometheus collectors of the e2ee engine.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "e2ee"

// Metrics is the set of collectors registered for one engine.
type Metrics struct {
	// Encrypt counts outgoing messages by outcome (encrypted, passthrough,
	// refused, failed).
	Encrypt *prometheus.CounterVec
	// Blocks counts encrypted blocks written.
	Blocks prometheus.Counter
	// Decrypt counts decryption results by status.
	Decrypt *prometheus.CounterVec
	// CacheLookups counts decryption cache lookups by result (hit, miss).
	CacheLookups *prometheus.CounterVec
	// Handshakes counts handshake steps (initiated, accepted_request,
	// accepted_response, declined, failed).
	Handshakes *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. Collectors that are
// already registered on reg are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Encrypt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encrypt_total",
			Help:      "Outgoing messages by encryption outcome.",
		}, []string{"outcome"}),
		Blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encrypted_blocks_total",
			Help:      "Encrypted recipient blocks written.",
		}),
		Decrypt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decrypt_total",
			Help:      "Decrypted message bodies by status.",
		}, []string{"status"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decryption_cache_lookups_total",
			Help:      "Decryption cache lookups by result.",
		}, []string{"result"}),
		Handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_steps_total",
			Help:      "Key exchange steps by kind.",
		}, []string{"step"}),
	}

	var err error
	if m.Encrypt, err = register(reg, m.Encrypt); err != nil {
		return nil, err
	}
	if m.Blocks, err = register(reg, m.Blocks); err != nil {
		return nil, err
	}
	if m.Decrypt, err = register(reg, m.Decrypt); err != nil {
		return nil, err
	}
	if m.CacheLookups, err = register(reg, m.CacheLookups); err != nil {
		return nil, err
	}
	if m.Handshakes, err = register(reg, m.Handshakes); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
