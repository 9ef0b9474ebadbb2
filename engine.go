package e2ee

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/quietline/e2ee/config"
	"github.com/quietline/e2ee/internal/cache"
	"github.com/quietline/e2ee/internal/exchange"
	"github.com/quietline/e2ee/internal/keystore"
	"github.com/quietline/e2ee/internal/locale"
	"github.com/quietline/e2ee/internal/message"
	"github.com/quietline/e2ee/internal/metrics"
)

// Engine adds end-to-end encryption to the messages of a host application.
// It is safe for concurrent use.
type Engine struct {
	directory Directory
	sender    Sender
	notifier  Notifier
	rules     Rules

	logger  *zap.Logger
	keys    *keystore.Store
	coord   *exchange.Coordinator
	crypto  *message.Engine
	cache   *cache.Cache
	text    *locale.Translator
	metrics *metrics.Metrics

	pending *pendingHandshakes
	subs    *listenerManager

	forceEncryption    bool
	encryptedIndicator bool

	closers []io.Closer
	mu      sync.RWMutex
	closed  bool
}

// New creates an Engine on top of the host collaborators in deps.
func New(deps Dependencies, opts ...Option) (*Engine, error) {
	if deps.Directory == nil {
		return nil, fmt.Errorf("%w: directory", ErrMissingDependency)
	}
	if deps.Sender == nil {
		return nil, fmt.Errorf("%w: sender", ErrMissingDependency)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Engine{
		directory:          deps.Directory,
		sender:             deps.Sender,
		notifier:           deps.Notifier,
		rules:              deps.Rules,
		logger:             cfg.logger.Named("e2ee"),
		pending:            newPendingHandshakes(),
		subs:               newListenerManager(),
		forceEncryption:    cfg.forceEncryption,
		encryptedIndicator: cfg.encryptedIndicator,
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.rules == nil {
		if cfg.settings != nil {
			e.rules = cfg.settings.Rules("")
		} else {
			e.rules = config.NewRules(config.RuleWhitelist, nil)
		}
	}

	if err := e.init(cfg); err != nil {
		return nil, multierr.Append(err, e.closeStorage())
	}
	return e, nil
}

func (e *Engine) init(cfg *engineConfig) error {
	keyStorage, pairing, err := e.openStorage(cfg)
	if err != nil {
		return err
	}

	e.keys, err = keystore.NewStore(keyStorage,
		keystore.WithCapacity(cfg.keyCacheSize),
		keystore.WithLogger(cfg.logger),
	)
	if err != nil {
		return fmt.Errorf("create key store: %w", err)
	}

	e.coord, err = exchange.New(e.keys, pairing, cfg.logger)
	if err != nil {
		return fmt.Errorf("create key exchange: %w", err)
	}

	e.text, err = locale.New(cfg.locale)
	if err != nil {
		return fmt.Errorf("load locale: %w", err)
	}

	e.crypto = message.NewEngine(e.keys,
		message.WithLogger(cfg.logger),
		message.WithPlaceholder(e.text.DecryptFailedText),
	)

	e.cache, err = cache.New(cfg.messageCacheSize)
	if err != nil {
		return fmt.Errorf("create decryption cache: %w", err)
	}

	reg := cfg.registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	e.metrics, err = metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	return nil
}

// openStorage resolves the shared key and pairing backends from cfg.
func (e *Engine) openStorage(cfg *engineConfig) (keys, pairing keystore.Storage, err error) {
	keys = cfg.keyStorage
	switch {
	case keys != nil:
	case cfg.keyDatabase != "":
		db, err := keystore.OpenSQLiteStorage(cfg.keyDatabase)
		if err != nil {
			return nil, nil, storageFailure("open key database", err)
		}
		e.closers = append(e.closers, db)
		keys = db
	case cfg.dataDir != "":
		fs, err := keystore.NewFileStorage(filepath.Join(cfg.dataDir, keyDirName))
		if err != nil {
			return nil, nil, storageFailure("open key directory", err)
		}
		keys = fs
	default:
		keys = keystore.NewMemoryStorage()
	}

	if len(cfg.deviceSecret) > 0 {
		sealed, err := keystore.NewSealedStorage(keys, cfg.deviceSecret)
		if err != nil {
			return nil, nil, fmt.Errorf("seal key storage: %w", err)
		}
		keys = sealed
	}

	pairing = cfg.pairingStorage
	switch {
	case pairing != nil:
	case cfg.dataDir != "":
		fs, err := keystore.NewFileStorage(filepath.Join(cfg.dataDir, pairingDirName))
		if err != nil {
			return nil, nil, storageFailure("open pairing directory", err)
		}
		pairing = fs
	default:
		pairing = keystore.NewMemoryStorage()
	}
	return keys, pairing, nil
}

func storageFailure(op string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, Err: err}
}

// Close releases the resources held by the engine. Listeners are dropped and
// every further operation returns ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.subs.clear()
	return e.closeStorage()
}

func (e *Engine) closeStorage() error {
	var err error
	for _, c := range e.closers {
		err = multierr.Append(err, c.Close())
	}
	e.closers = nil
	return err
}

// checkClosed returns ErrEngineClosed if the engine has been closed.
func (e *Engine) checkClosed() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrEngineClosed
	}
	return nil
}

// EncryptionEnabled reports whether end-to-end encryption is enabled for a
// conversation.
func (e *Engine) EncryptionEnabled(conversationID string) bool {
	return e.rules.Enabled(conversationID)
}

// SetEncryptionEnabled enables or disables end-to-end encryption for a
// conversation and notifies state listeners.
func (e *Engine) SetEncryptionEnabled(conversationID string, enabled bool) error {
	if err := e.checkClosed(); err != nil {
		return err
	}
	if err := e.rules.SetEnabled(conversationID, enabled); err != nil {
		return fmt.Errorf("update conversation rule: %w", err)
	}
	e.subs.notify(conversationID, enabled)
	return nil
}

// OnStateChange registers fn to be called whenever encryption is enabled or
// disabled for a conversation. The returned function unregisters fn.
func (e *Engine) OnStateChange(fn func(conversationID string, enabled bool)) func() {
	return e.subs.subscribe(fn)
}

// keyedParticipants returns the members of a conversation, other than the
// local user, that a shared key is established with.
func (e *Engine) keyedParticipants(ctx context.Context, conversationID string) []string {
	members, err := e.directory.Participants(ctx, conversationID)
	if err != nil {
		e.logger.Warn("failed to list conversation participants",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil
	}
	self := e.directory.SelfID()
	return slices.DeleteFunc(slices.Clone(members), func(id string) bool {
		return id == self || !e.keys.Exists(id)
	})
}
