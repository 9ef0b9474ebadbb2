package config

import (
	"slices"
	"sync"
)

// RuleMode selects how Rules interprets its conversation list.
type RuleMode string

const (
	// RuleWhitelist enables encryption only for listed conversations.
	RuleWhitelist RuleMode = "whitelist"
	// RuleBlacklist enables encryption for every conversation not listed.
	RuleBlacklist RuleMode = "blacklist"
)

// Rules tracks which conversations have end-to-end encryption enabled. It is
// safe for concurrent use.
type Rules struct {
	mu     sync.RWMutex
	mode   RuleMode
	listed map[string]struct{}
	// persist is called with the new list after every change.
	persist func(mode RuleMode, conversations []string) error
}

// NewRules returns in-memory rules in mode naming conversations.
func NewRules(mode RuleMode, conversations []string) *Rules {
	r := &Rules{mode: mode, listed: make(map[string]struct{}, len(conversations))}
	for _, id := range conversations {
		r.listed[id] = struct{}{}
	}
	return r
}

// Rules returns rules built from the configuration. Changes are written back
// to c and, when path is not empty, saved to path.
func (c *Config) Rules(path string) *Rules {
	r := NewRules(c.RuleMode, c.Conversations)
	r.persist = func(mode RuleMode, conversations []string) error {
		c.RuleMode = mode
		c.Conversations = conversations
		if path == "" {
			return nil
		}
		return c.Save(path)
	}
	return r
}

// Mode returns the rule mode.
func (r *Rules) Mode() RuleMode {
	return r.mode
}

// Enabled reports whether encryption is enabled for conversationID.
func (r *Rules) Enabled(conversationID string) bool {
	r.mu.RLock()
	_, listed := r.listed[conversationID]
	r.mu.RUnlock()
	if r.mode == RuleBlacklist {
		return !listed
	}
	return listed
}

// SetEnabled enables or disables encryption for conversationID.
func (r *Rules) SetEnabled(conversationID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := enabled
	if r.mode == RuleBlacklist {
		list = !enabled
	}
	_, listed := r.listed[conversationID]
	if list == listed {
		return nil
	}
	if list {
		r.listed[conversationID] = struct{}{}
	} else {
		delete(r.listed, conversationID)
	}

	if r.persist == nil {
		return nil
	}
	return r.persist(r.mode, r.conversationsLocked())
}

// Conversations returns the listed conversation ids, sorted.
func (r *Rules) Conversations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conversationsLocked()
}

func (r *Rules) conversationsLocked() []string {
	ids := make([]string, 0, len(r.listed))
	for id := range r.listed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
