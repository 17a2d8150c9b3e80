// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signal hands one-shot intents between screens that have no
// other connection to each other: a search typed in the header that the
// bug list should apply, a project the bug list should pre-filter on,
// the project a project-bugs screen should show.
//
// Slots are named by typed keys ([Key]), so a writer and reader cannot
// disagree about what a slot holds. [Write] snapshots the value (it is
// CBOR-encoded on write, so later mutation by the writer is not
// observed) and replaces any unread entry under the same key.
// [ReadAndClear] returns the value and removes it in one step; a second
// read reports absence. Entries older than the channel's TTL are treated
// as absent.
//
// Delivery is best-effort: an entry whose reader never appears just sits
// until it is overwritten or expires.
package signal

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/bugdesk/lib/clock"
	"github.com/bureau-foundation/bugdesk/lib/codec"
)

// DefaultTTL is how long an unread entry stays valid.
const DefaultTTL = 10 * time.Minute

// Key names a slot holding values of type T.
type Key[T any] struct {
	name string
}

// NewKey returns a key for the named slot. Names must be unique per
// channel; the well-known keys are declared in this package.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the slot name.
func (k Key[T]) Name() string { return k.name }

// Entry is one stored signal.
type Entry struct {
	Payload   codec.RawMessage `cbor:"payload"`
	WrittenAt time.Time        `cbor:"written_at"`
}

// Config configures a Channel.
type Config struct {
	// Store holds entries. If nil, a new Memory store is used.
	Store Store
	// TTL bounds how long an unread entry is valid. Zero means
	// DefaultTTL; negative disables expiry.
	TTL time.Duration
	// Clock is used to timestamp and expire entries. If nil, clock.Real().
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Channel is the shared relay. It is safe for concurrent use.
type Channel struct {
	mu     sync.Mutex
	store  Store
	ttl    time.Duration
	clock  clock.Clock
	logger *slog.Logger
}

// NewChannel creates a channel.
func NewChannel(config Config) *Channel {
	store := config.Store
	if store == nil {
		store = NewMemory()
	}
	ttl := config.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{store: store, ttl: ttl, clock: clk, logger: logger}
}

// Write stores value under key, replacing any unread entry.
func Write[T any](channel *Channel, key Key[T], value T) error {
	payload, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("signal: encoding %s: %w", key.name, err)
	}

	channel.mu.Lock()
	defer channel.mu.Unlock()

	entry := Entry{Payload: payload, WrittenAt: channel.clock.Now().UTC()}
	if err := channel.store.Put(key.name, entry); err != nil {
		return fmt.Errorf("signal: writing %s: %w", key.name, err)
	}
	channel.logger.Debug("signal written", "key", key.name)
	return nil
}

// ReadAndClear returns the value under key and removes it. ok is false
// when there is no entry, when it has expired, or when it cannot be read
// (which is logged).
func ReadAndClear[T any](channel *Channel, key Key[T]) (value T, ok bool) {
	channel.mu.Lock()
	defer channel.mu.Unlock()

	entry, found, err := channel.store.Take(key.name)
	if err != nil {
		channel.logger.Warn("signal read failed", "key", key.name, "error", err)
		return value, false
	}
	if !found {
		return value, false
	}
	if channel.expired(entry) {
		channel.logger.Debug("signal expired", "key", key.name, "written_at", entry.WrittenAt)
		return value, false
	}
	if err := codec.Unmarshal(entry.Payload, &value); err != nil {
		channel.logger.Warn("signal payload unreadable", "key", key.name, "error", err)
		var zero T
		return zero, false
	}
	return value, true
}

// Clear removes any entry under key without reading it.
func Clear[T any](channel *Channel, key Key[T]) {
	channel.mu.Lock()
	defer channel.mu.Unlock()

	if _, _, err := channel.store.Take(key.name); err != nil {
		channel.logger.Warn("signal clear failed", "key", key.name, "error", err)
	}
}

func (c *Channel) expired(entry Entry) bool {
	if c.ttl < 0 {
		return false
	}
	return clock.Since(c.clock, entry.WrittenAt) > c.ttl
}
