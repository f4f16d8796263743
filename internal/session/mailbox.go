// Package session holds the connection-side of the Notion linking flow: the
// completion-marker mailbox shared between the popup context and the main
// application, the popup closure detector, and the in-memory session state.
package session

import (
	"sync"

	"gorm.io/gorm"

	"github.com/pysugar/notion-nexus/internal/db"
)

// Marker is the typed payload signalling that an authorization exchange has
// finished: the local user the credential was stored under and the bot
// identity Notion assigned.
type Marker struct {
	UserID string
	BotID  string
}

// Complete reports whether both identifiers are present.
func (m Marker) Complete() bool {
	return m.UserID != "" && m.BotID != ""
}

// MarkerState distinguishes a slot that was never written from one that was
// written and from one that has already been consumed.
type MarkerState int

const (
	MarkerEmpty MarkerState = iota
	MarkerUnconsumed
	MarkerConsumed
)

// Mailbox is a one-shot, single-writer/single-reader slot, not a queue: a
// second Publish before the first Take overwrites.
type Mailbox interface {
	// Publish writes the marker, resetting any consumed state.
	Publish(m Marker) error
	// Take reads and consumes the marker. ok is false when the slot is
	// empty or already consumed.
	Take() (m Marker, ok bool, err error)
	// Peek reports the slot contents without consuming.
	Peek() (Marker, MarkerState, error)
}

// MemoryMailbox is a process-local Mailbox, used in tests and single-process
// setups.
type MemoryMailbox struct {
	mu     sync.Mutex
	marker Marker
	state  MarkerState
}

func NewMemoryMailbox() *MemoryMailbox {
	return &MemoryMailbox{}
}

func (b *MemoryMailbox) Publish(m Marker) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marker = m
	b.state = MarkerUnconsumed
	return nil
}

func (b *MemoryMailbox) Take() (Marker, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != MarkerUnconsumed {
		return Marker{}, false, nil
	}
	b.state = MarkerConsumed
	return b.marker, true, nil
}

func (b *MemoryMailbox) Peek() (Marker, MarkerState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == MarkerEmpty {
		return Marker{}, MarkerEmpty, nil
	}
	return b.marker, b.state, nil
}

// Setting keys backing the durable mailbox.
const (
	markerUserIDKey   = "notion_marker_user_id"
	markerBotIDKey    = "notion_marker_bot_id"
	markerConsumedKey = "notion_marker_consumed"
)

// StoreMailbox is a Mailbox persisted in the settings table, so a marker
// survives a process restart the way the connection state is expected to.
type StoreMailbox struct {
	mu sync.Mutex
	db *gorm.DB
}

func NewStoreMailbox(gdb *gorm.DB) *StoreMailbox {
	return &StoreMailbox{db: gdb}
}

func (b *StoreMailbox) Publish(m Marker) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := db.SetSetting(b.db, markerUserIDKey, m.UserID); err != nil {
		return err
	}
	if err := db.SetSetting(b.db, markerBotIDKey, m.BotID); err != nil {
		return err
	}
	return db.SetSetting(b.db, markerConsumedKey, "false")
}

func (b *StoreMailbox) Take() (Marker, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, state, err := b.read()
	if err != nil || state != MarkerUnconsumed {
		return Marker{}, false, err
	}
	if err := db.SetSetting(b.db, markerConsumedKey, "true"); err != nil {
		return Marker{}, false, err
	}
	return m, true, nil
}

func (b *StoreMailbox) Peek() (Marker, MarkerState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read()
}

func (b *StoreMailbox) read() (Marker, MarkerState, error) {
	userID, err := db.GetSetting(b.db, markerUserIDKey)
	if err != nil {
		return Marker{}, MarkerEmpty, err
	}
	botID, err := db.GetSetting(b.db, markerBotIDKey)
	if err != nil {
		return Marker{}, MarkerEmpty, err
	}
	if userID == "" && botID == "" {
		return Marker{}, MarkerEmpty, nil
	}
	consumed, err := db.GetSetting(b.db, markerConsumedKey)
	if err != nil {
		return Marker{}, MarkerEmpty, err
	}
	m := Marker{UserID: userID, BotID: botID}
	if consumed == "true" {
		return m, MarkerConsumed, nil
	}
	return m, MarkerUnconsumed, nil
}
