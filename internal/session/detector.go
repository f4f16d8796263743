package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/pysugar/notion-nexus/internal/config"
)

// Window is a detached authorization window. The only signal it offers back
// to the opener is whether it has been closed; everything else crosses via
// the Mailbox.
type Window interface {
	Closed() bool
}

// Opener opens the provider's authorization page in a new window.
type Opener interface {
	Open(url string) (Window, error)
}

// Detector states.
type DetectorState int

const (
	StateIdle DetectorState = iota
	StateAwaitingAuthorization
	StateDetecting
	StateConnected
	StateFailed
)

func (s DetectorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAuthorization:
		return "awaiting_authorization"
	case StateDetecting:
		return "detecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	// ErrPopupBlocked means the authorization window could not be opened.
	ErrPopupBlocked = errors.New("authorization window could not be opened")
	// ErrNoMarker means the window closed without a usable completion
	// marker: the user closed it early, or the marker write lost the race
	// against the grace delay.
	ErrNoMarker = errors.New("authorization window closed without a completion marker")
	// ErrConnectTimeout means the window stayed open past the configured
	// bound.
	ErrConnectTimeout = errors.New("timed out waiting for the authorization window to close")
)

// Detector drives one linking attempt: open the authorization window, poll
// for its closure, read the completion marker, and flip the session state.
// Polling is the coordination primitive; there is no callback channel from
// the detached window besides the mailbox.
type Detector struct {
	cfg     config.DetectorConfig
	authURL string
	opener  Opener
	mailbox Mailbox
	state   *State
	lister  DataSourceLister

	mu        sync.Mutex
	current   DetectorState
	pollTicks int
}

func NewDetector(cfg config.DetectorConfig, authURL string, opener Opener, mb Mailbox, state *State, lister DataSourceLister) *Detector {
	return &Detector{
		cfg:     cfg,
		authURL: authURL,
		opener:  opener,
		mailbox: mb,
		state:   state,
		lister:  lister,
		current: StateIdle,
	}
}

// CurrentState returns the detector's state.
func (d *Detector) CurrentState() DetectorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// PollTicks returns how many closure checks have run.
func (d *Detector) PollTicks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pollTicks
}

func (d *Detector) transition(to DetectorState) {
	d.mu.Lock()
	d.current = to
	d.mu.Unlock()
}

// Connect runs the linking flow to a terminal state. It blocks until the
// window closes, the timeout elapses, or ctx is cancelled. Closing the
// window before authorizing yields ErrNoMarker with no partial credential
// written: the exchange happens entirely on the redirect side.
func (d *Detector) Connect(ctx context.Context) error {
	d.transition(StateAwaitingAuthorization)

	win, err := d.opener.Open(d.authURL)
	if err != nil || win == nil {
		d.transition(StateFailed)
		log.Printf("❌ Failed to open authorization window: %v", err)
		return ErrPopupBlocked
	}

	d.transition(StateDetecting)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(d.cfg.Timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			d.transition(StateFailed)
			return ctx.Err()
		case <-deadline.C:
			d.transition(StateFailed)
			return ErrConnectTimeout
		case <-ticker.C:
			d.mu.Lock()
			d.pollTicks++
			d.mu.Unlock()
			if win.Closed() {
				ticker.Stop()
				return d.finish(ctx)
			}
		}
	}
}

// finish waits out the grace delay, then reads the marker exactly once.
// The delay gives the redirect-side marker write time to land; it is a best
// effort, not a guarantee, and a slow exchange can still lose the race.
func (d *Detector) finish(ctx context.Context) error {
	select {
	case <-ctx.Done():
		d.transition(StateFailed)
		return ctx.Err()
	case <-time.After(d.cfg.GraceDelay):
	}

	marker, ok, err := d.mailbox.Take()
	if err != nil {
		d.transition(StateFailed)
		log.Printf("❌ Failed to read completion marker: %v", err)
		return ErrNoMarker
	}
	if !ok || !marker.Complete() {
		d.transition(StateFailed)
		return ErrNoMarker
	}

	sources, err := d.lister.ListDataSources(ctx, marker.UserID)
	if err != nil {
		log.Printf("⚠️ Initial data-source listing failed for user %s: %v", marker.UserID, err)
		sources = nil
	}
	d.state.setConnected(marker.UserID, sources)
	d.transition(StateConnected)
	log.Printf("🔗 Workspace linked (user %s, bot %s, %d data sources)", marker.UserID, marker.BotID, len(sources))
	return nil
}
