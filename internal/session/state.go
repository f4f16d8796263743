package session

import (
	"context"
	"log"
	"sync"
)

// DataSource is one structured data source (a Notion database) offered by
// the linked workspace.
type DataSource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DataSourceLister fetches the data sources available to a linked user.
type DataSourceLister interface {
	ListDataSources(ctx context.Context, userID string) ([]DataSource, error)
}

// State is the process-local session: a connected flag plus the cached
// data-source list. It is rebuilt from the completion marker; only the
// underlying credential is durable.
type State struct {
	mu          sync.RWMutex
	connected   bool
	userID      string
	dataSources []DataSource
}

func NewState() *State {
	return &State{}
}

func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *State) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *State) DataSources() []DataSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DataSource, len(s.dataSources))
	copy(out, s.dataSources)
	return out
}

func (s *State) setConnected(userID string, sources []DataSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.userID = userID
	s.dataSources = sources
}

// CheckConnection rehydrates the session at process start. A marker left by
// a prior session, consumed or not, optimistically flips the state to
// connected and triggers the initial data-source listing. No verification
// call is made against the stored credential.
func (s *State) CheckConnection(ctx context.Context, mb Mailbox, lister DataSourceLister) bool {
	marker, state, err := mb.Peek()
	if err != nil {
		log.Printf("⚠️ Failed to read completion marker: %v", err)
		return false
	}
	if state == MarkerEmpty || !marker.Complete() {
		return false
	}

	sources, err := lister.ListDataSources(ctx, marker.UserID)
	if err != nil {
		log.Printf("⚠️ Initial data-source listing failed for user %s: %v", marker.UserID, err)
		sources = nil
	}
	s.setConnected(marker.UserID, sources)
	log.Printf("🔗 Session rehydrated as connected (user %s, bot %s)", marker.UserID, marker.BotID)
	return true
}
