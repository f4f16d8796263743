package handlers

import (
	"context"
	"net/http"

	"github.com/pysugar/notion-nexus/internal/notionapi"
	"github.com/pysugar/notion-nexus/internal/session"
	"github.com/pysugar/notion-nexus/internal/store"
)

// SessionHandler exposes the current session state.
// GET /api/session
func SessionHandler(state *session.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"connected":   state.Connected(),
			"dataSources": state.DataSources(),
		})
	}
}

// StoreLister adapts the credential store plus the Notion API into the
// session's data-source listing dependency.
type StoreLister struct {
	Store      *store.Service
	APIBaseURL string
	HTTPClient *http.Client
}

func (l *StoreLister) ListDataSources(ctx context.Context, userID string) ([]session.DataSource, error) {
	cred, err := l.Store.Lookup(userID)
	if err != nil {
		return nil, err
	}
	client := notionapi.NewClient(l.APIBaseURL, cred.AccessToken, l.HTTPClient)
	databases, err := client.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}
	sources := make([]session.DataSource, 0, len(databases))
	for _, db := range databases {
		sources = append(sources, session.DataSource{ID: db.ID, Title: db.Title})
	}
	return sources, nil
}
