package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pysugar/notion-nexus/internal/store"
)

// DatabasesHandler lists every database the linked workspace exposes.
// GET /api/notion/databases?userId=...
func DatabasesHandler(st *store.Service, apiBaseURL string, httpClient *http.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			writeError(w, "User ID is required")
			return
		}

		client, errMsg := notionClientFor(st, apiBaseURL, userID, httpClient)
		if errMsg != "" {
			writeError(w, errMsg)
			return
		}

		databases, err := client.ListDatabases(r.Context())
		if err != nil {
			log.Printf("❌ Failed to fetch Notion databases for user %s: %v", userID, err)
			writeError(w, "Failed to fetch databases")
			return
		}

		writeJSON(w, map[string]interface{}{"success": true, "databases": databases})
	}
}

// SearchDatabasesHandler searches databases by title.
// GET /api/notion/databases/search?userId=...&query=...
func SearchDatabasesHandler(st *store.Service, apiBaseURL string, httpClient *http.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		query := r.URL.Query().Get("query")
		if userID == "" {
			writeError(w, "User ID is required")
			return
		}
		if len(query) < 3 {
			writeError(w, "Search query must be at least 3 characters")
			return
		}

		client, errMsg := notionClientFor(st, apiBaseURL, userID, httpClient)
		if errMsg != "" {
			writeError(w, errMsg)
			return
		}

		databases, err := client.SearchDatabases(r.Context(), query)
		if err != nil {
			log.Printf("❌ Failed to search Notion databases for user %s: %v", userID, err)
			writeError(w, "Failed to search databases")
			return
		}

		writeJSON(w, map[string]interface{}{"success": true, "databases": databases})
	}
}

// DatabaseSchemaHandler retrieves and annotates one database's properties.
// GET /api/notion/databases/{databaseID}/schema?userId=...
func DatabaseSchemaHandler(st *store.Service, apiBaseURL string, httpClient *http.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		databaseID := chi.URLParam(r, "databaseID")
		userID := r.URL.Query().Get("userId")
		if databaseID == "" {
			writeError(w, "Database ID is required")
			return
		}
		if userID == "" {
			writeError(w, "User ID is required")
			return
		}

		client, errMsg := notionClientFor(st, apiBaseURL, userID, httpClient)
		if errMsg != "" {
			writeError(w, errMsg)
			return
		}

		schema, err := client.RetrieveDatabaseSchema(r.Context(), databaseID)
		if err != nil {
			log.Printf("❌ Failed to fetch schema %s for user %s: %v", databaseID, userID, err)
			writeError(w, "Failed to fetch database schema")
			return
		}

		writeJSON(w, map[string]interface{}{"success": true, "database": schema})
	}
}
