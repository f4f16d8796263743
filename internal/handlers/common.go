// Package handlers contains the HTTP handlers for the workspace data API,
// formula generation and session endpoints. Application-level failures are
// reported in the body with success=false; the transport status stays 200.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pysugar/notion-nexus/internal/notionapi"
	"github.com/pysugar/notion-nexus/internal/store"
)

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, message string) {
	writeJSON(w, map[string]interface{}{"success": false, "error": message})
}

// notionClientFor resolves the caller's stored access token and builds a
// Notion API client around it. The message distinguishes "no credential yet"
// from nothing else; store failures stay generic.
func notionClientFor(st *store.Service, apiBaseURL, userID string, httpClient *http.Client) (*notionapi.Client, string) {
	cred, err := st.Lookup(userID)
	if err != nil {
		return nil, "Failed to retrieve Notion access token"
	}
	return notionapi.NewClient(apiBaseURL, cred.AccessToken, httpClient), ""
}
