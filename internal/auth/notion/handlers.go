package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/pysugar/notion-nexus/internal/session"
	"github.com/pysugar/notion-nexus/internal/store"
)

// connectResponse is the uniform body-level envelope. Application failures
// are carried here with success=false; the HTTP status stays 200.
type connectResponse struct {
	Success       bool   `json:"success"`
	WorkspaceName string `json:"workspaceName,omitempty"`
	WorkspaceID   string `json:"workspaceId,omitempty"`
	UserID        string `json:"userId,omitempty"`
	BotID         string `json:"botId,omitempty"`
	Error         string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, body connectResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// publicError maps an exchange failure to the message exposed to callers.
// Configuration problems stay generic so the response cannot leak which
// secret is absent.
func publicError(err error) string {
	var provErr *ProviderError
	var cfgErr *ConfigError
	var exchErr *ExchangeError
	var storeErr *store.PersistenceError
	switch {
	case errors.Is(err, ErrMissingCode), errors.Is(err, ErrMissingUserID):
		return "Authorization code or user ID is missing"
	case errors.As(err, &provErr):
		return provErr.Reason
	case errors.As(err, &cfgErr):
		return "Server configuration error"
	case errors.As(err, &exchErr):
		return "Failed to exchange authorization code for access token"
	case errors.As(err, &storeErr):
		return "Internal server error"
	default:
		return "Internal server error"
	}
}

// ConnectHandler accepts the direct delivery shape: POST {code, userId}
// from the frontend. On success it publishes the completion marker so the
// popup detector can observe the finished exchange.
func ConnectHandler(ex *Exchanger, mb session.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code   string `json:"code"`
			UserID string `json:"userId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, connectResponse{Success: false, Error: "Invalid request body"})
			return
		}
		if body.Code == "" || body.UserID == "" {
			writeJSON(w, connectResponse{Success: false, Error: "Authorization code or user ID is missing"})
			return
		}

		result, err := ex.Exchange(r.Context(), body.Code, body.UserID)
		if err != nil {
			log.Printf("❌ Notion connect failed: %v", err)
			writeJSON(w, connectResponse{Success: false, Error: publicError(err)})
			return
		}

		publishMarker(mb, result)
		writeJSON(w, connectResponse{
			Success:       true,
			WorkspaceName: result.WorkspaceName,
			WorkspaceID:   result.WorkspaceID,
			UserID:        result.UserID,
			BotID:         result.BotID,
		})
	}
}

// CallbackHandler accepts the provider-redirect shape:
// GET ?code=...&error=... straight from Notion. No local user is known on
// this path, so a fresh one is generated. On success the popup is handed a
// page that closes itself once the marker is published.
func CallbackHandler(ex *Exchanger, mb session.Mailbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if provErr := query.Get("error"); provErr != "" {
			log.Printf("❌ Notion authentication error: %s", provErr)
			writeJSON(w, connectResponse{Success: false, Error: provErr})
			return
		}

		code := query.Get("code")
		if code == "" {
			writeJSON(w, connectResponse{Success: false, Error: "Authorization code is missing"})
			return
		}

		// This shape is not the primary flow; synthesize a local user.
		userID := uuid.New().String()

		result, err := ex.Exchange(r.Context(), code, userID)
		if err != nil {
			log.Printf("❌ Notion callback failed: %v", err)
			writeJSON(w, connectResponse{Success: false, Error: publicError(err)})
			return
		}

		publishMarker(mb, result)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Workspace Linked</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; text-align: center; }
		.success { color: #16a34a; font-size: 24px; }
	</style>
</head>
<body>
	<div class="success">✅ Workspace Linked</div>
	<p>Workspace <strong>%s</strong> is now connected. You can close this window.</p>
	<script>window.close();</script>
</body>
</html>`, result.WorkspaceName)
	}
}

func publishMarker(mb session.Mailbox, result *Result) {
	err := mb.Publish(session.Marker{UserID: result.UserID, BotID: result.BotID})
	if err != nil {
		// The credential is already stored; only the popup detector loses
		// its signal.
		log.Printf("⚠️ Failed to publish completion marker: %v", err)
	}
}
