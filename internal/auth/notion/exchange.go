// Package notion implements the Notion OAuth linking flow: the authorization
// code exchange against Notion's token endpoint and the HTTP handlers that
// accept the code from the popup redirect or from the frontend.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pysugar/notion-nexus/internal/config"
	"github.com/pysugar/notion-nexus/internal/store"
	"github.com/pysugar/notion-nexus/internal/util"
)

// Exchanger trades a single-use authorization code for an access credential
// and persists it. Construct once and pass explicitly.
type Exchanger struct {
	cfg        config.NotionConfig
	store      *store.Service
	httpClient *http.Client
}

// Result is the contract surface the popup completion side depends on.
type Result struct {
	WorkspaceName string
	WorkspaceID   string
	UserID        string
	BotID         string
}

// tokenResponse mirrors Notion's token endpoint body.
type tokenResponse struct {
	AccessToken          string          `json:"access_token"`
	BotID                string          `json:"bot_id"`
	DuplicatedTemplateID *string         `json:"duplicated_template_id"`
	Owner                json.RawMessage `json:"owner"`
	WorkspaceIcon        *string         `json:"workspace_icon"`
	WorkspaceID          string          `json:"workspace_id"`
	WorkspaceName        string          `json:"workspace_name"`
}

func NewExchanger(cfg config.NotionConfig, st *store.Service, httpClient *http.Client) *Exchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Exchanger{cfg: cfg, store: st, httpClient: httpClient}
}

// Exchange performs one synchronous code exchange and persists the result.
// The code is single-use: a failed exchange is never retried here.
func (e *Exchanger) Exchange(ctx context.Context, code, userID string) (*Result, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	if userID == "" {
		return nil, ErrMissingUserID
	}

	if err := e.checkConfig(); err != nil {
		return nil, err
	}

	token, err := e.requestToken(ctx, code)
	if err != nil {
		return nil, err
	}

	owner := ""
	if len(token.Owner) > 0 {
		owner = string(token.Owner)
	}
	if err := e.store.Upsert(userID, store.Credential{
		AccessToken:          token.AccessToken,
		BotID:                token.BotID,
		DuplicatedTemplateID: token.DuplicatedTemplateID,
		Owner:                owner,
		WorkspaceIcon:        token.WorkspaceIcon,
		WorkspaceID:          token.WorkspaceID,
		WorkspaceName:        token.WorkspaceName,
	}); err != nil {
		return nil, err
	}

	log.Printf("✅ Linked Notion workspace %q (bot %s) to user %s", token.WorkspaceName, token.BotID, userID)
	return &Result{
		WorkspaceName: token.WorkspaceName,
		WorkspaceID:   token.WorkspaceID,
		UserID:        userID,
		BotID:         token.BotID,
	}, nil
}

func (e *Exchanger) checkConfig() error {
	var missing string
	switch {
	case e.cfg.ClientID == "":
		missing = "client_id"
	case e.cfg.ClientSecret == "":
		missing = "client_secret"
	case e.cfg.RedirectURI == "":
		missing = "redirect_uri"
	default:
		return nil
	}
	log.Printf("❌ Missing Notion OAuth configuration: %s", missing)
	return &ConfigError{missing: missing}
}

func (e *Exchanger) requestToken(ctx context.Context, code string) (*tokenResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"grant_type": "authorization_code",
		"code":       code,
	})

	url := e.cfg.OAuthBaseURL + "/v1/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(e.cfg.ClientID, e.cfg.ClientSecret)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ Token endpoint unreachable: %v", err)
		return nil, &ExchangeError{Status: 0, Description: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExchangeError{Status: resp.StatusCode, Description: "unreadable response body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Best-effort parse of Notion's error body.
		var errBody struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.Unmarshal(respBody, &errBody)
		log.Printf("❌ Token exchange failed (%d): %s", resp.StatusCode, util.TruncateBytes(respBody))
		return nil, &ExchangeError{
			Status:      resp.StatusCode,
			Code:        errBody.Error,
			Description: errBody.ErrorDescription,
		}
	}

	log.Printf("🔍 Token exchange response: %s", util.TruncateBytes(respBody))

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, &ExchangeError{Status: resp.StatusCode, Description: "malformed token response"}
	}
	return &token, nil
}
