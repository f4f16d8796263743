package notion

import (
	"golang.org/x/oauth2"

	"github.com/pysugar/notion-nexus/internal/config"
)

// Endpoint is Notion's OAuth 2.0 endpoint set.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://api.notion.com/v1/oauth/authorize",
	TokenURL: "https://api.notion.com/v1/oauth/token",
}

// OAuthConfig builds the oauth2 config used to construct the authorization
// URL the popup navigates to. The token exchange itself does not go through
// oauth2.Config.Exchange because Notion expects a JSON body rather than the
// form encoding the library sends.
func OAuthConfig(cfg config.NotionConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     Endpoint,
	}
}

// AuthCodeURL returns the full authorization URL for the popup window.
// Notion requires owner=user for user-consent integrations.
func AuthCodeURL(cfg config.NotionConfig, state string) string {
	return OAuthConfig(cfg).AuthCodeURL(state, oauth2.SetAuthURLParam("owner", "user"))
}
