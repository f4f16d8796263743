package models

import "time"

// NotionCredential stores the result of a successful Notion OAuth exchange.
// There is at most one live record per bot: repeated authorizations of the
// same workspace overwrite in place (conflict target is bot_id, not user_id).
type NotionCredential struct {
	ID                   uint   `gorm:"primaryKey"`
	UserID               string `gorm:"index"` // local account identifier
	AccessToken          string
	BotID                string  `gorm:"uniqueIndex"` // stable external integration identity
	DuplicatedTemplateID *string // NULL when Notion did not duplicate a template
	Owner                string  // raw owner object from the token response, JSON
	WorkspaceIcon        *string
	WorkspaceID          string
	WorkspaceName        string
	LastUsedAt           time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
