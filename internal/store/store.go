// Package store persists Notion workspace credentials. The write path is an
// upsert keyed on the external bot identity, so a repeated authorization of
// the same workspace rotates the stored token instead of creating a second
// record.
package store

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pysugar/notion-nexus/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by Lookup when the user has no stored credential.
// Callers must not treat it as a store failure.
var ErrNotFound = errors.New("notion credential not found")

// PersistenceError wraps a failure of the underlying store (unreachable
// database, constraint violation, rejected write).
type PersistenceError struct {
	Op  string // "upsert" or "lookup"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("credential store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Credential is the input to Upsert. Optional fields are pointers so that
// "not sent by the provider" is stored as NULL rather than an empty string.
type Credential struct {
	AccessToken          string
	BotID                string
	DuplicatedTemplateID *string
	Owner                string // raw JSON owner object
	WorkspaceIcon        *string
	WorkspaceID          string
	WorkspaceName        string
}

// Service provides credential persistence over a GORM handle. It is
// constructed once and passed explicitly; it holds no state of its own.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Upsert writes the credential for userID, resolving conflicts on bot_id.
// An existing record for the same bot is overwritten in place with fresh
// last_used_at/updated_at timestamps.
func (s *Service) Upsert(userID string, cred Credential) error {
	// A bot silently changing local owners is legal under the bot_id
	// conflict key, but worth a trace in the logs.
	var existing models.NotionCredential
	if err := s.db.Where("bot_id = ?", cred.BotID).First(&existing).Error; err == nil {
		if existing.UserID != userID {
			log.Printf("⚠️ Bot %s reassigned from user %s to user %s", cred.BotID, existing.UserID, userID)
		}
	}

	now := time.Now()
	record := models.NotionCredential{
		UserID:               userID,
		AccessToken:          cred.AccessToken,
		BotID:                cred.BotID,
		DuplicatedTemplateID: cred.DuplicatedTemplateID,
		Owner:                cred.Owner,
		WorkspaceIcon:        cred.WorkspaceIcon,
		WorkspaceID:          cred.WorkspaceID,
		WorkspaceName:        cred.WorkspaceName,
		LastUsedAt:           now,
		UpdatedAt:            now,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bot_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "access_token", "duplicated_template_id", "owner",
			"workspace_icon", "workspace_id", "workspace_name",
			"last_used_at", "updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		log.Printf("❌ Failed to store Notion credential for bot %s: %v", cred.BotID, err)
		return &PersistenceError{Op: "upsert", Err: err}
	}
	return nil
}

// Lookup returns the credential most recently associated with userID.
// Returns ErrNotFound when the user never linked a workspace; any other
// failure is a PersistenceError.
func (s *Service) Lookup(userID string) (*models.NotionCredential, error) {
	var record models.NotionCredential
	err := s.db.Where("user_id = ?", userID).Order("last_used_at DESC").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("❌ Failed to look up Notion credential for user %s: %v", userID, err)
		return nil, &PersistenceError{Op: "lookup", Err: err}
	}
	return &record, nil
}
