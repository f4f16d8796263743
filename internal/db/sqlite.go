package db

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/notion-nexus/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the SQLite database connection and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate all models
	if err := db.AutoMigrate(&models.NotionCredential{}, &models.Setting{}); err != nil {
		return nil, err
	}

	// Ensure API key exists (generate on first run)
	ensureAPIKey(db)

	return db, nil
}

// ensureAPIKey generates API key if not exists
func ensureAPIKey(db *gorm.DB) {
	var setting models.Setting
	result := db.Where("key = ?", "api_key").First(&setting)

	if result.Error != nil {
		// Generate new API key: sk-<32 hex chars>
		keyBytes := make([]byte, 16)
		rand.Read(keyBytes)
		apiKey := "sk-" + hex.EncodeToString(keyBytes)

		db.Create(&models.Setting{
			Key:   "api_key",
			Value: apiKey,
		})
		log.Printf("🔑 Generated new API key: %s", apiKey)
	}
}

// GetAPIKey retrieves the API key from database
func GetAPIKey(db *gorm.DB) string {
	var setting models.Setting
	db.Where("key = ?", "api_key").First(&setting)
	return setting.Value
}

// GetSetting returns the value stored under key, or "" when the key is unset.
func GetSetting(db *gorm.DB, key string) (string, error) {
	var setting models.Setting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

// SetSetting writes key=value, overwriting any previous value.
func SetSetting(db *gorm.DB, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return db.Save(&setting).Error
}

// DeleteSetting removes key. Deleting a missing key is not an error.
func DeleteSetting(db *gorm.DB, key string) error {
	return db.Where("key = ?", key).Delete(&models.Setting{}).Error
}
