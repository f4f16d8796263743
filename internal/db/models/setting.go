package models

import "time"

// Setting stores application key/value state: the generated API key and the
// cross-context completion marker entries.
type Setting struct {
	Key       string `gorm:"primaryKey"` // Setting key name
	Value     string // Setting value
	CreatedAt time.Time
	UpdatedAt time.Time
}
