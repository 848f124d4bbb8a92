package model

import (
	"time"
)

// Hive is a single bee colony box. Hives are never deleted; retired ones
// are flagged inactive and drop out of the location summaries.
type Hive struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Number is the label painted on the hive
	Number string `json:"number"`
	// Inactive flags a dissolved or sold colony
	Inactive bool `json:"inactive"`
}

// HivesStore abstracts hive persistence.
type HivesStore interface {
	// Get returns a hive by id
	Get(id uint) (*Hive, error)
	// Create inserts a new hive and returns it
	Create(number string, inactive bool) (*Hive, error)
	// Update replaces the hive's number and inactive flag
	Update(id uint, number string, inactive bool) error
}
