package model

import (
	"time"
)

// Queen is a queen bee's breeding record.
type Queen struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// TagNumber is the queen's lifetime breeding number
	TagNumber *string `json:"tag_number"`
	// BirthYear is the hatching year
	BirthYear *int `json:"birth_year"`
	// Marked holds the marking color, if the queen is marked
	Marked *string `json:"marked"`
	// Breed is the bee race (e.g. Carnica, Buckfast)
	Breed *string `json:"breed"`
	// Breeder names the breeding operation the queen came from
	Breeder *string `json:"breeder"`
	// MotherTag is the breeding number of the queen's mother
	MotherTag *string `json:"mother_tag"`
	// MatingMotherTag is the breeding number of the drone line's mother
	MatingMotherTag *string `json:"mating_mother_tag"`
	// MatingStation names the mating yard the queen was mated at
	MatingStation *string `json:"mating_station"`
}

// QueenPlacement is a Queen joined with the hive she currently heads,
// derived from the latest visit of each active hive.
type QueenPlacement struct {
	Queen
	// HiveNumber is the label of the hive the queen currently sits in,
	// or nil when she is not placed
	HiveNumber *string `json:"hive_number"`
	// Location is the site of that hive per its latest visit
	Location *string `json:"location"`
}

// QueenOption is the reduced shape used to populate selection lists.
type QueenOption struct {
	ID        uint    `json:"id"`
	TagNumber *string `json:"tag_number"`
	BirthYear *int    `json:"birth_year"`
	Marked    *string `json:"marked"`
	Breed     *string `json:"breed"`
}

// QueensStore abstracts queen persistence.
type QueensStore interface {
	// Get returns a queen by id
	Get(id uint) (*Queen, error)
	// ListWithPlacement returns all queens with their current hive
	// placement, newest birth years first
	ListWithPlacement() ([]QueenPlacement, error)
	// Options returns all queens in selection-list shape
	Options() ([]QueenOption, error)
	// Create inserts a new queen and returns it
	Create(q Queen) (*Queen, error)
	// Update replaces the queen's attributes
	Update(id uint, q Queen) error
	// Delete removes a queen by id
	Delete(id uint) error
}
