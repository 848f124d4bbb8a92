package model

import (
	"time"

	"gorm.io/datatypes"
)

// Visit is one inspection of a hive. The latest visit of a hive (by date,
// then by id) carries the hive's current state: its location, queen, and
// open todos.
type Visit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	HiveID  uint  `gorm:"index;not null" json:"hive_id"`
	QueenID *uint `gorm:"index" json:"queen_id"`

	// Date of the inspection, ISO form (YYYY-MM-DD)
	Date string `gorm:"type:date" json:"date"`
	// Location is the apiary site the hive stood at
	Location *string `json:"location"`
	// BoxSetup describes the stacked boxes/supers
	BoxSetup *string `json:"box_setup"`
	// ColonyStrength grades how strong the colony is
	ColonyStrength *string `json:"colony_strength"`
	// QueenStatus records whether the queen was seen/laying
	QueenStatus *string `json:"queen_status"`

	// Brood stages observed during the inspection
	BroodEggs   *string `json:"brood_eggs"`
	BroodOpen   *string `json:"brood_open"`
	BroodCapped *string `json:"brood_capped"`

	// Temperament and behavior grades
	Gentleness     *string `json:"gentleness"`
	CombSteadiness *string `json:"comb_steadiness"`
	SwarmTendency  *string `json:"swarm_tendency"`

	// Stores
	Honey *string `json:"honey"`
	Feed  *string `json:"feed"`

	Notes *string `json:"notes"`
	Todo  *string `json:"todo"`

	// Extra holds unschematized observations as free-form JSON
	Extra datatypes.JSON `json:"extra,omitempty"`
}

// VisitDetail is a Visit joined with the assigned queen's key attributes.
type VisitDetail struct {
	Visit
	QueenBirthYear     *int    `json:"queen_birth_year"`
	QueenMarked        *string `json:"queen_marked"`
	QueenBreed         *string `json:"queen_breed"`
	QueenBreeder       *string `json:"queen_breeder"`
	QueenMatingStation *string `json:"queen_mating_station"`
}

// LocationSummary aggregates the active hives standing at one location,
// derived from each hive's latest visit.
type LocationSummary struct {
	Location    string `json:"location"`
	ActiveHives int    `json:"active_hives"`
	TodoHives   int    `json:"todo_hives"`
}

// HiveStatus is an active hive's current state at a location: the hive
// joined with its latest visit and that visit's queen.
type HiveStatus struct {
	HiveID         uint    `json:"hive_id"`
	Number         string  `json:"number"`
	LastVisitDate  string  `json:"last_visit_date"`
	BoxSetup       *string `json:"box_setup"`
	ColonyStrength *string `json:"colony_strength"`
	SwarmTendency  *string `json:"swarm_tendency"`
	Notes          *string `json:"notes"`
	Todo           *string `json:"todo"`
	QueenID        *uint   `json:"queen_id"`
	QueenBirthYear *int    `json:"queen_birth_year"`
	QueenMarked    *string `json:"queen_marked"`
	QueenBreed     *string `json:"queen_breed"`
}

// VisitsStore abstracts visit persistence, including the latest-visit
// window queries that derive the current state of every hive.
type VisitsStore interface {
	// Get returns a visit by id
	Get(id uint) (*Visit, error)
	// ListByHive returns up to limit visits of a hive, newest first,
	// joined with queen details
	ListByHive(hiveID uint, limit int) ([]VisitDetail, error)
	// LastForHive returns the hive's most recent visit, or nil when the
	// hive was never visited
	LastForHive(hiveID uint) (*Visit, error)
	// LocationSummary aggregates active hives per location
	LocationSummary() ([]LocationSummary, error)
	// HivesByLocation returns the current state of the active hives at
	// the given location
	HivesByLocation(location string) ([]HiveStatus, error)
	// Create inserts a new visit and returns it
	Create(v Visit) (*Visit, error)
	// Update replaces the visit's attributes (HiveID is not changed)
	Update(id uint, v Visit) error
	// Delete removes a visit by id
	Delete(id uint) error
}
