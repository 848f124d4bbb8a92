package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/apiarium/apiary/storage/model"
)

// VisitsStorage implements model.VisitsStore using GORM
type VisitsStorage struct {
	db *gorm.DB
}

// latestVisitsSQL ranks every hive's visits; rn = 1 picks the latest visit
// per hive by date, then by id. Works on SQLite (3.25+), MySQL 8 and
// PostgreSQL.
const latestVisitsSQL = `SELECT v.*,
       ROW_NUMBER() OVER (PARTITION BY v.hive_id ORDER BY v.date DESC, v.id DESC) AS rn
FROM visits v`

// Get returns a visit by id
func (s *VisitsStorage) Get(id uint) (*model.Visit, error) {
	var v model.Visit
	if err := s.db.First(&v, id).Error; err != nil {
		return nil, model.NotFoundErrorFmt("visit not found: %d", id)
	}
	return &v, nil
}

// ListByHive returns up to limit visits of a hive, newest first, joined
// with the assigned queen's key attributes
func (s *VisitsStorage) ListByHive(hiveID uint, limit int) ([]model.VisitDetail, error) {
	var rows []model.VisitDetail
	err := s.db.Raw(
		`SELECT v.*,
       q.birth_year AS queen_birth_year,
       q.marked AS queen_marked,
       q.breed AS queen_breed,
       q.breeder AS queen_breeder,
       q.mating_station AS queen_mating_station
FROM visits v
LEFT JOIN queens q ON q.id = v.queen_id
WHERE v.hive_id = ?
ORDER BY v.date DESC, v.id DESC
LIMIT ?`, hiveID, limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LastForHive returns the hive's most recent visit, or nil when the hive
// was never visited
func (s *VisitsStorage) LastForHive(hiveID uint) (*model.Visit, error) {
	var v model.Visit
	err := s.db.Where("hive_id = ?", hiveID).
		Order("date DESC, id DESC").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// LocationSummary aggregates the active hives standing at each location,
// based on every hive's latest visit
func (s *VisitsStorage) LocationSummary() ([]model.LocationSummary, error) {
	var rows []model.LocationSummary
	err := s.db.Raw(
		`WITH latest AS (` + latestVisitsSQL + `)
SELECT COALESCE(l.location, '—') AS location,
       COUNT(*) AS active_hives,
       SUM(CASE WHEN l.todo IS NOT NULL AND l.todo <> '' THEN 1 ELSE 0 END) AS todo_hives
FROM latest l
JOIN hives h ON h.id = l.hive_id
WHERE l.rn = 1 AND NOT h.inactive
GROUP BY COALESCE(l.location, '—')
ORDER BY location ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HivesByLocation returns the current state of the active hives at the
// given location: the hive, its latest visit, and that visit's queen
func (s *VisitsStorage) HivesByLocation(location string) ([]model.HiveStatus, error) {
	var rows []model.HiveStatus
	err := s.db.Raw(
		`WITH latest AS (`+latestVisitsSQL+`)
SELECT h.id AS hive_id,
       h.number,
       l.date AS last_visit_date,
       l.box_setup,
       l.colony_strength,
       l.swarm_tendency,
       l.notes,
       l.todo,
       l.queen_id,
       q.birth_year AS queen_birth_year,
       q.marked AS queen_marked,
       q.breed AS queen_breed
FROM latest l
JOIN hives h ON h.id = l.hive_id
LEFT JOIN queens q ON q.id = l.queen_id
WHERE l.rn = 1 AND NOT h.inactive AND COALESCE(l.location, '—') = ?
ORDER BY h.number ASC, h.id ASC`, location,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new visit and returns it
func (s *VisitsStorage) Create(v model.Visit) (*model.Visit, error) {
	v.ID = 0
	if err := s.db.Create(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// Update replaces the visit's attributes. The owning hive is never
// changed; a mis-assigned visit is deleted and re-entered.
func (s *VisitsStorage) Update(id uint, v model.Visit) error {
	res := s.db.Model(&model.Visit{}).Where("id = ?", id).Updates(
		map[string]any{
			"queen_id":        v.QueenID,
			"date":            v.Date,
			"location":        v.Location,
			"box_setup":       v.BoxSetup,
			"colony_strength": v.ColonyStrength,
			"queen_status":    v.QueenStatus,
			"brood_eggs":      v.BroodEggs,
			"brood_open":      v.BroodOpen,
			"brood_capped":    v.BroodCapped,
			"gentleness":      v.Gentleness,
			"comb_steadiness": v.CombSteadiness,
			"swarm_tendency":  v.SwarmTendency,
			"honey":           v.Honey,
			"feed":            v.Feed,
			"notes":           v.Notes,
			"todo":            v.Todo,
			"extra":           v.Extra,
		},
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("visit not found: %d", id)
	}
	return nil
}

// Delete removes a visit by id
func (s *VisitsStorage) Delete(id uint) error {
	res := s.db.Delete(&model.Visit{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("visit not found: %d", id)
	}
	return nil
}
