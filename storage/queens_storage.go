package storage

import (
	"gorm.io/gorm"

	"github.com/apiarium/apiary/storage/model"
)

// QueensStorage implements model.QueensStore using GORM
type QueensStorage struct {
	db *gorm.DB
}

// Get returns a queen by id
func (s *QueensStorage) Get(id uint) (*model.Queen, error) {
	var q model.Queen
	if err := s.db.First(&q, id).Error; err != nil {
		return nil, model.NotFoundErrorFmt("queen not found: %d", id)
	}
	return &q, nil
}

// ListWithPlacement returns all queens joined with the active hive each
// one currently heads, per that hive's latest visit. Unplaced queens have
// nil placement columns. Newest birth years first.
func (s *QueensStorage) ListWithPlacement() ([]model.QueenPlacement, error) {
	var rows []model.QueenPlacement
	err := s.db.Raw(
		`SELECT q.*,
       vl.number AS hive_number,
       vl.location
FROM queens q
LEFT JOIN (
    SELECT l.queen_id, h.number, l.location
    FROM (` + latestVisitsSQL + `) l
    JOIN hives h ON h.id = l.hive_id
    WHERE l.rn = 1 AND NOT h.inactive
) vl ON vl.queen_id = q.id
ORDER BY q.birth_year DESC, q.id DESC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Options returns all queens in selection-list shape
func (s *QueensStorage) Options() ([]model.QueenOption, error) {
	var rows []model.QueenOption
	err := s.db.Model(&model.Queen{}).
		Select("id", "tag_number", "birth_year", "marked", "breed").
		Order("birth_year DESC, id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new queen and returns it
func (s *QueensStorage) Create(q model.Queen) (*model.Queen, error) {
	q.ID = 0
	if err := s.db.Create(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// Update replaces the queen's attributes
func (s *QueensStorage) Update(id uint, q model.Queen) error {
	res := s.db.Model(&model.Queen{}).Where("id = ?", id).Updates(
		map[string]any{
			"tag_number":        q.TagNumber,
			"birth_year":        q.BirthYear,
			"marked":            q.Marked,
			"breed":             q.Breed,
			"breeder":           q.Breeder,
			"mother_tag":        q.MotherTag,
			"mating_mother_tag": q.MatingMotherTag,
			"mating_station":    q.MatingStation,
		},
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("queen not found: %d", id)
	}
	return nil
}

// Delete removes a queen by id
func (s *QueensStorage) Delete(id uint) error {
	res := s.db.Delete(&model.Queen{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("queen not found: %d", id)
	}
	return nil
}
