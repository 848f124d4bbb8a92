package storage

import (
	"gorm.io/gorm"

	"github.com/apiarium/apiary/storage/model"
)

// HivesStorage implements model.HivesStore using GORM
type HivesStorage struct {
	db *gorm.DB
}

// Get returns a hive by id
func (s *HivesStorage) Get(id uint) (*model.Hive, error) {
	var h model.Hive
	if err := s.db.First(&h, id).Error; err != nil {
		return nil, model.NotFoundErrorFmt("hive not found: %d", id)
	}
	return &h, nil
}

// Create inserts a new hive and returns it
func (s *HivesStorage) Create(number string, inactive bool) (*model.Hive, error) {
	h := model.Hive{Number: number, Inactive: inactive}
	if err := s.db.Create(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// Update replaces the hive's number and inactive flag
func (s *HivesStorage) Update(id uint, number string, inactive bool) error {
	res := s.db.Model(&model.Hive{}).Where("id = ?", id).
		Updates(map[string]any{"number": number, "inactive": inactive})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("hive not found: %d", id)
	}
	return nil
}
