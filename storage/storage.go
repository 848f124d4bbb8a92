package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/apiarium/apiary/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
}

var models = []any{
	&model.User{},
	&model.Hive{},
	&model.Queen{},
	&model.Visit{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Fill user hash params with defaults if zero values
	params := config.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	return &Storage{
		db:         db,
		userParams: params,
	}, nil
}

// UsersStorage returns a UsersStorage
func (s *Storage) UsersStorage() *UsersStorage {
	return &UsersStorage{db: s.db, params: s.userParams}
}

// HivesStorage returns a HivesStorage
func (s *Storage) HivesStorage() *HivesStorage {
	return &HivesStorage{db: s.db}
}

// QueensStorage returns a QueensStorage
func (s *Storage) QueensStorage() *QueensStorage {
	return &QueensStorage{db: s.db}
}

// VisitsStorage returns a VisitsStorage
func (s *Storage) VisitsStorage() *VisitsStorage {
	return &VisitsStorage{db: s.db}
}

// LoadStorageBackends initializes the storage and returns the grouped backends.
func LoadStorageBackends(cfg Config) (model.Backends, error) {
	store, err := NewStorage(cfg)
	if err != nil {
		return model.Backends{}, err
	}
	return model.Backends{
		Users:  store.UsersStorage(),
		Hives:  store.HivesStorage(),
		Queens: store.QueensStorage(),
		Visits: store.VisitsStorage(),
	}, nil
}
