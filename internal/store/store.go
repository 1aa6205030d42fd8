package store

import (
	"errors"
	"fmt"

	"signal-copier-go/internal/models"

	json "github.com/goccy/go-json"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// snapshotRetention is how many historical snapshots are kept around for
// manual recovery. Only the newest one is ever read.
const snapshotRetention = 16

// StateSnapshot is one persisted version of the full state document.
type StateSnapshot struct {
	gorm.Model
	Document []byte `gorm:"not null"`
}

// Store persists the state document as versioned snapshot rows in sqlite.
type Store struct {
	db *gorm.DB
}

// New opens the database at dsn and migrates the snapshot table.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&StateSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Load reads the newest snapshot and decodes it, backfilling any sections
// or per-profile fields missing from older documents. A fresh database
// yields an empty state.
func (s *Store) Load() (*models.State, error) {
	var snap StateSnapshot
	err := s.db.Order("id desc").First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state snapshot: %w", err)
	}

	state := &models.State{}
	if err := json.Unmarshal(snap.Document, state); err != nil {
		return nil, fmt.Errorf("failed to decode state snapshot: %w", err)
	}
	state.Normalize()
	return state, nil
}

// Save writes a new snapshot and prunes rows beyond the retention window.
func (s *Store) Save(state *models.State) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		snap := StateSnapshot{Document: doc}
		if err := tx.Create(&snap).Error; err != nil {
			return fmt.Errorf("failed to write state snapshot: %w", err)
		}
		if snap.ID > snapshotRetention {
			cutoff := snap.ID - snapshotRetention
			if err := tx.Unscoped().Where("id <= ?", cutoff).Delete(&StateSnapshot{}).Error; err != nil {
				return fmt.Errorf("failed to prune state snapshots: %w", err)
			}
		}
		return nil
	})
}
