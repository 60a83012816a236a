package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/saj/internal/models"
)

// KVStore is the durable key/value storage behind the session store
type KVStore struct {
	db *gorm.DB
}

// NewKVStore creates a key/value store on an open database
func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

// Load returns the values of the requested keys. Missing keys are absent from the map.
func (s *KVStore) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	var entries []models.StorageEntry
	if err := s.db.WithContext(ctx).Where("entry_key IN ?", keys).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load storage entries: %w", err)
	}

	for _, entry := range entries {
		values[entry.Key] = entry.Value
	}
	return values, nil
}

// Save writes all values in a single transaction
func (s *KVStore) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			entry := models.StorageEntry{Key: key, Value: value}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "entry_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&entry).Error
			if err != nil {
				return fmt.Errorf("failed to save storage entry %q: %w", key, err)
			}
		}
		return nil
	})
}

// Remove deletes the given keys in a single transaction. Missing keys are ignored.
func (s *KVStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_key IN ?", keys).Delete(&models.StorageEntry{}).Error; err != nil {
			return fmt.Errorf("failed to remove storage entries: %w", err)
		}
		return nil
	})
}
