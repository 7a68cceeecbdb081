package postgres

import (
	"fmt"
	"slices"

	"housingsweep/internal/model"

	"gorm.io/gorm"
)

// historyBatchSize is how many rows go into one insert statement
const historyBatchSize = 500

// HistoryStore reads and writes the ward_observations table
type HistoryStore struct {
	db *gorm.DB
}

// NewHistoryStore wraps a connection
func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// SaveObservations inserts rows in batches inside one transaction
func (s *HistoryStore) SaveObservations(rows []model.WardObservationPG) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < len(rows); i += historyBatchSize {
			end := i + historyBatchSize
			if end > len(rows) {
				end = len(rows)
			}

			batch := rows[i:end]
			if result := tx.Create(&batch); result.Error != nil {
				return fmt.Errorf("insert ward observations: %w", result.Error)
			}
		}
		return nil
	})
}

// LoadObservations returns the most recent observations of a zone, oldest
// first. A zero limit loads everything.
func (s *HistoryStore) LoadObservations(zone model.ZoneKey, limit int) ([]model.WardObservationPG, error) {
	var rows []model.WardObservationPG

	q := s.db.
		Where("world_id = ? AND territory_id = ?", zone.WorldID, zone.TerritoryID).
		Order("observed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if result := q.Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("load ward observations for %s: %w", zone, result.Error)
	}
	slices.Reverse(rows)
	return rows, nil
}

// DeleteZone removes the recorded observations of a zone
func (s *HistoryStore) DeleteZone(zone model.ZoneKey) (int64, error) {
	result := s.db.
		Where("world_id = ? AND territory_id = ?", zone.WorldID, zone.TerritoryID).
		Delete(&model.WardObservationPG{})
	return result.RowsAffected, result.Error
}
