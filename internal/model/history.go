package model

import (
	"time"
)

// WardObservationPG is one recorded ward observation stored in PostgreSQL
type WardObservationPG struct {
	ID          string `gorm:"primaryKey;size:22"`
	SweepID     string `gorm:"size:22;index"`
	WorldID     int16  `gorm:"not null;index:idx_ward_observations_zone"`
	TerritoryID int16  `gorm:"not null;index:idx_ward_observations_zone"`
	WardNumber  int16  `gorm:"not null"`
	VacantCount int    `gorm:"not null"`
	OwnedCount  int    `gorm:"not null"`
	Payload     []byte `gorm:"type:bytea"` // zstd compressed raw record

	ObservedAt time.Time `gorm:"column:observed_at;index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name
func (WardObservationPG) TableName() string {
	return "ward_observations"
}

// Zone returns the world/territory key of the row
func (w *WardObservationPG) Zone() ZoneKey {
	return ZoneKey{WorldID: w.WorldID, TerritoryID: w.TerritoryID}
}
