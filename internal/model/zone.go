package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ZoneKey identifies one residential zone on one world
type ZoneKey struct {
	WorldID     int16 `json:"world_id"`
	TerritoryID int16 `json:"territory_id"`
}

func (z ZoneKey) String() string {
	return fmt.Sprintf("%d:%d", z.WorldID, z.TerritoryID)
}

// ParseZoneKey parses the "<world>:<territory>" form produced by String
func ParseZoneKey(s string) (ZoneKey, error) {
	world, territory, ok := strings.Cut(s, ":")
	if !ok {
		return ZoneKey{}, fmt.Errorf("invalid zone key %q", s)
	}
	w, err := strconv.ParseInt(world, 10, 16)
	if err != nil {
		return ZoneKey{}, fmt.Errorf("invalid world in zone key %q: %w", s, err)
	}
	t, err := strconv.ParseInt(territory, 10, 16)
	if err != nil {
		return ZoneKey{}, fmt.Errorf("invalid territory in zone key %q: %w", s, err)
	}
	return ZoneKey{WorldID: int16(w), TerritoryID: int16(t)}, nil
}

// VacantPlot is an unowned plot seen in a ward
type VacantPlot struct {
	WardNumber int16     `json:"ward_number"`
	PlotIndex  int       `json:"plot_index"`
	Price      uint32    `json:"price"`
	Size       string    `json:"size"`
	SizeClass  SizeClass `json:"-"`
}

// WardSummary is the per-ward roll-up shown in ward listings
type WardSummary struct {
	WardNumber int16 `json:"ward_number"`
	Seen       bool  `json:"seen"`
	Vacant     int   `json:"vacant"`
	HasMedium  bool  `json:"has_medium"`
	HasLarge   bool  `json:"has_large"`
}

// SummarizeWard rolls the vacant plots of a stored ward up into a summary
func SummarizeWard(ward int16, plots []PlotState) WardSummary {
	s := WardSummary{WardNumber: ward}
	for _, p := range plots {
		if !p.Seen {
			continue
		}
		s.Seen = true
		if p.Owned() {
			continue
		}
		s.Vacant++
		switch p.SizeClass() {
		case SizeMedium:
			s.HasMedium = true
		case SizeLarge:
			s.HasLarge = true
		}
	}
	return s
}
