package model

import "fmt"

// WardsPerZone is the number of wards in a residential zone
const WardsPerZone = 30

// LandIdent identifies the ward a record was captured for
type LandIdent struct {
	LandID      int16 `json:"land_id"`
	WardNumber  int16 `json:"ward_number"`
	TerritoryID int16 `json:"territory_id"`
	WorldID     int16 `json:"world_id"`
}

// Zone returns the world/territory key of the ident
func (l LandIdent) Zone() ZoneKey {
	return ZoneKey{WorldID: l.WorldID, TerritoryID: l.TerritoryID}
}

// WardObservation is one decoded housing ward record
type WardObservation struct {
	LandIdent
	Plots [PlotsPerWard]PlotObservation `json:"plots"`
}

// Counts returns the number of vacant and owned plots in the ward
func (w *WardObservation) Counts() (vacant, owned int) {
	for _, p := range w.Plots {
		if p.Owned() {
			owned++
		} else {
			vacant++
		}
	}
	return vacant, owned
}

func (w *WardObservation) String() string {
	return fmt.Sprintf("ward %d (%s)", w.WardNumber, w.Zone())
}

// ValidWardNumber reports whether n is a ward of a residential zone
func ValidWardNumber(n int16) bool {
	return n >= 1 && n <= WardsPerZone
}
