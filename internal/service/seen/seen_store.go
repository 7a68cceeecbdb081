package seen

import (
	"sort"
	"sync"
	"time"

	"housingsweep/internal/model"
	"housingsweep/internal/service/storage"

	"github.com/benbjohnson/clock"
)

// ZoneWards maps ward number to its 60 plot slots
type ZoneWards map[int16][]model.PlotState

// Store is the cache of merged plot observations per world/territory.
// Stored ward slices are never modified in place: a merge swaps in a new
// zone map, so readers always see whole wards.
type Store struct {
	storage storage.Storage[model.ZoneKey, ZoneWards]
	mu      sync.Mutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return NewStoreWithClock(clock.New())
}

// NewStoreWithClock creates an empty store stamping updates with clk
func NewStoreWithClock(clk clock.Clock) *Store {
	return &Store{
		storage: storage.NewMemoryStorageWithClock[model.ZoneKey, ZoneWards](clk),
	}
}

// Merge replaces the stored plots of the observed ward with the observation
func (s *Store) Merge(w *model.WardObservation) {
	plots := make([]model.PlotState, model.PlotsPerWard)
	for i, p := range w.Plots {
		p.Index = i
		plots[i] = model.PlotState{PlotObservation: p, Seen: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	zone := w.Zone()
	current, _ := s.storage.Get(zone)
	next := make(ZoneWards, len(current)+1)
	for ward, p := range current {
		next[ward] = p
	}
	next[w.WardNumber] = plots
	s.storage.Set(zone, next)
}

// GetWard returns the 60 plot slots of a ward, or nil if it was never seen
func (s *Store) GetWard(zone model.ZoneKey, ward int16) []model.PlotState {
	wards, ok := s.storage.Get(zone)
	if !ok {
		return nil
	}
	plots, ok := wards[ward]
	if !ok {
		return nil
	}
	return clonePlots(plots)
}

// GetZone returns the wards of a zone, creating an empty entry on first access
func (s *Store) GetZone(zone model.ZoneKey) ZoneWards {
	s.mu.Lock()
	defer s.mu.Unlock()

	wards, ok := s.storage.Get(zone)
	if !ok {
		wards = ZoneWards{}
		s.storage.Set(zone, wards)
	}

	result := make(ZoneWards, len(wards))
	for ward, plots := range wards {
		result[ward] = clonePlots(plots)
	}
	return result
}

// HasWard reports whether the ward has an entry, complete or not
func (s *Store) HasWard(zone model.ZoneKey, ward int16) bool {
	wards, ok := s.storage.Get(zone)
	if !ok {
		return false
	}
	_, ok = wards[ward]
	return ok
}

// IsWardFullySeen reports whether every plot of the ward has been observed
func (s *Store) IsWardFullySeen(zone model.ZoneKey, ward int16) bool {
	wards, ok := s.storage.Get(zone)
	if !ok {
		return false
	}
	plots, ok := wards[ward]
	if !ok || len(plots) < model.PlotsPerWard {
		return false
	}
	for _, p := range plots {
		if !p.Seen {
			return false
		}
	}
	return true
}

// UpdatedAt returns when a zone was last written
func (s *Store) UpdatedAt(zone model.ZoneKey) (time.Time, bool) {
	return s.storage.LastUpdate(zone)
}

// HasAnySeenPlots reports whether any zone holds at least one ward
func (s *Store) HasAnySeenPlots() bool {
	found := false
	s.storage.ForEach(func(_ model.ZoneKey, wards ZoneWards) bool {
		found = len(wards) > 0
		return !found
	})
	return found
}

// Zones returns the known zone keys in world, territory order
func (s *Store) Zones() []model.ZoneKey {
	keys := make([]model.ZoneKey, 0, s.storage.Count())
	s.storage.ForEach(func(k model.ZoneKey, _ ZoneWards) bool {
		keys = append(keys, k)
		return true
	})
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].WorldID != keys[j].WorldID {
			return keys[i].WorldID < keys[j].WorldID
		}
		return keys[i].TerritoryID < keys[j].TerritoryID
	})
	return keys
}

// ResetAll clears every zone
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.storage.Clear()
}

// Load installs persisted wards for a zone without marking it dirty.
// Wards with the wrong slot count are padded to 60 unseen slots.
func (s *Store) Load(zone model.ZoneKey, wards ZoneWards) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := make(ZoneWards, len(wards))
	for ward, plots := range wards {
		full := model.EmptyWardPlots()
		for _, p := range plots {
			if p.Index >= 0 && p.Index < model.PlotsPerWard {
				full[p.Index] = p
			}
		}
		loaded[ward] = full
	}
	s.storage.Set(zone, loaded)
	s.storage.ClearDirty([]model.ZoneKey{zone})
}

// PersistFunc writes changed zones and removes deleted ones
type PersistFunc func(changed map[model.ZoneKey]ZoneWards, removed []model.ZoneKey) error

// PersistChanges passes the zones modified since the last successful call to
// fn. Writers are held off while fn runs so no change slips between the
// write and the dirty flags being cleared.
func (s *Store) PersistChanges(fn PersistFunc) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirty := s.storage.DirtyKeys()
	if len(dirty) == 0 {
		return 0, nil
	}

	changed := make(map[model.ZoneKey]ZoneWards)
	var removed []model.ZoneKey
	for _, zone := range dirty {
		if wards, ok := s.storage.Get(zone); ok {
			changed[zone] = wards
		} else {
			removed = append(removed, zone)
		}
	}

	if err := fn(changed, removed); err != nil {
		return 0, err
	}
	s.storage.ClearDirty(dirty)
	return len(dirty), nil
}

func clonePlots(plots []model.PlotState) []model.PlotState {
	out := make([]model.PlotState, len(plots))
	copy(out, plots)
	return out
}
