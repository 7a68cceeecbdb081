package sweep

import (
	"log"
	"sort"
	"sync"
	"time"

	"housingsweep/internal/model"
	"housingsweep/internal/util"

	"github.com/benbjohnson/clock"
)

// Sweep is one bounded pass over the wards of a zone
type Sweep struct {
	ID              string        `json:"id"`
	Zone            model.ZoneKey `json:"zone"`
	StartedAt       time.Time     `json:"started_at"`
	SeenWardNumbers []int16       `json:"seen_ward_numbers"`
}

// Outcome describes how an observation was classified
type Outcome struct {
	SweepID   string
	NewSweep  bool
	Duplicate bool
}

// Tracker decides sweep boundaries and drops wards already seen in the current sweep
type Tracker struct {
	clock  clock.Clock
	window time.Duration

	mu        sync.Mutex
	active    bool
	id        string
	zone      model.ZoneKey
	startedAt time.Time
	seen      map[int16]struct{}
}

// NewTracker creates a tracker whose sweeps expire after window
func NewTracker(clk clock.Clock, window time.Duration) *Tracker {
	return &Tracker{
		clock:  clk,
		window: window,
		seen:   make(map[int16]struct{}),
	}
}

// Observe classifies a ward observation. A ward observed for the first time in
// the current sweep is recorded as seen; the caller merges it.
func (t *Tracker) Observe(w *model.WardObservation) Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	out := Outcome{}

	if t.shouldStartNewSweep(w, now) {
		t.startSweep(w.Zone(), now)
		out.NewSweep = true
	}
	out.SweepID = t.id

	if _, ok := t.seen[w.WardNumber]; ok {
		out.Duplicate = true
		return out
	}
	t.seen[w.WardNumber] = struct{}{}
	return out
}

func (t *Tracker) shouldStartNewSweep(w *model.WardObservation, now time.Time) bool {
	return !t.active ||
		w.WorldID != t.zone.WorldID ||
		w.TerritoryID != t.zone.TerritoryID ||
		now.Sub(t.startedAt) >= t.window
}

func (t *Tracker) startSweep(zone model.ZoneKey, now time.Time) {
	t.active = true
	t.id = util.ShortUUID()
	t.zone = zone
	t.startedAt = now
	t.seen = make(map[int16]struct{})

	log.Printf("Sweep %s started for zone %s", t.id, zone)
}

// Reset drops the current sweep so that the next observation starts a new one
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = false
	t.id = ""
	t.zone = model.ZoneKey{}
	t.seen = make(map[int16]struct{})
}

// Current returns the active sweep, if any
func (t *Tracker) Current() (Sweep, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return Sweep{}, false
	}

	wards := make([]int16, 0, len(t.seen))
	for w := range t.seen {
		wards = append(wards, w)
	}
	sort.Slice(wards, func(i, j int) bool { return wards[i] < wards[j] })

	return Sweep{
		ID:              t.id,
		Zone:            t.zone,
		StartedAt:       t.startedAt,
		SeenWardNumbers: wards,
	}, true
}
