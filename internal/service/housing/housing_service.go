package housing

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"housingsweep/internal/codec"
	"housingsweep/internal/model"
	"housingsweep/internal/notify"
	"housingsweep/internal/service/history"
	"housingsweep/internal/service/scan"
	"housingsweep/internal/service/seen"
	"housingsweep/internal/service/sweep"

	"github.com/benbjohnson/clock"
)

// ErrNoZone is returned when an operation needs the current zone before any was reported
var ErrNoZone = errors.New("current zone is unknown")

const resetMessage = "Seen houses have been reset."

// Options configures a HousingService
type Options struct {
	Clock        clock.Clock
	Host         scan.Host
	Notifier     notify.Notifier
	Recorder     *history.Recorder // nil disables history
	SweepWindow  time.Duration
	ScanThrottle time.Duration
}

// Status is the read-only state shown next to the scan controls
type Status struct {
	Scanning      bool           `json:"scanning"`
	StopRequested bool           `json:"stop_requested"`
	Pending       []int16        `json:"pending"`
	CurrentZone   *model.ZoneKey `json:"current_zone,omitempty"`
	Sweep         *sweep.Sweep   `json:"sweep,omitempty"`
	HasSeenPlots  bool           `json:"has_seen_plots"`
}

// HousingService owns the seen-plot store, the sweep tracker and the scan
// scheduler. HandleWardInfo is the only path that writes observations.
type HousingService struct {
	store     *seen.Store
	tracker   *sweep.Tracker
	scheduler *scan.Scheduler
	recorder  *history.Recorder
	notifier  notify.Notifier

	// writeMu serializes the paths that mutate observations
	writeMu sync.Mutex

	mu      sync.Mutex
	zone    model.ZoneKey
	hasZone bool
}

// New wires a service from opts
func New(opts Options) *HousingService {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	store := seen.NewStoreWithClock(clk)
	return &HousingService{
		store:     store,
		tracker:   sweep.NewTracker(clk, opts.SweepWindow),
		scheduler: scan.NewScheduler(opts.Host, store, opts.Notifier, clk, opts.ScanThrottle),
		recorder:  opts.Recorder,
		notifier:  opts.Notifier,
	}
}

// Store exposes the seen-plot store to the persistence workers
func (s *HousingService) Store() *seen.Store {
	return s.store
}

// HandleWardInfo processes one ward payload delivered by the host. current is
// the zone the player is in; when nil the record's own zone is used.
func (s *HousingService) HandleWardInfo(raw []byte, current *model.ZoneKey) error {
	w, err := codec.Decode(raw)
	if err != nil {
		log.Printf("Housing: discarding ward payload: %v", err)
		return err
	}
	if !model.ValidWardNumber(w.WardNumber) {
		log.Printf("Housing: discarding ward payload with ward number %d", w.WardNumber)
		return fmt.Errorf("%w: %d", scan.ErrInvalidWard, w.WardNumber)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	zone := w.Zone()
	if current != nil {
		zone = *current
	}
	s.commitZone(zone)

	out := s.tracker.Observe(w)
	if out.Duplicate {
		log.Printf("Housing: ward %d already seen in sweep %s", w.WardNumber, out.SweepID)
	} else {
		s.store.Merge(w)
		if s.recorder != nil {
			if err := s.recorder.Record(w, raw[:codec.WardRecordSize], out.SweepID); err != nil {
				log.Printf("Housing: failed to record ward %d: %v", w.WardNumber, err)
			}
		}
	}

	s.scheduler.RequestNext(true)
	return nil
}

// EnterZone commits the zone the host reports the player is in
func (s *HousingService) EnterZone(zone model.ZoneKey) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.commitZone(zone)
}

// commitZone records the current zone and clears all plots when the world changed
func (s *HousingService) commitZone(zone model.ZoneKey) {
	s.mu.Lock()
	worldChanged := s.hasZone && s.zone.WorldID != zone.WorldID
	s.zone = zone
	s.hasZone = true
	s.mu.Unlock()

	if worldChanged {
		log.Printf("Housing: world changed to %d, clearing seen plots", zone.WorldID)
		s.store.ResetAll()
	}
}

// CurrentZone returns the last zone reported by the host
func (s *HousingService) CurrentZone() (model.ZoneKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zone, s.hasZone
}

// ResetAll forgets every seen plot and the active sweep
func (s *HousingService) ResetAll() {
	s.writeMu.Lock()
	s.store.ResetAll()
	s.tracker.Reset()
	s.writeMu.Unlock()

	log.Println("Housing: seen houses reset")
	s.notifier.Notify(notify.LevelSuccess, resetMessage)
}

func (s *HousingService) GetZone(zone model.ZoneKey) seen.ZoneWards {
	return s.store.GetZone(zone)
}

func (s *HousingService) GetWard(zone model.ZoneKey, ward int16) []model.PlotState {
	return s.store.GetWard(zone, ward)
}

// ZoneUpdatedAt returns when plots of the zone last changed
func (s *HousingService) ZoneUpdatedAt(zone model.ZoneKey) (time.Time, bool) {
	return s.store.UpdatedAt(zone)
}

func (s *HousingService) HasAnySeenPlots() bool {
	return s.store.HasAnySeenPlots()
}

// StartScanAll scans every ward of the current zone that has no data yet
func (s *HousingService) StartScanAll() (scan.Step, error) {
	zone, ok := s.CurrentZone()
	if !ok {
		return scan.StepCompleted, ErrNoZone
	}
	return s.scheduler.StartScanAll(zone), nil
}

func (s *HousingService) Stop() {
	s.scheduler.Stop()
}

// OpenSingleWard requests one ward of the current zone
func (s *HousingService) OpenSingleWard(ward int16) (scan.OpenResult, error) {
	zone, ok := s.CurrentZone()
	if !ok {
		return 0, ErrNoZone
	}
	res, err := s.scheduler.OpenSingleWard(ward, zone)
	if err != nil {
		return res, fmt.Errorf("open single ward: %w", err)
	}
	return res, nil
}

// VacantPlots lists the unowned plots seen in a zone, ordered by ward then plot
func (s *HousingService) VacantPlots(zone model.ZoneKey) []model.VacantPlot {
	wards := s.store.GetZone(zone)

	numbers := make([]int16, 0, len(wards))
	for ward := range wards {
		numbers = append(numbers, ward)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	vacant := []model.VacantPlot{}
	for _, ward := range numbers {
		for _, p := range wards[ward] {
			if !p.Seen || p.Owned() {
				continue
			}
			size := p.SizeClass()
			vacant = append(vacant, model.VacantPlot{
				WardNumber: ward,
				PlotIndex:  p.Index,
				Price:      p.Price,
				Size:       size.String(),
				SizeClass:  size,
			})
		}
	}
	return vacant
}

// Summaries rolls up all 30 wards of a zone, unseen ones included
func (s *HousingService) Summaries(zone model.ZoneKey) []model.WardSummary {
	wards := s.store.GetZone(zone)

	out := make([]model.WardSummary, 0, model.WardsPerZone)
	for ward := int16(1); ward <= model.WardsPerZone; ward++ {
		out = append(out, model.SummarizeWard(ward, wards[ward]))
	}
	return out
}

func (s *HousingService) Status() Status {
	st := Status{
		Scanning:      s.scheduler.Scanning(),
		StopRequested: s.scheduler.StopRequested(),
		Pending:       s.scheduler.Pending(),
		HasSeenPlots:  s.store.HasAnySeenPlots(),
	}
	if zone, ok := s.CurrentZone(); ok {
		st.CurrentZone = &zone
	}
	if sw, ok := s.tracker.Current(); ok {
		st.Sweep = &sw
	}
	return st
}

// Dispose cancels any scheduled scan request
func (s *HousingService) Dispose() {
	s.scheduler.Dispose()
	log.Println("Housing: disposed")
}
