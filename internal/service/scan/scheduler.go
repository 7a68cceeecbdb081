package scan

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"housingsweep/internal/model"
	"housingsweep/internal/notify"

	"github.com/benbjohnson/clock"
)

var (
	// ErrHostSurfaceUnavailable is returned when the housing select block panel is not visible
	ErrHostSurfaceUnavailable = errors.New("housing select block is not open")
	// ErrInvalidWard is returned for ward numbers outside 1..30
	ErrInvalidWard = errors.New("invalid ward number")
)

const (
	surfaceUnavailableMessage = "Housing Select Block is not open. Cannot scan houses."
	scanFinishedMessage       = "Finished scanning all wards."
)

// Host opens ward plot lists in the game client
type Host interface {
	SelectBlockVisible() bool
	OpenWard(ward int16) error
}

// WardIndex answers which wards already have data
type WardIndex interface {
	HasWard(zone model.ZoneKey, ward int16) bool
	IsWardFullySeen(zone model.ZoneKey, ward int16) bool
}

// Step is the result of advancing the scan queue
type Step int

const (
	// StepRequested means a ward was dequeued and its request scheduled
	StepRequested Step = iota
	StepStopped
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepRequested:
		return "requested"
	case StepStopped:
		return "stopped"
	case StepCompleted:
		return "completed"
	}
	return "unknown"
}

// OpenResult is the outcome of a single ward request
type OpenResult int

const (
	OpenRequested OpenResult = iota
	OpenSkippedSeen
	OpenSkippedScanning
	OpenThrottled
)

func (r OpenResult) String() string {
	switch r {
	case OpenRequested:
		return "requested"
	case OpenSkippedSeen:
		return "already_seen"
	case OpenSkippedScanning:
		return "scan_in_progress"
	case OpenThrottled:
		return "throttled"
	}
	return "unknown"
}

// Scheduler drives the scan-all-wards workflow. Requests to the host are issued
// from a delayed action spaced by the throttle interval; the observation
// callback advances the queue by calling RequestNext.
type Scheduler struct {
	host     Host
	wards    WardIndex
	notifier notify.Notifier
	clock    clock.Clock
	throttle *throttle

	mu            sync.Mutex
	zone          model.ZoneKey
	queue         []int16
	scanning      bool
	stopRequested bool
	inFlight      bool
	pending       *clock.Timer
	generation    uint64
}

// NewScheduler creates an idle scheduler
func NewScheduler(host Host, wards WardIndex, notifier notify.Notifier, clk clock.Clock, interval time.Duration) *Scheduler {
	return &Scheduler{
		host:     host,
		wards:    wards,
		notifier: notifier,
		clock:    clk,
		throttle: newThrottle(interval),
	}
}

// StartScanAll queues every ward of the zone without an entry and starts requesting them
func (s *Scheduler) StartScanAll(zone model.ZoneKey) Step {
	s.mu.Lock()
	s.stopRequested = false
	s.scanning = false
	s.abortPendingLocked()
	s.zone = zone
	s.queue = s.queue[:0]
	for ward := int16(1); ward <= model.WardsPerZone; ward++ {
		if !s.wards.HasWard(zone, ward) {
			s.queue = append(s.queue, ward)
		}
	}
	queued := len(s.queue)
	s.mu.Unlock()

	log.Printf("Scan: queued %d wards for zone %s", queued, zone)

	return s.RequestNext(false)
}

// RequestNext advances the queue. fromCallback is set when called after an
// observation was delivered, which also ends the in-flight request.
func (s *Scheduler) RequestNext(fromCallback bool) Step {
	s.mu.Lock()
	if fromCallback {
		s.inFlight = false
	}

	if s.stopRequested {
		s.stopRequested = false
		s.scanning = false
		s.queue = nil
		s.abortPendingLocked()
		s.mu.Unlock()

		log.Println("Scan: stopped")
		return StepStopped
	}

	// the ward held by a scheduled request is already off the queue
	if s.pending != nil {
		s.mu.Unlock()
		return StepRequested
	}

	if len(s.queue) > 0 {
		ward := s.queue[0]
		s.queue = s.queue[1:]
		s.scanning = true
		s.scheduleLocked(ward)
		s.mu.Unlock()
		return StepRequested
	}

	wasScanning := s.scanning
	s.scanning = false
	s.mu.Unlock()

	if fromCallback && wasScanning {
		s.notifier.Notify(notify.LevelSuccess, scanFinishedMessage)
	}
	return StepCompleted
}

// Stop cancels the scan and drops the queue. If a request is in flight,
// stopRequested stays set until its observation arrives.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortPendingLocked()
	s.scanning = false
	s.queue = nil
	s.stopRequested = s.inFlight
	if s.stopRequested {
		log.Println("Scan: stop requested, waiting for in-flight ward")
		return
	}
	log.Println("Scan: stopped")
}

// OpenSingleWard requests one ward outside of a full scan
func (s *Scheduler) OpenSingleWard(ward int16, zone model.ZoneKey) (OpenResult, error) {
	if !model.ValidWardNumber(ward) {
		log.Printf("Scan: invalid ward number %d", ward)
		return 0, fmt.Errorf("%w: %d", ErrInvalidWard, ward)
	}

	if s.wards.IsWardFullySeen(zone, ward) {
		log.Printf("Scan: ward %d has already been scanned. Skipping.", ward)
		return OpenSkippedSeen, nil
	}

	s.mu.Lock()
	if s.scanning && !s.stopRequested {
		s.mu.Unlock()
		return OpenSkippedScanning, nil
	}

	if !s.host.SelectBlockVisible() {
		s.mu.Unlock()
		return 0, ErrHostSurfaceUnavailable
	}

	if s.stopRequested {
		s.stopRequested = false
		s.scanning = false
		s.queue = nil
		s.abortPendingLocked()
	}

	if !s.throttle.allow(s.clock.Now()) {
		s.mu.Unlock()
		log.Printf("Scan: request for ward %d throttled", ward)
		return OpenThrottled, nil
	}
	s.zone = zone
	s.inFlight = true
	s.mu.Unlock()

	if err := s.host.OpenWard(ward); err != nil {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
		return 0, fmt.Errorf("open ward %d: %w", ward, err)
	}
	return OpenRequested, nil
}

// Scanning reports whether a scan-all is running
func (s *Scheduler) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// StopRequested reports whether a stop waits for the in-flight ward
func (s *Scheduler) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// Pending returns the queued ward numbers in request order
func (s *Scheduler) Pending() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int16, len(s.queue))
	copy(out, s.queue)
	return out
}

// Zone returns the zone of the current or last scan
func (s *Scheduler) Zone() model.ZoneKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zone
}

// Dispose aborts everything; the scheduler can still be restarted afterwards
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortLocked()
}

func (s *Scheduler) scheduleLocked(ward int16) {
	s.abortPendingLocked()
	gen := s.generation
	delay := s.throttle.wait(s.clock.Now())
	s.pending = s.clock.AfterFunc(delay, func() { s.issue(gen, ward) })
}

// issue is the delayed action requesting one queued ward from the host
func (s *Scheduler) issue(gen uint64, ward int16) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.pending = nil

	if !s.host.SelectBlockVisible() {
		s.abortLocked()
		s.mu.Unlock()
		s.fail(ErrHostSurfaceUnavailable)
		return
	}

	if !s.throttle.allow(s.clock.Now()) {
		s.mu.Unlock()
		log.Printf("Scan: request for ward %d dropped by throttle", ward)
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	log.Printf("Scan: requesting ward %d", ward)
	if err := s.host.OpenWard(ward); err != nil {
		s.mu.Lock()
		s.abortLocked()
		s.mu.Unlock()
		s.fail(fmt.Errorf("open ward %d: %w", ward, err))
	}
}

func (s *Scheduler) fail(err error) {
	log.Printf("Scan: aborted: %v", err)
	if errors.Is(err, ErrHostSurfaceUnavailable) {
		s.notifier.Notify(notify.LevelError, surfaceUnavailableMessage)
		return
	}
	s.notifier.Notify(notify.LevelError, "Scan aborted: "+err.Error())
}

// abortLocked drops the queue and any scheduled action
func (s *Scheduler) abortLocked() {
	s.abortPendingLocked()
	s.queue = nil
	s.scanning = false
	s.stopRequested = false
	s.inFlight = false
}

func (s *Scheduler) abortPendingLocked() {
	s.generation++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}
