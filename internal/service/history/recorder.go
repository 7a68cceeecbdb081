package history

import (
	"fmt"
	"log"
	"sync"

	"housingsweep/internal/codec"
	"housingsweep/internal/model"
	"housingsweep/internal/util"

	"github.com/benbjohnson/clock"
)

// MaxBuffered bounds the rows kept while the sink is unavailable
const MaxBuffered = 10000

// Sink persists recorded ward observations
type Sink interface {
	SaveObservations(rows []model.WardObservationPG) error
}

// Recorder buffers merged ward observations until the next flush
type Recorder struct {
	clock clock.Clock

	mu      sync.Mutex
	pending []model.WardObservationPG
	dropped int
}

// NewRecorder creates an empty recorder
func NewRecorder(clk clock.Clock) *Recorder {
	return &Recorder{clock: clk}
}

// Record keeps a compressed copy of the raw record alongside its counts
func (r *Recorder) Record(w *model.WardObservation, raw []byte, sweepID string) error {
	payload, err := util.Compress(raw)
	if err != nil {
		return fmt.Errorf("compress ward record: %w", err)
	}
	vacant, owned := w.Counts()

	row := model.WardObservationPG{
		ID:          util.TimeOrderedUUID(),
		SweepID:     sweepID,
		WorldID:     w.WorldID,
		TerritoryID: w.TerritoryID,
		WardNumber:  w.WardNumber,
		VacantCount: vacant,
		OwnedCount:  owned,
		Payload:     payload,
		ObservedAt:  r.clock.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, row)
	if over := len(r.pending) - MaxBuffered; over > 0 {
		r.pending = append([]model.WardObservationPG(nil), r.pending[over:]...)
		r.dropped += over
	}
	return nil
}

// Pending returns the number of buffered rows
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush hands buffered rows to the sink. Rows are put back if the sink fails.
func (r *Recorder) Flush(sink Sink) error {
	r.mu.Lock()
	rows := r.pending
	r.pending = nil
	dropped := r.dropped
	r.dropped = 0
	r.mu.Unlock()

	if dropped > 0 {
		log.Printf("History: dropped %d buffered observations", dropped)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := sink.SaveObservations(rows); err != nil {
		r.mu.Lock()
		r.pending = append(rows, r.pending...)
		if over := len(r.pending) - MaxBuffered; over > 0 {
			r.pending = r.pending[over:]
		}
		r.mu.Unlock()
		return fmt.Errorf("save observations: %w", err)
	}

	log.Printf("History: saved %d ward observations", len(rows))
	return nil
}

// Decode restores the observation stored in a history row
func Decode(row *model.WardObservationPG) (*model.WardObservation, error) {
	raw, err := util.Decompress(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("observation %s: %w", row.ID, err)
	}
	return codec.Decode(raw)
}
