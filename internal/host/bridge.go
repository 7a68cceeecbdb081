package host

import (
	"log"
	"sync"
	"time"

	"housingsweep/internal/model"
	"housingsweep/internal/service/scan"
	"housingsweep/internal/util"

	"github.com/benbjohnson/clock"
)

// MaxPendingCommands bounds the commands waiting for the shim
const MaxPendingCommands = 64

// Command asks the host shim to open the plot list of a ward. WardIndex is
// the zero based index the housing select block callback expects.
type Command struct {
	ID         string    `json:"id"`
	WardNumber int16     `json:"ward_number"`
	WardIndex  int       `json:"ward_index"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Bridge is the in-process side of the game client shim. The shim reports
// whether the select block panel is visible and drains queued commands.
type Bridge struct {
	clock clock.Clock

	mu       sync.Mutex
	visible  bool
	commands []Command
}

var _ scan.Host = (*Bridge)(nil)

// NewBridge creates a bridge with the panel assumed closed
func NewBridge(clk clock.Clock) *Bridge {
	return &Bridge{clock: clk}
}

// SetSurfaceVisible records the visibility of the housing select block panel
func (b *Bridge) SetSurfaceVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.visible != visible {
		log.Printf("Host: select block visible=%t", visible)
	}
	b.visible = visible
	if !visible {
		b.commands = nil
	}
}

// SelectBlockVisible implements scan.Host
func (b *Bridge) SelectBlockVisible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// OpenWard implements scan.Host by queueing a command for the shim
func (b *Bridge) OpenWard(ward int16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.visible {
		return scan.ErrHostSurfaceUnavailable
	}
	if !model.ValidWardNumber(ward) {
		return scan.ErrInvalidWard
	}

	b.commands = append(b.commands, Command{
		ID:         util.ShortUUID(),
		WardNumber: ward,
		WardIndex:  int(ward) - 1,
		IssuedAt:   b.clock.Now(),
	})
	if over := len(b.commands) - MaxPendingCommands; over > 0 {
		b.commands = append([]Command(nil), b.commands[over:]...)
	}
	return nil
}

// Drain returns the queued commands, oldest first, and empties the queue
func (b *Bridge) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.commands
	b.commands = nil
	if out == nil {
		out = []Command{}
	}
	return out
}
