package notify

import (
	"log"
	"sync"
	"time"

	"housingsweep/internal/util"

	"github.com/benbjohnson/clock"
)

// Level of a user-visible notification
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a message shown to the player once
type Notification struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives user-visible notifications
type Notifier interface {
	Notify(level Level, message string)
}

// DefaultFeedSize is how many notifications a feed keeps
const DefaultFeedSize = 50

// Feed keeps the most recent notifications until the presentation layer takes them
type Feed struct {
	clock clock.Clock
	size  int

	mu    sync.Mutex
	items []Notification
}

// NewFeed creates a feed holding at most size notifications
func NewFeed(clk clock.Clock, size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{clock: clk, size: size}
}

// Notify appends a notification, dropping the oldest when full
func (f *Feed) Notify(level Level, message string) {
	id, err := util.GenerateUUIDWithLength(8)
	if err != nil {
		id = util.ShortUUID()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, Notification{ID: id, Level: level, Message: message, At: f.clock.Now()})
	if over := len(f.items) - f.size; over > 0 {
		f.items = append([]Notification(nil), f.items[over:]...)
	}

	log.Printf("Notification [%s]: %s", level, message)
}

// List returns the pending notifications, oldest first
func (f *Feed) List() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

// Take returns the pending notifications and empties the feed
func (f *Feed) Take() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.items
	f.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}
