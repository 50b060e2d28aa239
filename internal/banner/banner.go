// Package banner holds the single transient status message shown above the dashboard.
package banner

import (
	"sync"
	"time"

	"github.com/Spok95/hallboard/internal/metrics"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

type Banner struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Board keeps the latest banner until it expires. A new post replaces the old one.
type Board struct {
	mu  sync.Mutex
	cur *Banner
	ttl time.Duration
	now func() time.Time
}

func NewBoard(ttl time.Duration) *Board {
	return &Board{ttl: ttl, now: time.Now}
}

func (b *Board) Post(kind Kind, msg string) {
	metrics.Banners.WithLabelValues(string(kind)).Inc()
	b.mu.Lock()
	b.cur = &Banner{Kind: kind, Message: msg, ExpiresAt: b.now().Add(b.ttl)}
	b.mu.Unlock()
}

func (b *Board) Success(msg string) { b.Post(Success, msg) }
func (b *Board) Error(msg string)   { b.Post(Error, msg) }

// Current returns the live banner; an expired one is dropped on read.
func (b *Board) Current() (Banner, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur == nil {
		return Banner{}, false
	}
	if !b.now().Before(b.cur.ExpiresAt) {
		b.cur = nil
		return Banner{}, false
	}
	return *b.cur, true
}

func (b *Board) Dismiss() {
	b.mu.Lock()
	b.cur = nil
	b.mu.Unlock()
}
