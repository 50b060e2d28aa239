package tracker

import (
	"sync"
	"time"

	"github.com/Spok95/hallboard/internal/models"
)

// Clean keeps items whose latitude and longitude both parse to finite numbers,
// in input order. Feed order is taken as chronological.
func Clean(raw []models.RawLocation) []models.LocationPoint {
	out := make([]models.LocationPoint, 0, len(raw))
	for _, r := range raw {
		if p, ok := r.Point(); ok {
			out = append(out, p)
		}
	}
	return out
}

// Frame is what the map renders: all points, the start and end markers and the path.
type Frame struct {
	Points    []models.LocationPoint `json:"points"`
	Path      [][2]float64           `json:"path"`
	Start     *models.LocationPoint  `json:"start,omitempty"`
	End       *models.LocationPoint  `json:"end,omitempty"`
	Loaded    bool                   `json:"loaded"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func NewFrame(points []models.LocationPoint, at time.Time) Frame {
	f := Frame{
		Points:    points,
		Path:      make([][2]float64, len(points)),
		Loaded:    true,
		UpdatedAt: at,
	}
	for i, p := range points {
		f.Path[i] = p.Pair()
	}
	if len(points) > 0 {
		first, last := points[0], points[len(points)-1]
		f.Start, f.End = &first, &last
	}
	return f
}

// Empty reports whether the map should show its loading/no-data placeholder.
func (f Frame) Empty() bool { return len(f.Points) == 0 }

// Store holds the current frame. Replace swaps it wholesale; there is one writer,
// the most recent completed fetch.
type Store struct {
	mu     sync.RWMutex
	frame  Frame
	nextID int
	subs   map[int]chan Frame
}

func NewStore() *Store {
	return &Store{subs: map[int]chan Frame{}}
}

func (s *Store) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

func (s *Store) Replace(f Frame) {
	s.mu.Lock()
	s.frame = f
	subs := make([]chan Frame, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		// drop the stale pending frame so slow readers only ever see the latest
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}

// Subscribe returns a channel that receives each new frame and a cancel func.
func (s *Store) Subscribe() (<-chan Frame, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan Frame, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
