package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/backend"
	"github.com/Spok95/hallboard/internal/jobs"
	"github.com/Spok95/hallboard/internal/metrics"
	"github.com/Spok95/hallboard/internal/models"
	"github.com/Spok95/hallboard/internal/observability"
)

// Feed is the location source.
type Feed interface {
	Fetch(ctx context.Context) ([]models.RawLocation, error)
	Clear(ctx context.Context) error
}

// SheetFeed reads the sheet-backed location service.
type SheetFeed struct {
	c *backend.Client
}

func NewSheetFeed(c *backend.Client) *SheetFeed { return &SheetFeed{c: c} }

func (f *SheetFeed) Fetch(ctx context.Context) ([]models.RawLocation, error) {
	var out []models.RawLocation
	if err := f.c.Get(ctx, "/get-sheet-data", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *SheetFeed) Clear(ctx context.Context) error {
	return f.c.Get(ctx, "/clear-data", nil)
}

const JobName = "tracker.poll"

type Poller struct {
	feed     Feed
	store    *Store
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	// gen is bumped by Clear; a fetch issued under an older gen is discarded
	mu  sync.Mutex
	gen uint64
}

func NewPoller(feed Feed, store *Store, interval time.Duration, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{feed: feed, store: store, interval: interval, log: log.Named("tracker"), now: time.Now}
}

// Start schedules Refresh on r: once now, then every interval until r's context ends.
func (p *Poller) Start(r *jobs.Runner) {
	r.Every(p.interval, JobName, p.Refresh)
}

// Refresh fetches the feed and replaces the frame. On failure the previous frame
// stays as it was; before the first success that is the empty, not-loaded frame.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()

	raw, err := p.feed.Fetch(ctx)
	if err != nil {
		p.log.Warn("fetch locations failed, keeping previous frame", zap.Error(err))
		observability.CaptureSystemErr(err)
		return err
	}
	if ctx.Err() != nil {
		// torn down mid-request: nobody is left to render this
		return ctx.Err()
	}
	points := Clean(raw)
	if dropped := len(raw) - len(points); dropped > 0 {
		p.log.Debug("dropped malformed points", zap.Int("dropped", dropped))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		p.log.Debug("discarding fetch issued before clear")
		return nil
	}
	p.store.Replace(NewFrame(points, p.now()))
	metrics.TrackerPoints.Set(float64(len(points)))
	return nil
}

// Clear wipes the remote feed and shows an empty frame.
func (p *Poller) Clear(ctx context.Context) error {
	if err := p.feed.Clear(ctx); err != nil {
		p.log.Error("clear locations failed", zap.Error(err))
		observability.CaptureSystemErr(err)
		return err
	}
	p.mu.Lock()
	p.gen++
	p.store.Replace(NewFrame(nil, p.now()))
	p.mu.Unlock()
	metrics.TrackerPoints.Set(0)
	return nil
}
