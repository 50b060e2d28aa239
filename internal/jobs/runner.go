package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/observability"
)

type Job func(ctx context.Context) error

// Runner owns the periodic jobs of one process; cancelling ctx stops them all.
type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log.Named("jobs")}
}

// Every runs fn once right away and then on each tick. A tick that arrives while
// the previous run is still in flight is skipped, so runs never overlap.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	var busy atomic.Bool
	launch := func() {
		if !busy.CompareAndSwap(false, true) {
			jobSkips.WithLabelValues(name).Inc()
			r.log.Debug("tick skipped, previous run in flight", zap.String("job", name))
			return
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			defer busy.Store(false)
			r.run(name, fn)
		}()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		launch()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				launch()
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			jobErrors.WithLabelValues(name).Inc()
			err := fmt.Errorf("panic in job %s: %v", name, rec)
			r.log.Error("job panicked", zap.String("job", name), zap.Error(err))
			observability.CaptureErr(err)
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	if err := fn(r.ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
	}
}

// Wait blocks until every job goroutine has returned. Call after cancelling ctx.
func (r *Runner) Wait() { r.wg.Wait() }
