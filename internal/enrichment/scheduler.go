package enrichment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alphastack/backend/pkg/logger"
)

// Status is the scheduler state snapshot exposed to the status endpoint
type Status struct {
	Running  bool       `json:"running"`
	RunCount int64      `json:"run_count"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

// Runner is the single-pass capability the scheduler drives
type Runner interface {
	Run(ctx context.Context) (RunResult, error)
}

// Scheduler drives the enrichment loop: an immediate pass on start, then
// one per interval. At most one pass is in flight process-wide; a tick
// that lands during an active pass is dropped and logged, never queued.
type Scheduler struct {
	enricher Runner
	interval time.Duration
	logger   *logger.Logger

	cron     *cron.Cron
	entryID  cron.EntryID
	inFlight atomic.Bool
	runCount atomic.Int64

	mu      sync.RWMutex
	lastRun *time.Time
	started bool
}

func NewScheduler(enricher Runner, interval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		enricher: enricher,
		interval: interval,
		logger:   log.WithComponent("scheduler"),
	}
}

// Start fires an immediate pass and begins the periodic schedule
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	s.cron = cron.New()
	s.mu.Unlock()

	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule enrichment: %w", err)
	}
	s.entryID = id

	s.cron.Start()
	s.logger.WithField("interval", s.interval.String()).Info("Enrichment schedule started")

	go s.tick(ctx)
	return nil
}

// Stop halts the schedule; an in-flight pass finishes on its own
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Enrichment schedule stopped")
}

// tick runs one pass if none is active. The guard always releases, whatever
// way the pass exits, so the schedule continues after failures.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("Enrichment tick skipped: previous pass still running")
		return
	}
	defer s.inFlight.Store(false)

	s.runCount.Add(1)

	result, err := s.enricher.Run(ctx)
	if err != nil {
		// the failed batch has already been rolled back; next tick proceeds
		s.logger.WithError(err).Error("Enrichment pass failed")
		return
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.lastRun = &now
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"items":  result.Items,
	}).Debug("Enrichment tick finished")
}

// Status reports the current scheduler state
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Running:  s.inFlight.Load(),
		RunCount: s.runCount.Load(),
		LastRun:  s.lastRun,
	}

	if s.started && s.cron != nil {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}
