package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Janitor periodically sweeps uploads left behind by requests that never released them
type Janitor struct {
	store   *Store
	maxAge  time.Duration
	cron    *cron.Cron
	onSwept func(int)
}

// NewJanitor schedules Sweep on a cron spec with a seconds field, e.g. "0 */10 * * * *".
// onSwept may be nil.
func NewJanitor(store *Store, schedule string, maxAge time.Duration, onSwept func(int)) (*Janitor, error) {
	j := &Janitor{
		store:   store,
		maxAge:  maxAge,
		onSwept: onSwept,
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

// RunOnce sweeps the upload directory immediately
func (j *Janitor) RunOnce() {
	n, err := j.store.Sweep(j.maxAge, time.Now())
	if err != nil {
		log.Errorf("[JANITOR] sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Infof("[JANITOR] removed %d stale upload(s) from %s", n, j.store.Dir())
	}
	if j.onSwept != nil {
		j.onSwept(n)
	}
}

// Start runs the scheduler in the background
func (j *Janitor) Start() {
	j.cron.Start()
	log.Debug("[JANITOR] upload sweeper started")
}

// Stop halts the scheduler; the returned context is done once a running sweep finishes.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}
