// Package autosave periodically writes the engines' state to a persistence.Store.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/metrics"
	"github.com/Seklfreak/Pebble/persistence"
	"github.com/dustin/go-humanize"
)

const (
	DefaultInterval      = 5 * time.Minute
	DefaultCheckInterval = time.Minute
)

type Option func(*Scheduler)

func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithCheckInterval(check time.Duration) Option {
	return func(s *Scheduler) {
		if check > 0 {
			s.check = check
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler saves a snapshot once interval has passed since the last
// successful save. It looks every check interval.
type Scheduler struct {
	store    persistence.Store
	snapshot func() persistence.Snapshot
	notifier helpers.Notifier

	interval time.Duration
	check    time.Duration
	now      func() time.Time

	// saveLock serializes saves, lock guards lastSave
	saveLock sync.Mutex
	lock     sync.RWMutex
	lastSave time.Time
}

// New returns a scheduler that counts the time of its creation as last save,
// the state was just loaded from store.
func New(store persistence.Store, snapshot func() persistence.Snapshot, notifier helpers.Notifier, options ...Option) *Scheduler {
	scheduler := &Scheduler{
		store:    store,
		snapshot: snapshot,
		notifier: notifier,
		interval: DefaultInterval,
		check:    DefaultCheckInterval,
		now:      time.Now,
	}
	for _, option := range options {
		option(scheduler)
	}
	if scheduler.notifier == nil {
		scheduler.notifier = helpers.NopNotifier{}
	}
	scheduler.lastSave = scheduler.now()
	return scheduler
}

// Run checks until ctx is cancelled, then saves one last time.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.check)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.SaveNow("shutdown"); err != nil {
				cache.GetLogger().WithField("module", "autosave").Error("final save failed: ", err.Error())
			}
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick saves if the interval elapsed. It reports whether a save was attempted.
func (s *Scheduler) Tick() bool {
	if s.now().Sub(s.LastSave()) < s.interval {
		return false
	}
	s.SaveNow("autosave")
	return true
}

func (s *Scheduler) LastSave() time.Time {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastSave
}

// SaveNow writes a snapshot immediately. The result is reported to the
// operator either way; the last save time only moves on success.
func (s *Scheduler) SaveNow(reason string) error {
	s.saveLock.Lock()
	defer s.saveLock.Unlock()

	logger := cache.GetLogger().WithField("module", "autosave")
	metrics.AutosaveRuns.Add(1)

	previous := s.LastSave()
	started := s.now()

	err := s.store.Save(s.snapshot())
	if err != nil {
		metrics.AutosaveFailures.Add(1)
		logger.Errorf("%s failed: %s", reason, err.Error())
		s.notifier.Notify(helpers.GetTextF("autosave.failed", reason, err.Error(),
			humanize.RelTime(previous, started, "ago", "from now")))
		return err
	}

	s.lock.Lock()
	s.lastSave = started
	s.lock.Unlock()
	metrics.LastSave.Set(started.Unix())

	logger.Infof("%s complete", reason)
	s.notifier.Notify(helpers.GetTextF("autosave.success", reason, started.UTC().Format(time.RFC3339)))
	return nil
}
