package autosave

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Seklfreak/Pebble/helpers"
	"github.com/Seklfreak/Pebble/models"
	"github.com/Seklfreak/Pebble/persistence"
	"github.com/pkg/errors"
)

type fakeStore struct {
	sync.Mutex
	saves []persistence.Snapshot
	err   error
}

func (f *fakeStore) Save(snapshot persistence.Snapshot) error {
	f.Lock()
	defer f.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves = append(f.saves, snapshot)
	return nil
}

func (f *fakeStore) Load() (persistence.Snapshot, error) {
	return persistence.Snapshot{}, nil
}

func (f *fakeStore) count() int {
	f.Lock()
	defer f.Unlock()
	return len(f.saves)
}

type fakeNotifier struct {
	sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(message string) {
	f.Lock()
	defer f.Unlock()
	f.messages = append(f.messages, message)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testSnapshot() persistence.Snapshot {
	return persistence.Snapshot{
		Levels: map[string]map[string]models.LevelRecord{"g": {"u": {XP: 100, Level: 1}}},
	}
}

func TestTickSavesOnlyWhenDue(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	scheduler := New(store, testSnapshot, notifier, WithClock(clock.Now))

	for i := 0; i < 4; i++ {
		clock.Advance(time.Minute)
		if scheduler.Tick() {
			t.Fatalf("saved after %d minutes", i+1)
		}
	}

	clock.Advance(time.Minute)
	if !scheduler.Tick() {
		t.Fatal("did not save after five minutes")
	}
	if store.count() != 1 {
		t.Fatalf("store has %d saves, want 1", store.count())
	}
	if !scheduler.LastSave().Equal(clock.Now()) {
		t.Fatalf("LastSave() = %v, want %v", scheduler.LastSave(), clock.Now())
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("notifications = %v, want one success", notifier.messages)
	}

	clock.Advance(time.Minute)
	if scheduler.Tick() {
		t.Fatal("saved again right after a save")
	}
}

func TestFailedSaveKeepsTimestampAndRetries(t *testing.T) {
	store := &fakeStore{err: helpers.StorageError("save", errors.New("disk full"))}
	notifier := &fakeNotifier{}
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	scheduler := New(store, testSnapshot, notifier, WithClock(clock.Now))

	clock.Advance(5 * time.Minute)
	if !scheduler.Tick() {
		t.Fatal("Tick() did not attempt a save")
	}
	if !scheduler.LastSave().Equal(start) {
		t.Fatal("failed save moved the last save time")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("notifications = %v, want one failure report", notifier.messages)
	}

	// still due on the next check
	store.Lock()
	store.err = nil
	store.Unlock()
	clock.Advance(time.Minute)
	if !scheduler.Tick() {
		t.Fatal("scheduler stopped retrying after a failure")
	}
	if store.count() != 1 {
		t.Fatalf("store has %d saves, want 1", store.count())
	}
}

func TestSaveNowUsesCurrentSnapshot(t *testing.T) {
	store := &fakeStore{}
	xp := int64(0)
	snapshot := func() persistence.Snapshot {
		xp += 10
		return persistence.Snapshot{
			Levels: map[string]map[string]models.LevelRecord{"g": {"u": {XP: xp}}},
		}
	}
	scheduler := New(store, snapshot, nil)

	if err := scheduler.SaveNow("manual"); err != nil {
		t.Fatal(err)
	}
	if err := scheduler.SaveNow("manual"); err != nil {
		t.Fatal(err)
	}
	if got := store.saves[1].Levels["g"]["u"].XP; got != 20 {
		t.Fatalf("second save has xp %d, want 20", got)
	}
}

func TestRunFlushesOnShutdown(t *testing.T) {
	store := &fakeStore{}
	scheduler := New(store, testSnapshot, nil, WithCheckInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if store.count() != 1 {
		t.Fatalf("store has %d saves after shutdown, want 1", store.count())
	}
}
