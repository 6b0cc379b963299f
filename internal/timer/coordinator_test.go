package timer

import (
	"sync"
	"testing"
	"time"
)

// fakeSet is a minimal stand-in for the collection's entity set: a map of
// running flags guarded by a mutex, with a trace of pause/start calls.
type fakeSet struct {
	mu      sync.Mutex
	running map[string]bool
	trace   []string
	ticks   []string
	peak    int
}

func newFakeSet() *fakeSet {
	return &fakeSet{running: make(map[string]bool)}
}

func (f *fakeSet) hooks() Hooks {
	return Hooks{
		RunningID: func() (string, bool) {
			f.mu.Lock()
			defer f.mu.Unlock()
			for id, on := range f.running {
				if on {
					return id, true
				}
			}
			return "", false
		},
		Pause: func(id string) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.running[id] = false
			f.trace = append(f.trace, "pause:"+id)
		},
		Start: func(id string) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.running[id] = true
			f.trace = append(f.trace, "start:"+id)
			n := 0
			for _, on := range f.running {
				if on {
					n++
				}
			}
			if n > f.peak {
				f.peak = n
			}
		},
		Tick: func(id string) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.ticks = append(f.ticks, id)
		},
	}
}

func (f *fakeSet) runningCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, on := range f.running {
		if on {
			n++
		}
	}
	return n
}

func TestStartTaskPausesOldBeforeStartingNew(t *testing.T) {
	set := newFakeSet()
	c := NewCoordinator(time.Hour, set.hooks())

	c.StartTask("t1")
	c.StartTask("t2")

	if set.runningCount() != 1 {
		t.Fatalf("running count = %d, want 1", set.runningCount())
	}
	if id, ok := c.RunningID(); !ok || id != "t2" {
		t.Fatalf("running = %q %v, want t2", id, ok)
	}
	want := []string{"start:t1", "pause:t1", "start:t2"}
	if len(set.trace) != len(want) {
		t.Fatalf("trace = %v, want %v", set.trace, want)
	}
	for i := range want {
		if set.trace[i] != want[i] {
			t.Fatalf("trace[%d] = %s, want %s", i, set.trace[i], want[i])
		}
	}
}

func TestToggleSameTaskPauses(t *testing.T) {
	set := newFakeSet()
	c := NewCoordinator(time.Hour, set.hooks())

	c.Toggle("t1")
	if id, ok := c.RunningID(); !ok || id != "t1" {
		t.Fatalf("running = %q %v, want t1", id, ok)
	}
	c.Toggle("t1")
	if _, ok := c.RunningID(); ok {
		t.Fatal("toggle on the running task must pause it")
	}
	if set.runningCount() != 0 {
		t.Fatalf("running count = %d, want 0", set.runningCount())
	}
}

func (f *fakeSet) maxRunning() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

func TestConcurrentStartsNeverOverlapRunners(t *testing.T) {
	set := newFakeSet()
	c := NewCoordinator(time.Hour, set.hooks())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		id := "t1"
		if i%2 == 0 {
			id = "t2"
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			c.StartTask(id)
		}(id)
	}
	wg.Wait()

	if set.runningCount() != 1 {
		t.Fatalf("running count = %d, want 1", set.runningCount())
	}
	if set.maxRunning() > 1 {
		t.Fatalf("peak concurrent runners = %d, want at most 1", set.maxRunning())
	}
}

func TestTickTouchesOnlyRunningEntity(t *testing.T) {
	set := newFakeSet()
	c := NewCoordinator(10*time.Millisecond, set.hooks())
	c.Start()
	defer c.Stop()

	c.StartTask("t1")
	time.Sleep(60 * time.Millisecond)

	set.mu.Lock()
	ticks := append([]string(nil), set.ticks...)
	set.mu.Unlock()
	if len(ticks) == 0 {
		t.Fatal("expected ticks for the running entity")
	}
	for _, id := range ticks {
		if id != "t1" {
			t.Fatalf("tick touched %q, want only t1", id)
		}
	}
}

func TestTickIdleWhenNothingRuns(t *testing.T) {
	set := newFakeSet()
	c := NewCoordinator(10*time.Millisecond, set.hooks())
	c.Start()
	defer c.Stop()

	time.Sleep(50 * time.Millisecond)
	set.mu.Lock()
	n := len(set.ticks)
	set.mu.Unlock()
	if n != 0 {
		t.Fatalf("ticks = %d, want 0 with no running entity", n)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := NewCoordinator(time.Millisecond, newFakeSet().hooks())
	c.Start()
	c.Stop()
	c.Stop()
}
