package timer

import (
	"sync"
	"time"
)

// Hooks give the coordinator access to the entity set. The coordinator never
// holds entities of its own: RunningID, Pause, and Start are accessor
// callbacks into the collection and take the collection's lock themselves.
// Tick is invoked from the tick goroutine once per interval for the running
// entity only.
type Hooks struct {
	RunningID func() (string, bool)
	Pause     func(id string)
	Start     func(id string)
	Tick      func(id string)
}

// Coordinator enforces the single-running-timer invariant and drives the
// periodic reactivity tick. The tick never persists anything; it only pokes
// the running entity so observers recompute its displayed elapsed time.
type Coordinator struct {
	mu       sync.Mutex
	hooks    Hooks
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
}

const DefaultTickInterval = time.Second

func NewCoordinator(interval time.Duration, hooks Hooks) *Coordinator {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Coordinator{
		hooks:    hooks,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// StartTask starts the timer on the given entity, unconditionally pausing
// whichever entity is currently running first. Pause-old-before-start-new
// is the invariant: two running entities must never coexist, even
// transiently. The coordinator mutex is held across the whole sequence so
// concurrent starts cannot interleave between the pause and the start.
func (c *Coordinator) StartTask(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked(id)
}

// Toggle pauses the entity when it is the one running, otherwise starts it
// through the pause-then-start path.
func (c *Coordinator) Toggle(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.hooks.RunningID(); ok && cur == id {
		c.hooks.Pause(id)
		return
	}
	c.startLocked(id)
}

func (c *Coordinator) startLocked(id string) {
	if cur, ok := c.hooks.RunningID(); ok {
		c.hooks.Pause(cur)
	}
	c.hooks.Start(id)
}

// RunningID reports the single running entity, if any.
func (c *Coordinator) RunningID() (string, bool) {
	return c.hooks.RunningID()
}

// Start launches the tick loop. Safe to call once; later calls are no-ops.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	go c.loop()
}

// Stop terminates the tick loop and waits for it to drain.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()
	<-c.doneCh
}

func (c *Coordinator) loop() {
	defer close(c.doneCh)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if c.hooks.Tick == nil {
				continue
			}
			if id, ok := c.hooks.RunningID(); ok {
				c.hooks.Tick(id)
			}
		case <-c.stopCh:
			return
		}
	}
}
