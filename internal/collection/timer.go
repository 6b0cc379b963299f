package collection

// Timer entry points. Start and toggle go through the coordinator so the
// single-running-timer invariant holds: whoever is running gets paused
// before the next entity starts.

func (c *Collection) StartTimer(id string) error {
	if err := c.checkLive(id); err != nil {
		return err
	}
	c.timer.StartTask(id)
	return nil
}

func (c *Collection) ToggleTimer(id string) error {
	if err := c.checkLive(id); err != nil {
		return err
	}
	c.timer.Toggle(id)
	return nil
}

// PauseTimer pauses one task directly. Pausing never violates the
// single-runner invariant, so it bypasses the coordinator.
func (c *Collection) PauseTimer(id string) error {
	if err := c.lockLive(); err != nil {
		return err
	}
	t := c.findLocked(id)
	if t == nil {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	t.PauseTimer(c.now())
	c.mu.Unlock()
	c.commit()
	return nil
}

// ResetTimer pauses if running and zeroes the accumulated time.
func (c *Collection) ResetTimer(id string) error {
	if err := c.lockLive(); err != nil {
		return err
	}
	t := c.findLocked(id)
	if t == nil {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	t.ResetTimer(c.now())
	c.mu.Unlock()
	c.commit()
	return nil
}

// checkLive verifies the collection is open and the task exists before a
// coordinator-routed operation.
func (c *Collection) checkLive(id string) error {
	if err := c.lockLive(); err != nil {
		return err
	}
	defer c.mu.Unlock()
	if c.findLocked(id) == nil {
		return ErrTaskNotFound
	}
	return nil
}

// RunningID reports the single running task, if any.
func (c *Collection) RunningID() (string, bool) {
	return c.runningID()
}

// Elapsed is the displayed elapsed time for one task at the current clock.
func (c *Collection) Elapsed(id string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.findLocked(id)
	if t == nil {
		return 0, false
	}
	return t.ElapsedMS(c.now()), true
}
