package computer

import (
	"context"
	"sync"
	"time"
)

// slice is the emulated time run between checks for pause requests and
// real time pacing.
const slice = 10 * time.Millisecond

type runState struct {
	mu      sync.Mutex
	exited  chan struct{} // closed when Run returns; nil when not running
	paused  bool
	pauseCh chan chan struct{}
	resume  chan struct{}

	unthrottled bool
}

func (r *runState) init() {
	r.pauseCh = make(chan chan struct{})
	r.resume = make(chan struct{})
}

// SetThrottle selects real time pacing (the default) or running as fast as
// the host allows.
func (c *Computer) SetThrottle(on bool) {
	c.run.mu.Lock()
	defer c.run.mu.Unlock()
	c.run.unthrottled = !on
}

// Step executes one instruction, or one idle quantum of a halted or waiting
// CPU.
func (c *Computer) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cpu.ExecuteNextInstruction()
	c.now.Store(c.cpu.Time())
}

// RunTicks executes instructions until at least ticks clock ticks have
// passed.
func (c *Computer) RunTicks(ticks int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runTicks(ticks)
}

func (c *Computer) runTicks(ticks int64) {
	end := c.cpu.Time() + ticks
	for c.cpu.Time() < end {
		c.cpu.ExecuteNextInstruction()
	}
	c.now.Store(c.cpu.Time())
}

// Run executes the machine until ctx is cancelled. It may be paused and
// resumed from other goroutines; a pause takes effect between instructions.
func (c *Computer) Run(ctx context.Context) error {
	exited := make(chan struct{})
	c.run.mu.Lock()
	c.run.exited = exited
	c.run.mu.Unlock()
	defer func() {
		c.run.mu.Lock()
		c.run.exited = nil
		c.run.paused = false
		c.run.mu.Unlock()
		close(exited)
	}()

	sliceTicks := c.freq.Ticks(slice)
	start, startTicks := time.Now(), c.Time()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ack := <-c.run.pauseCh:
			close(ack)
			select {
			case <-c.run.resume:
			case <-ctx.Done():
				return ctx.Err()
			}
			start, startTicks = time.Now(), c.Time()
		default:
		}

		c.RunTicks(sliceTicks)

		c.run.mu.Lock()
		unthrottled := c.run.unthrottled
		c.run.mu.Unlock()
		if unthrottled {
			continue
		}
		ahead := c.freq.Duration(c.Time()-startTicks) - time.Since(start)
		if ahead <= 0 {
			continue
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(ahead)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Pause stops a running machine between instructions and returns once it has
// stopped. It reports false when the machine is not running.
func (c *Computer) Pause() bool {
	c.run.mu.Lock()
	exited, paused := c.run.exited, c.run.paused
	c.run.mu.Unlock()
	if exited == nil {
		return false
	}
	if paused {
		return true
	}
	ack := make(chan struct{})
	select {
	case c.run.pauseCh <- ack:
		<-ack
	case <-exited:
		return false
	}
	c.run.mu.Lock()
	c.run.paused = true
	c.run.mu.Unlock()
	return true
}

// Resume continues a paused machine.
func (c *Computer) Resume() {
	c.run.mu.Lock()
	exited, paused := c.run.exited, c.run.paused
	c.run.paused = false
	c.run.mu.Unlock()
	if exited == nil || !paused {
		return
	}
	select {
	case c.run.resume <- struct{}{}:
	case <-exited:
	}
}

// IsPaused reports whether the machine is paused.
func (c *Computer) IsPaused() bool {
	c.run.mu.Lock()
	defer c.run.mu.Unlock()
	return c.run.paused
}
