package node

import (
	"time"
)

type timerFactory func() <-chan time.Time

// ControlTimer drives the service's periodic tick. The tick channel is
// unbuffered and sends are non-blocking, so a tick that fires while the
// listener is still busy is dropped instead of piling up.
type ControlTimer struct {
	timerFactory timerFactory
	tickCh       chan struct{} //sends a signal to the listening process
	stopCh       chan struct{} //receives instruction to stop the timer
	shutdownCh   chan struct{} //receives instruction to exit Run loop
}

// NewControlTimer ...
func NewControlTimer(timerFactory timerFactory) *ControlTimer {
	return &ControlTimer{
		timerFactory: timerFactory,
		tickCh:       make(chan struct{}),
		stopCh:       make(chan struct{}),
		shutdownCh:   make(chan struct{}),
	}
}

// NewIntervalControlTimer returns a ControlTimer that fires at a fixed
// interval.
func NewIntervalControlTimer(interval time.Duration) *ControlTimer {
	fixedTimeout := func() <-chan time.Time {
		if interval == 0 {
			return nil
		}
		return time.After(interval)
	}
	return NewControlTimer(fixedTimeout)
}

// Run loops until Shutdown, signalling the tick channel every interval.
func (c *ControlTimer) Run() {
	timer := c.timerFactory()
	for {
		select {
		case <-timer:
			select {
			case c.tickCh <- struct{}{}:
			default:
				//listener busy; skip this tick
			}
			timer = c.timerFactory()
		case <-c.stopCh:
			timer = nil
		case <-c.shutdownCh:
			return
		}
	}
}

// Stop disarms the timer without exiting the Run loop.
func (c *ControlTimer) Stop() {
	c.stopCh <- struct{}{}
}

// Shutdown exits the Run loop.
func (c *ControlTimer) Shutdown() {
	close(c.shutdownCh)
}
