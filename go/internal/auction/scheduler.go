package auction

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// The timer is owned by the Run goroutine. Every helper here must only be
// called from inside Run or a command it executes.

// arm starts a fresh tick schedule and resets the iteration count.
func (e *Engine) arm() {
	e.cancelTimer()
	e.iterations = 0
	e.schedule()
}

// rearm is arm for callers that replace an already running schedule.
func (e *Engine) rearm() {
	e.arm()
}

// schedule sets up the next one-shot tick. Each timer carries the generation
// it was scheduled under so firings that lost a race with cancel are dropped.
func (e *Engine) schedule() {
	e.generation++
	gen := e.generation
	timer := e.clock.NewTimer(e.cfg.TickInterval)
	stop := make(chan struct{})
	e.timer, e.timerStop = timer, stop

	go func(t clockwork.Timer) {
		select {
		case <-t.Chan():
			select {
			case e.tickCh <- gen:
			case <-stop:
			case <-e.done:
			}
		case <-stop:
			stopAndDrainTimer(t)
		case <-e.done:
			stopAndDrainTimer(t)
		}
	}(timer)

	log.Debug().
		Uint64("generation", gen).
		Dur("interval", e.cfg.TickInterval).
		Msg("scheduled tick")
}

// cancelTimer stops the pending tick, if any.
func (e *Engine) cancelTimer() {
	if e.timer == nil {
		return
	}
	stopAndDrainTimer(e.timer)
	close(e.timerStop)
	e.timer, e.timerStop = nil, nil
	e.generation++
	log.Debug().Msg("cancelled tick timer")
}

// timerFired forgets the timer whose tick is being handled; its goroutine has
// already returned.
func (e *Engine) timerFired() {
	e.timer, e.timerStop = nil, nil
}

func (e *Engine) applyTimer(action timerAction) {
	switch action {
	case timerNext:
		e.cancelTimer()
		e.schedule()
	case timerArm:
		e.rearm()
	case timerCancel:
		e.cancelTimer()
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent goroutine leaks.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
