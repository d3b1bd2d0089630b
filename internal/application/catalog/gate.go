package catalog

import "sync/atomic"

// SchedulerGate suspends schedule-driven job creation while a bulk pause is
// in effect, so the scheduler cannot start overlapping runs into a paused
// window.
type SchedulerGate struct {
	paused atomic.Bool
}

func (g *SchedulerGate) Pause()       { g.paused.Store(true) }
func (g *SchedulerGate) Resume()      { g.paused.Store(false) }
func (g *SchedulerGate) Paused() bool { return g.paused.Load() }
