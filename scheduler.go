package life

import "time"

// Decision is what one scheduler tick asks the simulation to do.
type Decision struct {
	Step   bool // advance one generation
	Paint  bool // flush the paint overlay
	Redraw bool // present a frame
}

// Scheduler decides on every idle tick whether a simulation step and a
// paint flush are due. It keeps absolute deadlines so the step rate does
// not drift with tick jitter.
type Scheduler struct {
	simInterval   time.Duration
	paintInterval time.Duration
	nextSim       time.Time
	nextPaint     time.Time
}

// NewScheduler returns a scheduler whose first step and flush fall one
// interval after now.
func NewScheduler(now time.Time, simInterval, paintInterval time.Duration) *Scheduler {
	return &Scheduler{
		simInterval:   simInterval,
		paintInterval: paintInterval,
		nextSim:       now.Add(simInterval),
		nextPaint:     now.Add(paintInterval),
	}
}

// Due reports the work due at now and advances the deadlines it consumed.
// While paused no step is due and the step deadline does not move.
func (s *Scheduler) Due(now time.Time, paused bool) Decision {
	var d Decision
	if !paused && !now.Before(s.nextSim) {
		d.Step = true
		d.Redraw = true
		s.nextSim = advance(s.nextSim, s.simInterval, now)
	}
	if !now.Before(s.nextPaint) {
		d.Paint = true
		s.nextPaint = advance(s.nextPaint, s.paintInterval, now)
	}
	return d
}

// advance moves deadline forward one interval. A deadline still more than
// one interval in the past is resynchronized to now+interval so a stalled
// loop does not replay a burst of steps.
func advance(deadline time.Time, interval time.Duration, now time.Time) time.Time {
	next := deadline.Add(interval)
	if now.Sub(next) >= interval {
		return now.Add(interval)
	}
	return next
}

// SetSimInterval changes the step period; the next step falls one new
// interval after now.
func (s *Scheduler) SetSimInterval(now time.Time, d time.Duration) {
	s.simInterval = d
	s.nextSim = now.Add(d)
}

// SetPaintInterval changes the paint flush period.
func (s *Scheduler) SetPaintInterval(now time.Time, d time.Duration) {
	s.paintInterval = d
	s.nextPaint = now.Add(d)
}

// Resume restarts the step deadline after a pause.
func (s *Scheduler) Resume(now time.Time) {
	s.nextSim = now.Add(s.simInterval)
}

// SimInterval returns the current step period.
func (s *Scheduler) SimInterval() time.Duration {
	return s.simInterval
}

// NextWake returns the earliest pending deadline, for hosts that sleep
// between ticks.
func (s *Scheduler) NextWake(paused bool) time.Time {
	if paused || s.nextPaint.Before(s.nextSim) {
		return s.nextPaint
	}
	return s.nextSim
}
