package mdpresent

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	DefaultTargetDuration = 30 * time.Minute
	DefaultTickInterval   = 100 * time.Millisecond

	warningProgress = 80.0
)

// TimerState is the run state of a presentation timer.
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerPaused
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	default:
		return "idle"
	}
}

func (s TimerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TimerState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = TimerIdle
	case "running":
		*s = TimerRunning
	case "paused":
		*s = TimerPaused
	default:
		return fmt.Errorf("unknown timer state %q", text)
	}
	return nil
}

// timerState is the mutable core of the timer. Transitions are pure and
// always derive the anchor from the current elapsed value.
type timerState struct {
	state   TimerState
	anchor  time.Time
	elapsed int
}

func (s timerState) tick(now time.Time) timerState {
	if s.state != TimerRunning {
		return s
	}
	elapsed := int(now.Sub(s.anchor) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	s.elapsed = elapsed
	return s
}

func (s timerState) run(now time.Time) timerState {
	s.state = TimerRunning
	s.anchor = now.Add(-time.Duration(s.elapsed) * time.Second)
	return s
}

func (s timerState) pause(now time.Time) timerState {
	s = s.tick(now)
	s.state = TimerPaused
	return s
}

// TimerStatus is a derived view of a timer at one instant.
type TimerStatus struct {
	State         TimerState `json:"state"`
	Running       bool       `json:"running"`
	Elapsed       int        `json:"elapsedSeconds"`
	Remaining     int        `json:"remainingSeconds"`
	Target        int        `json:"targetSeconds"`
	Progress      float64    `json:"progress"`
	IsOvertime    bool       `json:"isOvertime"`
	IsWarning     bool       `json:"isWarning"`
	IsCritical    bool       `json:"isCritical"`
	ElapsedText   string     `json:"elapsed"`
	RemainingText string     `json:"remaining"`
	TargetText    string     `json:"target"`
}

func newTimerStatus(s timerState, target int) TimerStatus {
	remaining := target - s.elapsed
	if remaining < 0 {
		remaining = 0
	}
	progress := math.Min(100, float64(s.elapsed)/float64(target)*100)
	return TimerStatus{
		State:     s.state,
		Running:   s.state == TimerRunning,
		Elapsed:   s.elapsed,
		Remaining: remaining,
		Target:    target,
		Progress:  progress,
		// overtime needs strictly more than the target, critical already
		// triggers at exactly the target
		IsOvertime:    s.elapsed > target,
		IsWarning:     progress >= warningProgress && progress < 100,
		IsCritical:    progress >= 100,
		ElapsedText:   FormatClock(s.elapsed),
		RemainingText: FormatClock(remaining),
		TargetText:    FormatClock(target),
	}
}

// FormatClock formats seconds as MM:SS, or HH:MM:SS from one hour on.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if seconds < 3600 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

type TimerOption func(*Timer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) TimerOption {
	return func(t *Timer) {
		t.now = now
	}
}

func WithTickInterval(d time.Duration) TimerOption {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithTickHandler registers a callback invoked on every tick while the
// timer runs. It is called without any timer lock held.
func WithTickHandler(fn func(TimerStatus)) TimerOption {
	return func(t *Timer) {
		t.onTick = fn
	}
}

// Timer tracks elapsed presentation time against a target duration.
type Timer struct {
	mu       sync.Mutex
	now      func() time.Time
	interval time.Duration
	target   int
	st       timerState
	onTick   func(TimerStatus)

	// cancels the tick stream of the current running period
	cancelTick context.CancelFunc
}

func targetSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if secs <= 0 {
		return int(DefaultTargetDuration / time.Second)
	}
	return secs
}

func NewTimer(target time.Duration, opts ...TimerOption) *Timer {
	t := &Timer{
		now:      time.Now,
		interval: DefaultTickInterval,
		target:   targetSeconds(target),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start runs the timer from Idle or Paused, keeping elapsed time.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.state == TimerRunning {
		return
	}
	t.st = t.st.run(t.now())
	t.scheduleLocked()
}

// Pause freezes elapsed time. It does nothing unless the timer runs.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.state != TimerRunning {
		return
	}
	t.stopTicksLocked()
	t.st = t.st.pause(t.now())
}

// Resume continues a paused timer from where it stopped.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.state != TimerPaused {
		return
	}
	t.st = t.st.run(t.now())
	t.scheduleLocked()
}

// Reset returns to Idle with zero elapsed time.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTicksLocked()
	t.st = timerState{}
}

// Restart runs the timer from zero.
func (t *Timer) Restart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st = timerState{}.run(t.now())
	t.scheduleLocked()
}

// SetTarget changes the time budget. Non-positive durations select the
// default budget.
func (t *Timer) SetTarget(d time.Duration) {
	t.mu.Lock()
	t.target = targetSeconds(d)
	t.mu.Unlock()
}

// Tick recomputes elapsed time from the clock and returns the new status.
func (t *Timer) Tick() TimerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st = t.st.tick(t.now())
	return newTimerStatus(t.st, t.target)
}

// Status returns the status as of the last tick.
func (t *Timer) Status() TimerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return newTimerStatus(t.st, t.target)
}

// Close stops the tick stream without touching elapsed time.
func (t *Timer) Close() {
	t.mu.Lock()
	t.stopTicksLocked()
	t.mu.Unlock()
}

func (t *Timer) stopTicksLocked() {
	if t.cancelTick != nil {
		t.cancelTick()
		t.cancelTick = nil
	}
}

func (t *Timer) scheduleLocked() {
	t.stopTicksLocked()
	ctx, cancel := context.WithCancel(context.Background())
	t.cancelTick = cancel
	go t.tickLoop(ctx, t.interval)
}

func (t *Timer) tickLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, ok := t.tickStream(ctx)
			if !ok {
				return
			}
			if t.onTick != nil {
				t.onTick(status)
			}
		}
	}
}

// tickStream advances the timer unless the stream was cancelled in the
// meantime. The check happens under the lock so a cancelled stream never
// moves the timer again.
func (t *Timer) tickStream(ctx context.Context) (TimerStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ctx.Err() != nil {
		return TimerStatus{}, false
	}
	t.st = t.st.tick(t.now())
	return newTimerStatus(t.st, t.target), true
}
