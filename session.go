package mdpresent

import (
	"fmt"
	"sync"
	"time"
)

// Mode is the top level state of a presenter session.
type Mode int

const (
	ModeEditing Mode = iota
	ModePresenting
)

func (m Mode) String() string {
	if m == ModePresenting {
		return "presenting"
	}
	return "editing"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "presenting":
		*m = ModePresenting
	case "editing":
		*m = ModeEditing
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

// PresenterView configures the presenter facing pane. The flags are
// independent of each other.
type PresenterView struct {
	Enabled       bool `json:"enabled" yaml:"enabled"`
	ShowNotes     bool `json:"showNotes" yaml:"show_notes"`
	ShowTimer     bool `json:"showTimer" yaml:"show_timer"`
	ShowNextSlide bool `json:"showNextSlide" yaml:"show_next_slide"`
}

// DefaultPresenterView shows every pane but keeps the presenter view off.
var DefaultPresenterView = PresenterView{
	ShowNotes:     true,
	ShowTimer:     true,
	ShowNextSlide: true,
}

// Controls are the per presentation run toggles. They are cleared whenever
// a presentation stops.
type Controls struct {
	LaserPointer bool `json:"laserPointer"`
	Drawing      bool `json:"drawing"`
	Blackout     bool `json:"blackout"`
}

// Snapshot is a consistent copy of a session's observable state. Seq grows
// with every snapshot taken, a higher Seq never shows older state.
type Snapshot struct {
	Seq           uint64        `json:"seq"`
	Mode          Mode          `json:"mode"`
	Presenting    bool          `json:"presenting"`
	CurrentIndex  int           `json:"currentIndex"`
	TotalSlides   int           `json:"totalSlides"`
	Title         string        `json:"title"`
	Frontmatter   Frontmatter   `json:"frontmatter"`
	Current       *Slide        `json:"current"`
	Next          *Slide        `json:"next"`
	Previous      *Slide        `json:"previous"`
	PresenterView PresenterView `json:"presenterView"`
	Controls      Controls      `json:"controls"`
	Timer         TimerStatus   `json:"timer"`
	Error         string        `json:"error,omitempty"`
}

type SessionOption func(*sessionOptions)

type sessionOptions struct {
	defaultMarkdown string
	target          time.Duration
	autoStart       bool
	view            PresenterView
	timerOpts       []TimerOption
}

// WithDefaultMarkdown sets the document a session starts with and returns
// to on ResetMarkdown.
func WithDefaultMarkdown(md string) SessionOption {
	return func(o *sessionOptions) {
		o.defaultMarkdown = md
	}
}

func WithTargetDuration(d time.Duration) SessionOption {
	return func(o *sessionOptions) {
		o.target = d
	}
}

// WithAutoStart controls whether starting a presentation restarts the timer.
func WithAutoStart(autoStart bool) SessionOption {
	return func(o *sessionOptions) {
		o.autoStart = autoStart
	}
}

func WithPresenterView(v PresenterView) SessionOption {
	return func(o *sessionOptions) {
		o.view = v
	}
}

// WithTimerOptions passes options through to the session timer.
func WithTimerOptions(opts ...TimerOption) SessionOption {
	return func(o *sessionOptions) {
		o.timerOpts = append(o.timerOpts, opts...)
	}
}

// Session owns the editable markdown, the parsed presentation and the
// presenting state on top of it.
type Session struct {
	mu              sync.Mutex
	defaultMarkdown string
	markdown        string
	pres            *Presentation
	index           int
	mode            Mode
	view            PresenterView
	controls        Controls
	autoStart       bool
	timer           *Timer

	// key handling is bound for exactly the time a presentation runs
	keysBound bool
	seq       uint64

	// held while a snapshot is taken and handed to subscribers, so they
	// see snapshots in the order they were taken
	publishMu sync.Mutex

	subsMu      sync.Mutex
	subs        map[int]func(Snapshot)
	nextSubID   int
	lastElapsed int
}

func NewSession(opts ...SessionOption) *Session {
	o := &sessionOptions{
		defaultMarkdown: DefaultMarkdown,
		target:          DefaultTargetDuration,
		autoStart:       true,
		view:            DefaultPresenterView,
	}
	for _, opt := range opts {
		opt(o)
	}
	s := &Session{
		defaultMarkdown: o.defaultMarkdown,
		markdown:        o.defaultMarkdown,
		pres:            Parse(o.defaultMarkdown),
		view:            o.view,
		autoStart:       o.autoStart,
		subs:            map[int]func(Snapshot){},
	}
	timerOpts := append([]TimerOption{WithTickHandler(s.timerTicked)}, o.timerOpts...)
	s.timer = NewTimer(o.target, timerOpts...)
	return s
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn must not block for long, it runs on the goroutine causing the change.
// Deliveries are serialized and ordered by Seq. fn must not change the
// session itself.
func (s *Session) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subsMu.Unlock()
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Session) notify() {
	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	if len(fns) == 0 {
		return
	}
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// timerTicked publishes once per elapsed second, not on every tick.
func (s *Session) timerTicked(status TimerStatus) {
	s.subsMu.Lock()
	changed := status.Elapsed != s.lastElapsed
	s.lastElapsed = status.Elapsed
	s.subsMu.Unlock()
	if changed {
		s.notify()
	}
}

// update runs fn under the session lock and notifies subscribers when fn
// reports a change.
func (s *Session) update(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return changed
}

func (s *Session) Timer() *Timer {
	return s.timer
}

func (s *Session) Markdown() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markdown
}

// Presentation returns the current parse result. It must be treated as
// read only, a later edit replaces it as a whole.
func (s *Session) Presentation() *Presentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pres
}

// UpdateMarkdown replaces the source and reparses it. The current index is
// clamped when the deck shrinks.
func (s *Session) UpdateMarkdown(md string) *Presentation {
	var pres *Presentation
	s.update(func() bool {
		if md == s.markdown && s.pres != nil {
			pres = s.pres
			return false
		}
		s.markdown = md
		s.pres = Parse(md)
		s.index = s.clampLocked(s.index)
		pres = s.pres
		return true
	})
	return pres
}

// ResetMarkdown restores the default document.
func (s *Session) ResetMarkdown() *Presentation {
	s.mu.Lock()
	md := s.defaultMarkdown
	s.mu.Unlock()
	return s.UpdateMarkdown(md)
}

func (s *Session) clampLocked(i int) int {
	last := s.pres.TotalSlides - 1
	if i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) IsPresenting() bool {
	return s.Mode() == ModePresenting
}

// Start enters presenting mode on the first slide.
func (s *Session) Start() {
	s.update(func() bool {
		if s.mode == ModePresenting {
			return false
		}
		s.mode = ModePresenting
		s.index = 0
		s.keysBound = true
		if s.autoStart {
			s.timer.Restart()
		}
		return true
	})
}

// Stop leaves presenting mode. Controls do not survive a presentation run.
func (s *Session) Stop() {
	s.update(func() bool {
		if s.mode != ModePresenting {
			return false
		}
		s.mode = ModeEditing
		s.controls = Controls{}
		s.keysBound = false
		s.timer.Reset()
		return true
	})
}

func (s *Session) setIndexLocked(i int) bool {
	i = s.clampLocked(i)
	if i == s.index {
		return false
	}
	s.index = i
	return true
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Next moves forward one slide, stopping at the last one.
func (s *Session) Next() {
	s.update(func() bool { return s.setIndexLocked(s.index + 1) })
}

// Previous moves back one slide, stopping at the first one.
func (s *Session) Previous() {
	s.update(func() bool { return s.setIndexLocked(s.index - 1) })
}

func (s *Session) First() {
	s.update(func() bool { return s.setIndexLocked(0) })
}

func (s *Session) Last() {
	s.update(func() bool { return s.setIndexLocked(s.pres.TotalSlides - 1) })
}

// GoTo jumps to slide i. Out of range targets are ignored and reported
// with false.
func (s *Session) GoTo(i int) bool {
	valid := false
	s.update(func() bool {
		if i < 0 || i >= s.pres.TotalSlides {
			return false
		}
		valid = true
		if i == s.index {
			return false
		}
		s.index = i
		return true
	})
	return valid
}

func (s *Session) CurrentSlide() *Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pres.Slide(s.index)
}

func (s *Session) NextSlide() *Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pres.Slide(s.index + 1)
}

func (s *Session) PreviousSlide() *Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pres.Slide(s.index - 1)
}

func (s *Session) Controls() Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

func (s *Session) toggle(flag *bool) {
	s.update(func() bool {
		*flag = !*flag
		return true
	})
}

func (s *Session) ToggleBlackout() {
	s.toggle(&s.controls.Blackout)
}

func (s *Session) ToggleLaserPointer() {
	s.toggle(&s.controls.LaserPointer)
}

func (s *Session) ToggleDrawing() {
	s.toggle(&s.controls.Drawing)
}

func (s *Session) PresenterView() PresenterView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) SetPresenterView(v PresenterView) {
	s.update(func() bool {
		if v == s.view {
			return false
		}
		s.view = v
		return true
	})
}

// TogglePresenterView flips the master switch only, the pane settings are
// kept for the next time the view is enabled.
func (s *Session) TogglePresenterView() {
	s.toggle(&s.view.Enabled)
}

func (s *Session) ToggleNotes() {
	s.toggle(&s.view.ShowNotes)
}

func (s *Session) ToggleTimer() {
	s.toggle(&s.view.ShowTimer)
}

func (s *Session) ToggleNextSlide() {
	s.toggle(&s.view.ShowNextSlide)
}

// timerAction applies fn to the session timer and publishes the result.
func (s *Session) timerAction(fn func(t *Timer)) {
	fn(s.timer)
	s.notify()
}

func (s *Session) StartTimer()   { s.timerAction((*Timer).Start) }
func (s *Session) PauseTimer()   { s.timerAction((*Timer).Pause) }
func (s *Session) ResumeTimer()  { s.timerAction((*Timer).Resume) }
func (s *Session) ResetTimer()   { s.timerAction((*Timer).Reset) }
func (s *Session) RestartTimer() { s.timerAction((*Timer).Restart) }

// Snapshot copies the observable state. Slide pointers refer to the
// immutable slides of the current parse.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return Snapshot{
		Seq:           s.seq,
		Mode:          s.mode,
		Presenting:    s.mode == ModePresenting,
		CurrentIndex:  s.index,
		TotalSlides:   s.pres.TotalSlides,
		Title:         s.pres.Title(),
		Frontmatter:   s.pres.Frontmatter,
		Current:       s.pres.Slide(s.index),
		Next:          s.pres.Slide(s.index + 1),
		Previous:      s.pres.Slide(s.index - 1),
		PresenterView: s.view,
		Controls:      s.controls,
		Timer:         s.timer.Status(),
		Error:         s.pres.Error,
	}
}

// Close releases key handling and stops the timer tick stream.
func (s *Session) Close() {
	s.mu.Lock()
	s.keysBound = false
	s.mu.Unlock()
	s.timer.Close()
}
