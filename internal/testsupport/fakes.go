package testsupport

import (
	"context"
	"sync"

	"luxafor/internal/color"
	"luxafor/internal/history"
	"luxafor/internal/presence"
)

// FakeDevice records every command it receives. Safe for concurrent use.
type FakeDevice struct {
	mu       sync.Mutex
	applied  []color.Hex
	offCount int
	applyErr error
	offErr   error
	offHook  func()
}

// ApplyColor records hex and returns the configured apply error.
func (d *FakeDevice) ApplyColor(_ context.Context, hex color.Hex) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applied = append(d.applied, hex)
	return d.applyErr
}

// TurnOff counts the call and returns the configured off error.
func (d *FakeDevice) TurnOff(context.Context) error {
	d.mu.Lock()
	d.offCount++
	hook := d.offHook
	err := d.offErr
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

// FailApply makes subsequent ApplyColor calls return err.
func (d *FakeDevice) FailApply(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applyErr = err
}

// FailOff makes subsequent TurnOff calls return err.
func (d *FakeDevice) FailOff(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.offErr = err
}

// OnTurnOff runs hook inside every TurnOff call, outside the lock.
func (d *FakeDevice) OnTurnOff(hook func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.offHook = hook
}

// Applied returns a copy of the colours applied so far.
func (d *FakeDevice) Applied() []color.Hex {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]color.Hex(nil), d.applied...)
}

// OffCount returns how many times TurnOff ran.
func (d *FakeDevice) OffCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.offCount
}

// Step is one scripted presence answer.
type Step struct {
	State presence.State
	Err   error
	// Block waits for the query context to end and returns its error.
	Block bool
	// Panic, when non-nil, is raised instead of answering.
	Panic any
}

// ScriptedSource answers queries from a fixed script. Exhausted is closed when
// the final step is reached; after that the final step repeats.
type ScriptedSource struct {
	mu        sync.Mutex
	steps     []Step
	calls     int
	exhausted chan struct{}
	once      sync.Once
}

// NewScriptedSource builds a source that replays steps in order.
func NewScriptedSource(steps ...Step) *ScriptedSource {
	return &ScriptedSource{steps: steps, exhausted: make(chan struct{})}
}

// States is shorthand for a script of successful answers.
func States(states ...presence.State) *ScriptedSource {
	steps := make([]Step, len(states))
	for i, s := range states {
		steps[i] = Step{State: s}
	}
	return NewScriptedSource(steps...)
}

// Query returns the next scripted step.
func (s *ScriptedSource) Query(ctx context.Context) (presence.State, error) {
	s.mu.Lock()
	if len(s.steps) == 0 {
		s.calls++
		s.mu.Unlock()
		s.once.Do(func() { close(s.exhausted) })
		return presence.Available, nil
	}
	idx := s.calls
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	s.calls++
	last := s.calls >= len(s.steps)
	step := s.steps[idx]
	s.mu.Unlock()

	if last {
		s.once.Do(func() { close(s.exhausted) })
	}
	if step.Panic != nil {
		panic(step.Panic)
	}
	if step.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return step.State, step.Err
}

// Calls returns how many queries were answered.
func (s *ScriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Exhausted is closed once every scripted step has been served.
func (s *ScriptedSource) Exhausted() <-chan struct{} {
	return s.exhausted
}

// MemoryRecorder keeps transitions in memory. Safe for concurrent use.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []history.Transition
	err     error
}

// Record appends t.
func (r *MemoryRecorder) Record(_ context.Context, t history.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, t)
	return r.err
}

// Fail makes subsequent Record calls return err after storing the entry.
func (r *MemoryRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Entries returns a copy of the recorded transitions in insertion order.
func (r *MemoryRecorder) Entries() []history.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.Transition(nil), r.entries...)
}
