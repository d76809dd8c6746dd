// internal/domain/progress/state.go
package progress

import (
	"sync"
	"time"
)

// Status mirrors the UI progress bar states.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusUploading Status = "uploading"
	StatusRetrying  Status = "retrying"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// IsTerminal は done / error のどちらかなら true。
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// State は 1 回の送信における進捗スナップショットです。
// 遷移のたびに丸ごと上書きされ、履歴は持ちません。
type State struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Percent int    `json:"percent"`

	// retrying のときだけ埋まる
	Attempt     int           `json:"attempt,omitempty"`
	MaxAttempts int           `json:"maxAttempts,omitempty"`
	RetryIn     time.Duration `json:"retryIn,omitempty"`
}

// Sink は Orchestrator が進捗を書き込む先です。
type Sink interface {
	Report(State)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(State)

func (f SinkFunc) Report(s State) { f(s) }

// Discard drops every update.
var Discard Sink = SinkFunc(func(State) {})

// Reporter is the single-writer state container read by the HTTP layer.
type Reporter struct {
	mu        sync.RWMutex
	current   State
	observers []func(State)
}

// NewReporter は idle 状態の Reporter を返します。
func NewReporter(observers ...func(State)) *Reporter {
	return &Reporter{
		current:   State{Status: StatusIdle},
		observers: observers,
	}
}

// Report overwrites the current state, then notifies observers in order.
func (r *Reporter) Report(s State) {
	r.mu.Lock()
	r.current = s
	obs := r.observers
	r.mu.Unlock()

	for _, fn := range obs {
		fn(s)
	}
}

// Current returns a copy of the latest state.
func (r *Reporter) Current() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Recorder keeps every update; used by tests and the CLI.
type Recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *Recorder) Report(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

// States returns a copy of everything reported so far.
func (r *Recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

// Last returns the most recent state, or the zero State when empty.
func (r *Recorder) Last() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return State{}
	}
	return r.states[len(r.states)-1]
}

// Count returns how many updates carried the given status.
func (r *Recorder) Count(status Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s.Status == status {
			n++
		}
	}
	return n
}
