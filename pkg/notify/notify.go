// Package notify carries user-facing notices out of the core.
//
// Components never talk to the UI directly. They emit Notices to a Sink and
// the transport decides how to show them.
package notify

import (
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Level    Level     `json:"level"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Redirect string    `json:"redirect,omitempty"`
	At       time.Time `json:"at"`
}

type Sink interface {
	Notify(Notice)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notice)

func (f SinkFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(Notice) {})

// OrDiscard lets components accept a nil sink.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Feed buffers notices until a reader drains them. When full the oldest
// notice is dropped.
type Feed struct {
	mu  sync.Mutex
	buf []Notice
	max int
	now func() time.Time
}

func NewFeed(max int) *Feed {
	if max <= 0 {
		max = 64
	}
	return &Feed{max: max, now: time.Now}
}

func (f *Feed) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = f.now()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) == f.max {
		f.buf = f.buf[1:]
	}
	f.buf = append(f.buf, n)
}

// Drain returns the buffered notices oldest first and empties the feed.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.buf
	f.buf = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

// Recorder keeps every notice. Used by tests.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Codes returns the codes of the recorded notices in order.
func (r *Recorder) Codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Code)
	}
	return out
}
