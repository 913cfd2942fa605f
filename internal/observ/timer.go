// Package observ measures the steps of a command run.
package observ

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Step is one finished measurement.
type Step struct {
	Name    string
	Elapsed time.Duration
	Detail  string
}

// Timings collects steps in the order they finish. The zero value is not
// usable; a nil *Timings records nothing.
type Timings struct {
	mu      sync.Mutex
	started time.Time
	steps   []Step
}

// New starts the wall clock.
func New() *Timings {
	return &Timings{started: time.Now()}
}

// Track starts measuring name. Calling the returned function records the
// step; only the first call counts.
func (t *Timings) Track(name string) func(detail string) {
	if t == nil {
		return func(string) {}
	}
	begin := time.Now()
	var once sync.Once
	return func(detail string) {
		once.Do(func() {
			t.mu.Lock()
			t.steps = append(t.steps, Step{Name: name, Elapsed: time.Since(begin), Detail: detail})
			t.mu.Unlock()
		})
	}
}

// Steps returns a copy of the recorded steps.
func (t *Timings) Steps() []Step {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Step(nil), t.steps...)
}

// Wall is the time since New.
func (t *Timings) Wall() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.started)
}

// WriteTo prints one line per step and a closing wall-clock line.
func (t *Timings) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, s := range t.Steps() {
		fmt.Fprintf(&b, "  %-8s %8.1f ms", s.Name, millis(s.Elapsed))
		if s.Detail != "" {
			fmt.Fprintf(&b, "  (%s)", s.Detail)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-8s %8.1f ms\n", "total", millis(t.Wall()))
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
