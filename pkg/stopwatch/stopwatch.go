// Package stopwatch measures accumulated wall-clock time across
// start/stop cycles. The bench tool uses it to compare the trivial scan
// with the tree.
package stopwatch

import "time"

type Stopwatch struct {
	started time.Time
	elapsed time.Duration
	running bool
}

func New() *Stopwatch {
	return &Stopwatch{}
}

func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.started = time.Now()
	s.running = true
}

func (s *Stopwatch) Stop() {
	if !s.running {
		return
	}
	s.elapsed += time.Since(s.started)
	s.running = false
}

func (s *Stopwatch) Reset() {
	s.elapsed = 0
	s.running = false
}

// Elapsed returns the accumulated time, including the running interval.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.elapsed + time.Since(s.started)
	}
	return s.elapsed
}

func (s *Stopwatch) Seconds() float64 {
	return s.Elapsed().Seconds()
}
