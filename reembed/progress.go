package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints a single self-overwriting progress line.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	every    int
	done     int
	reported int
	started  time.Time
	running  bool
	now      func() time.Time
}

// NewProgressTracker creates a tracker for total entries that reports
// every reportInterval entries. A nil writer discards the output.
func NewProgressTracker(w io.Writer, total, reportInterval int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	return &ProgressTracker{
		w:     w,
		total: total,
		every: max(reportInterval, 1),
		now:   time.Now,
	}
}

func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = p.now()
	p.running = true
	p.done = 0
	p.reported = 0
}

// Update sets the number of entries done.
func (p *ProgressTracker) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(done)
}

// Increment adds delta entries done.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(p.done + delta)
}

func (p *ProgressTracker) set(done int) {
	if !p.running {
		return
	}
	p.done = min(done, p.total)
	if p.done-p.reported < p.every {
		return
	}
	p.reported = p.done
	fmt.Fprint(p.w, "\r"+progressLine(p.done, p.total, p.now().Sub(p.started)))
}

// Finish reports completion and ends the progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.done = p.total
	fmt.Fprintln(p.w, "\r"+progressLine(p.done, p.total, p.now().Sub(p.started)))
}

func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return 0
	}
	return p.now().Sub(p.started)
}

// progressLine renders "Progress: done/total (pct%) - rate entries/s - eta d".
func progressLine(done, total int, elapsed time.Duration) string {
	var rate float64
	if elapsed > 0 {
		rate = float64(done) / elapsed.Seconds()
	}

	pct := 0.0
	if total > 0 {
		pct = float64(done) * 100 / float64(total)
	}

	eta := "-"
	if rate > 0 && done < total {
		left := time.Duration(float64(total-done) / rate * float64(time.Second))
		eta = left.Round(time.Second).String()
	}

	return fmt.Sprintf("Progress: %d/%d (%.1f%%) - %.1f entries/s - eta %s", done, total, pct, rate, eta)
}
