package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(total, every int) (*ProgressTracker, *bytes.Buffer, *fakeClock) {
	buf := &bytes.Buffer{}
	clock := &fakeClock{t: time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)}
	p := NewProgressTracker(buf, total, every)
	p.now = clock.now
	return p, buf, clock
}

func TestProgressLine(t *testing.T) {
	tests := []struct {
		name    string
		done    int
		total   int
		elapsed time.Duration
		want    string
	}{
		{"halfway", 50, 100, 10 * time.Second, "Progress: 50/100 (50.0%) - 5.0 entries/s - eta 10s"},
		{"complete", 100, 100, 20 * time.Second, "Progress: 100/100 (100.0%) - 5.0 entries/s - eta -"},
		{"nothing done yet", 0, 100, time.Second, "Progress: 0/100 (0.0%) - 0.0 entries/s - eta -"},
		{"no time elapsed", 10, 100, 0, "Progress: 10/100 (10.0%) - 0.0 entries/s - eta -"},
		{"empty index", 0, 0, time.Second, "Progress: 0/0 (0.0%) - 0.0 entries/s - eta -"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progressLine(tt.done, tt.total, tt.elapsed))
		})
	}
}

func TestProgressTracker_ReportsEveryInterval(t *testing.T) {
	p, buf, clock := newTestTracker(1000, 100)
	p.Start()

	clock.advance(time.Second)
	p.Update(50)
	assert.Empty(t, buf.String(), "below the interval")

	p.Update(100)
	assert.Equal(t, "\rProgress: 100/1000 (10.0%) - 100.0 entries/s - eta 9s", buf.String())

	buf.Reset()
	p.Increment(60)
	assert.Empty(t, buf.String(), "60 since last report")

	p.Increment(40)
	assert.Contains(t, buf.String(), "200/1000")
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	p, buf, clock := newTestTracker(100, 10)
	p.Start()
	clock.advance(time.Second)

	p.Increment(150)
	assert.Contains(t, buf.String(), "100/100 (100.0%)")
}

func TestProgressTracker_Finish(t *testing.T) {
	p, buf, clock := newTestTracker(100, 1000)
	p.Start()
	clock.advance(4 * time.Second)
	p.Update(75)
	require.Empty(t, buf.String())

	p.Finish()
	assert.Equal(t, "\rProgress: 100/100 (100.0%) - 25.0 entries/s - eta -\n", buf.String())
	assert.Equal(t, 4*time.Second, p.Elapsed())
}

func TestProgressTracker_NotStarted(t *testing.T) {
	p, buf, _ := newTestTracker(100, 10)

	p.Increment(10)
	p.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, p.Elapsed())
}

func TestProgressTracker_RestartResetsCounters(t *testing.T) {
	p, buf, clock := newTestTracker(10, 5)
	p.Start()
	p.Update(10)

	buf.Reset()
	clock.advance(time.Minute)
	p.Start()
	p.Update(4)
	assert.Empty(t, buf.String(), "counters restart from zero")
	assert.Zero(t, p.Elapsed())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	p := NewProgressTracker(nil, 10, 0)

	p.Start()
	p.Increment(5)
	p.Finish()
	assert.GreaterOrEqual(t, p.Elapsed(), time.Duration(0))
}

func TestProgressTracker_RealClock(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 2, 1)

	p.Start()
	time.Sleep(5 * time.Millisecond)
	p.Increment(1)
	p.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\r")
	assert.Contains(t, lines[len(lines)-1], "2/2")
	assert.Greater(t, p.Elapsed(), time.Duration(0))
}
