package reindex

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_ReportsAtIntervals(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 25)
	tracker.Start()

	tracker.Update(10)
	assert.Empty(t, buf.String(), "below interval, nothing reported yet")

	tracker.Update(25)
	assert.Contains(t, buf.String(), "25/100")

	tracker.Update(60)
	assert.Contains(t, buf.String(), "60/100")

	tracker.Finish()
	assert.Contains(t, buf.String(), "100/100")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgressTracker_UpdateCappedAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)
	tracker.Start()

	tracker.Update(50)
	assert.Contains(t, buf.String(), "10/10")
	assert.NotContains(t, buf.String(), "50/10")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	// Updates before Start are ignored.
	tracker.Update(5)
	tracker.Finish()
	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_FinishEndsLine(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 3, 100)
	tracker.Start()
	tracker.Finish()

	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
