package harrislist

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttemptRetriesUntilDone(t *testing.T) {
	r := &retrier{logger: noopLogger()}
	calls := 0
	got := attempt(r, "test", func() (int, bool) {
		calls++
		return calls * 10, calls == 5
	})
	assert.Equal(t, 5, calls)
	assert.Equal(t, 50, got)
}

func TestAttemptWarnsOnceWhenContended(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := &retrier{
		backoff:   &Backoff{Base: 1, Max: 2},
		warnAfter: 3,
		logger:    logger,
	}

	calls := 0
	attempt(r, "insert", func() (struct{}, bool) {
		calls++
		return struct{}{}, calls == 10
	})

	assert.Equal(t, 1, strings.Count(buf.String(), "operation heavily contended"))
	assert.Contains(t, buf.String(), "op=insert")
	assert.Contains(t, buf.String(), "retries=3")
}

func TestAttemptWarnDisabled(t *testing.T) {
	var buf bytes.Buffer
	r := &retrier{logger: slog.New(slog.NewTextHandler(&buf, nil))}
	calls := 0
	attempt(r, "remove", func() (bool, bool) {
		calls++
		return true, calls == 100
	})
	assert.Empty(t, buf.String())
}

func TestBackoffWaitNoop(t *testing.T) {
	var nilBackoff *Backoff
	assert.NotPanics(t, func() { nilBackoff.wait(3, nil) })
	assert.NotPanics(t, func() { (&Backoff{}).wait(3, &RNG{}) })
	// Large retry counts must not overflow the shift.
	assert.NotPanics(t, func() { (&Backoff{Base: 1, Max: 4}).wait(200, &RNG{}) })
}
