package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replay feeds outcomes ('f' failure, 's' success) into b and returns the
// transitions observed, e.g. "open", "close".
func replay(b *Breaker, outcomes string) []string {
	var transitions []string
	for _, o := range outcomes {
		var change Change
		if o == 'f' {
			_, change = b.RecordFailure()
		} else {
			_, change = b.RecordSuccess()
		}
		if change.Opened {
			transitions = append(transitions, "open")
		}
		if change.Closed {
			transitions = append(transitions, "close")
		}
	}
	return transitions
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		outcomes string
		want     []string
		state    State
	}{
		{"defaults need five failures", nil, "ffff", nil, StateClosed},
		{"fifth failure opens", nil, "fffff", []string{"open"}, StateOpen},
		{"success clears failure streak", []Option{WithFailureThreshold(3)}, "ffsff", nil, StateClosed},
		{"streak after reset opens", []Option{WithFailureThreshold(3)}, "ffsfff", []string{"open"}, StateOpen},
		{"repeat failures while open report nothing", []Option{WithFailureThreshold(1)}, "fff", []string{"open"}, StateOpen},
		{"one success closes by default", []Option{WithFailureThreshold(1)}, "fs", []string{"open", "close"}, StateClosed},
		{"success threshold", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, "fs", []string{"open"}, StateOpen},
		{"failure restarts success streak", []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, "fssfss", []string{"open"}, StateOpen},
		{"full recovery", []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, "fssfsss", []string{"open", "close"}, StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("jail-roster", tt.opts...)
			assert.Equal(t, tt.want, replay(b, tt.outcomes))
			assert.Equal(t, tt.state, b.State())
		})
	}
}

func TestBreakerRecordReturnsPosition(t *testing.T) {
	b := New("jail-roster", WithFailureThreshold(2))

	open, _ := b.RecordFailure()
	assert.False(t, open)
	open, _ = b.RecordFailure()
	assert.True(t, open)

	closed, change := b.RecordSuccess()
	assert.True(t, closed)
	assert.True(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("jail-roster", WithFailureThreshold(1))
	replay(b, "f")
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, "jail-roster", b.Name())
	// counters are cleared too
	assert.Equal(t, []string{"open"}, replay(b, "f"))
}

func TestBreakerAllowHonorsCooldown(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("jail-roster", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(59 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(time.Second)
	assert.True(t, b.Allow(), "probe admitted after cooldown")

	// a failed probe restarts the cooldown
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(time.Minute)
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
}

func TestBreakerConcurrentUse(t *testing.T) {
	b := New("jail-roster", WithFailureThreshold(500))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				b.RecordFailure()
				b.Allow()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, "open", b.State().String())
}
