package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay_Linear(t *testing.T) {
	s := Scheduler{BaseIntervalMinutes: 15, MaxRetries: 5}
	assert.Equal(t, 15*time.Minute, s.Delay(1))
	assert.Equal(t, 30*time.Minute, s.Delay(2))
	assert.Equal(t, 75*time.Minute, s.Delay(5))
}

func TestDelay_ZeroFailCount(t *testing.T) {
	s := Scheduler{BaseIntervalMinutes: 15, MaxRetries: 5}
	assert.Equal(t, time.Duration(0), s.Delay(0))
}

func TestExceedsMax(t *testing.T) {
	s := Scheduler{BaseIntervalMinutes: 15, MaxRetries: 5}
	assert.False(t, s.ExceedsMax(5))
	assert.True(t, s.ExceedsMax(6))
}
