package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayWithJitter(t *testing.T) {
	noJitter := func() float64 { return 0 }
	fullJitter := func() float64 { return 1 }

	tests := []struct {
		name    string
		base    time.Duration
		attempt int
		rand    func() float64
		want    time.Duration
	}{
		{"first attempt", 2 * time.Second, 1, noJitter, 2 * time.Second},
		{"second attempt doubles", 2 * time.Second, 2, noJitter, 4 * time.Second},
		{"third attempt doubles again", 2 * time.Second, 3, noJitter, 8 * time.Second},
		{"extraction base", 4 * time.Second, 2, noJitter, 8 * time.Second},
		{"attempt floor", 2 * time.Second, 0, noJitter, 2 * time.Second},
		{"max jitter adds quarter", 2 * time.Second, 1, fullJitter, 2500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, delayWithJitter(tt.base, tt.attempt, tt.rand))
		})
	}
}

func TestDelayBounds(t *testing.T) {
	for attempt := 1; attempt <= 5; attempt++ {
		d := Delay(2*time.Second, attempt)
		min := 2 * time.Second << (attempt - 1)
		max := min + min/4
		assert.GreaterOrEqual(t, d, min)
		assert.LessOrEqual(t, d, max)
	}
}

func TestNotifyChannel(t *testing.T) {
	assert.Equal(t, "queue_analysis", NotifyChannel("analysis"))
}
