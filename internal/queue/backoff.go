package queue

import (
	"math/rand/v2"
	"time"
)

// Delay computes the wait before redelivering a task that has failed
// `attempt` times. Exponential on the task's base delay, with up to 25%
// random jitter so simultaneous failures do not retry in lockstep.
func Delay(base time.Duration, attempt int) time.Duration {
	return delayWithJitter(base, attempt, rand.Float64)
}

func delayWithJitter(base time.Duration, attempt int, randFloat func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base << (attempt - 1)
	jitter := time.Duration(float64(d) * 0.25 * randFloat())
	return d + jitter
}
