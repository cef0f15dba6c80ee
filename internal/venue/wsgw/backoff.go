package wsgw

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff spaces out dial attempts exponentially, capped at Max. Jitter is the
// fraction of the wait randomized in both directions.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

func DefaultBackoff() Backoff {
	return Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: 0.2,
	}
}

// Next returns the wait before the given attempt, counted from 1.
func (b Backoff) Next(attempt int) time.Duration {
	b = b.normalized()
	exp := float64(b.Min) * math.Pow(b.Factor, float64(max(attempt, 1)-1))
	wait := time.Duration(min(exp, float64(b.Max)))
	if b.Jitter == 0 {
		return wait
	}
	spread := float64(wait) * b.Jitter
	return wait + time.Duration((rand.Float64()*2-1)*spread)
}

func (b Backoff) normalized() Backoff {
	if b.Min <= 0 {
		b.Min = 100 * time.Millisecond
	}
	if b.Max < b.Min {
		b.Max = max(b.Min, 5*time.Second)
	}
	if b.Factor <= 1 {
		b.Factor = 2
	}
	b.Jitter = min(max(b.Jitter, 0), 1)
	return b
}
