package dashboard

import "time"

// backoff is truncated exponential backoff: Base·2ⁿ capped at Max for the
// n-th reconnect attempt, counting from zero.
type backoff struct {
	base time.Duration
	max  time.Duration
}

func (b backoff) delay(attempt int) time.Duration {
	d := b.base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= b.max {
			return b.max
		}
	}
	if d > b.max {
		return b.max
	}
	return d
}
