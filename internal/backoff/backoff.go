package backoff

import (
	"math/rand"
	"sync"
	"time"
)

// Attempts at or beyond this shift width would overflow int64.
const maxShift = 63

type exponential struct {
	initial time.Duration
	max     time.Duration
}

func newExponential(initial, max time.Duration) *exponential {
	return &exponential{initial: initial, max: max}
}

// NextDelay returns min(initial << attempt, max).
func (e *exponential) NextDelay(attempt int, _ error) time.Duration {
	return expDelay(attempt, e.initial, e.max)
}

func (e *exponential) Reset() {}

// jittered spreads the exponential delay by a random multiplier in
// [1-factor, 1+factor] so that concurrently failing tasks do not retry
// in lockstep.
type jittered struct {
	initial time.Duration
	max     time.Duration
	factor  float64
	rng     *rand.Rand
	mu      sync.Mutex
}

func newJittered(initial, max time.Duration, factor float64) *jittered {
	return &jittered{
		initial: initial,
		max:     max,
		factor:  clampFloat(factor, 0, 1),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter, not crypto
	}
}

func (j *jittered) NextDelay(attempt int, _ error) time.Duration {
	if attempt < 0 {
		return 0
	}
	base := expDelay(attempt, j.initial, j.max)

	j.mu.Lock()
	mult := 1.0 + (j.rng.Float64()*2-1)*j.factor
	j.mu.Unlock()

	d := time.Duration(float64(base) * mult)
	return clampDur(d, 0, j.max)
}

func (j *jittered) Reset() {}

// decorrelated implements sleep = min(max, random(initial, prev*3)).
// Each delay depends on the previous one rather than the attempt number,
// which decorrelates retries across concurrently failing tasks.
type decorrelated struct {
	initial time.Duration
	max     time.Duration
	prev    time.Duration
	rng     *rand.Rand
	mu      sync.Mutex
}

func newDecorrelated(initial, max time.Duration) *decorrelated {
	return &decorrelated{
		initial: initial,
		max:     max,
		prev:    initial,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter, not crypto
	}
}

func (d *decorrelated) NextDelay(attempt int, _ error) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attempt == 0 {
		d.prev = d.initial
		return d.initial
	}

	upper := min(time.Duration(float64(d.prev)*3), d.max)
	span := upper - d.initial
	if span <= 0 {
		d.prev = d.initial
		return d.initial
	}

	delay := d.initial + time.Duration(d.rng.Int63n(int64(span)))
	d.prev = delay
	return delay
}

func (d *decorrelated) Reset() {
	d.mu.Lock()
	d.prev = d.initial
	d.mu.Unlock()
}

// expDelay computes min(initial << attempt, max) with overflow clamping.
func expDelay(attempt int, initial, max time.Duration) time.Duration {
	if attempt < 0 {
		return 0
	}
	if attempt >= maxShift {
		return max
	}

	d := time.Duration(int64(1)<<uint(attempt)) * initial
	if d > max || d < 0 {
		return max
	}
	return d
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDur(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
