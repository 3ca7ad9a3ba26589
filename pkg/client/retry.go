package client

import (
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds how a GET that failed with a network error or a 5xx
// answer is repeated. 4xx answers are never retried.
type RetryPolicy struct {
	// Retries is the number of attempts after the first one.
	Retries int
	// Base is the delay step before the first retry; it doubles per retry.
	Base time.Duration
	// Max caps a single delay step.
	Max time.Duration
	// Budget caps the total wait across all retries. Zero means no cap.
	Budget time.Duration
}

// NoRetry sends every request exactly once.
var NoRetry = RetryPolicy{}

// DefaultRetryPolicy waits roughly 100ms then 200ms, never more than 3s in
// total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries: 2,
		Base:    100 * time.Millisecond,
		Max:     2 * time.Second,
		Budget:  3 * time.Second,
	}
}

// Delay returns the wait before retry n (1-based). Half of the step is fixed
// and the other half is random, so the result lies in [step/2, step].
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 || p.Base <= 0 {
		return 0
	}
	step := p.Base
	for i := 1; i < n && (p.Max <= 0 || step < p.Max); i++ {
		if step > math.MaxInt64/2 {
			break
		}
		step *= 2
	}
	if p.Max > 0 && step > p.Max {
		step = p.Max
	}
	half := step / 2
	return half + time.Duration(rand.Int64N(int64(step-half)+1))
}
