package schedule

import (
	"fmt"
	"math/rand"
)

// RandomInterval models a random-interval reinforcement schedule: the
// stochastic analogue of a fixed-interval schedule, with inter-arrival times
// drawn from an exponential distribution.
//
// Check is the only operation that advances schedule state. It must be
// invoked only when a response has actually occurred: reinforcement is
// contingent on a response at or after the armed time, not on elapsed time
// alone.
type RandomInterval struct {
	meanInterval float64
	rng          *rand.Rand

	nextAt float64
}

// NewRandomInterval arms the schedule by drawing one exponential sample with
// mean meanInterval.
func NewRandomInterval(meanInterval float64, rng *rand.Rand) (*RandomInterval, error) {
	if meanInterval <= 0 {
		return nil, fmt.Errorf("mean interval must be > 0, got %v", meanInterval)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	s := &RandomInterval{meanInterval: meanInterval, rng: rng}
	s.nextAt = s.drawInterval()
	return s, nil
}

// Check reports whether reinforcement is due at now. On a firing call the
// schedule re-arms relative to the scheduled time, not the observed time, so
// any overshoot between due-time and the qualifying response carries
// forward. The schedule never stops arming itself.
func (s *RandomInterval) Check(now float64) bool {
	if now < s.nextAt {
		return false
	}
	s.nextAt += s.drawInterval()
	return true
}

// NextAt returns the simulated-time instant the schedule is armed for.
func (s *RandomInterval) NextAt() float64 {
	return s.nextAt
}

func (s *RandomInterval) drawInterval() float64 {
	return s.rng.ExpFloat64() * s.meanInterval
}
