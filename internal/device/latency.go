package device

import (
	"math/rand"
	"time"
)

// Simulated latency ranges per variant. Writes are slower than reads,
// and the servo adds a movement-proportional component on top of its base.
const (
	motorReadMin  = 15 * time.Millisecond
	motorReadMax  = 45 * time.Millisecond
	motorWriteMin = 25 * time.Millisecond
	motorWriteMax = 75 * time.Millisecond

	servoReadMin  = 20 * time.Millisecond
	servoReadMax  = 60 * time.Millisecond
	servoWriteMin = 30 * time.Millisecond
	servoWriteMax = 70 * time.Millisecond

	// Per-degree movement cost for the servo.
	servoDegreeMin = 1 * time.Millisecond
	servoDegreeMax = 2 * time.Millisecond

	valveReadMin  = 10 * time.Millisecond
	valveReadMax  = 50 * time.Millisecond
	valveWriteMin = 20 * time.Millisecond
	valveWriteMax = 80 * time.Millisecond
)

// randomLatency picks a uniformly distributed duration in [min, max].
func randomLatency(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min+1)))
}

// servoMoveLatency computes the servo write latency for a move of the given
// angular distance: a random base plus a per-degree movement cost.
func servoMoveLatency(distance int) time.Duration {
	if distance < 0 {
		distance = -distance
	}
	base := randomLatency(servoWriteMin, servoWriteMax)
	perDegree := randomLatency(servoDegreeMin, servoDegreeMax)
	return base + time.Duration(distance)*perDegree
}
