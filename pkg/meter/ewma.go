package meter

import (
	"math"
	"time"
)

// TickInterval is the fixed decay interval of every moving average.
const TickInterval = 5 * time.Second

// ewma is an exponentially weighted moving average of a per-second rate.
// It is not safe for concurrent use; Meter serialises access.
type ewma struct {
	alpha float64
	rate  float64
	init  bool
}

func newEWMA(window time.Duration) ewma {
	return ewma{alpha: 1 - math.Exp(-TickInterval.Seconds()/window.Seconds())}
}

// tick folds n elapsed intervals into the average. The first interval carries
// the uncounted events, the following ones carried none.
func (e *ewma) tick(uncounted uint64, n int64) {
	if n <= 0 {
		return
	}
	instant := float64(uncounted) / TickInterval.Seconds()
	if e.init {
		e.rate += e.alpha * (instant - e.rate)
	} else {
		e.rate = instant
		e.init = true
	}
	if n > 1 {
		e.rate *= math.Pow(1-e.alpha, float64(n-1))
	}
}
