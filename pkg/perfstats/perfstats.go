package perfstats

import "time"

// TimeAccumulator measures how long a repeated operation takes, so a batch
// can report totals and averages when it finishes. Not safe for concurrent
// use; sample from a single collector.
type TimeAccumulator struct {
	Samples int64
	Total   time.Duration
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	a.Samples++
	a.Total += v
}

func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return time.Duration(a.Total.Nanoseconds() / a.Samples)
}
