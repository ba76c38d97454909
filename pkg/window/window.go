package window

import "time"

type Sample[T any] struct {
	Time  time.Time
	Value T
}

// Window is a fixed-duration, time-ordered sequence of samples. Entries
// older than the span are pruned lazily on every query.
type Window[T any] struct {
	span    time.Duration
	samples []Sample[T]
}

func New[T any](span time.Duration) *Window[T] {
	return &Window[T]{span: span}
}

func (w *Window[T]) Add(t time.Time, v T) {
	w.samples = append(w.samples, Sample[T]{Time: t, Value: v})
}

func (w *Window[T]) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for ; i < len(w.samples); i++ {
		if !w.samples[i].Time.Before(cutoff) {
			break
		}
	}
	if i > 0 {
		w.samples = w.samples[i:]
	}
}

// At returns the value closest to "age ago", i.e. the oldest sample not
// older than now-age. Nil when the window holds nothing that old.
func (w *Window[T]) At(now time.Time, age time.Duration) *T {
	s := w.SampleAt(now, age)
	if s == nil {
		return nil
	}
	return &s.Value
}

// SampleAt is At with the sample's timestamp, for callers that must know
// how old the reference actually is.
func (w *Window[T]) SampleAt(now time.Time, age time.Duration) *Sample[T] {
	w.prune(now)
	cutoff := now.Add(-age)
	for i := range w.samples {
		if !w.samples[i].Time.Before(cutoff) {
			s := w.samples[i]
			return &s
		}
	}
	return nil
}

// Count returns how many samples remain inside the span.
func (w *Window[T]) Count(now time.Time) int {
	w.prune(now)
	return len(w.samples)
}

// Latest returns the newest sample, nil when empty.
func (w *Window[T]) Latest(now time.Time) *T {
	w.prune(now)
	if len(w.samples) == 0 {
		return nil
	}
	v := w.samples[len(w.samples)-1].Value
	return &v
}

func (w *Window[T]) Reset() {
	w.samples = nil
}
