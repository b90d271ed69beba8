// Package timing records how long each augmentation step takes.
package timing

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the samples recorded for one operation.
type Summary struct {
	Operation string
	Count     int
	Mean      time.Duration
	StdDev    time.Duration
	Max       time.Duration
}

type Tracker struct {
	timings map[string][]time.Duration
	mu      sync.RWMutex
	enabled bool
}

func NewTracker() *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
		enabled: true,
	}
}

// Start begins timing operation and returns the function that stops it.
// A nil Tracker hands back a no-op so callers need no guard.
func (tt *Tracker) Start(operation string) func() {
	if tt == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		tt.Record(operation, time.Since(start))
	}
}

func (tt *Tracker) Record(operation string, d time.Duration) {
	if tt == nil {
		return
	}
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if !tt.enabled {
		return
	}
	tt.timings[operation] = append(tt.timings[operation], d)
}

func (tt *Tracker) GetTimings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

func (tt *Tracker) GetAverageTime(operation string) time.Duration {
	return tt.Summarize(operation).Mean
}

// Summarize computes count, mean, standard deviation and maximum for one
// operation.
func (tt *Tracker) Summarize(operation string) Summary {
	timings := tt.GetTimings(operation)
	s := Summary{Operation: operation, Count: len(timings)}
	if len(timings) == 0 {
		return s
	}

	samples := make([]float64, len(timings))
	for i, d := range timings {
		samples[i] = float64(d)
		s.Max = max(s.Max, d)
	}
	mean, std := stat.MeanStdDev(samples, nil)
	s.Mean = time.Duration(mean)
	if len(samples) > 1 {
		s.StdDev = time.Duration(std)
	}
	return s
}

// Summaries returns one Summary per recorded operation, sorted by name.
func (tt *Tracker) Summaries() []Summary {
	tt.mu.RLock()
	names := make([]string, 0, len(tt.timings))
	for name := range tt.timings {
		names = append(names, name)
	}
	tt.mu.RUnlock()

	sort.Strings(names)
	out := make([]Summary, 0, len(names))
	for _, name := range names {
		out = append(out, tt.Summarize(name))
	}
	return out
}

func (tt *Tracker) SetEnabled(enabled bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.enabled = enabled
}

func (tt *Tracker) Reset(operation string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if operation == "" {
		tt.timings = make(map[string][]time.Duration)
	} else {
		delete(tt.timings, operation)
	}
}
