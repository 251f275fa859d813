package metrics

import (
	"sort"
	"sync"
	"time"
)

type querySample struct {
	timestamp time.Time
	mode      string
	micros    int64
	results   int
}

// LatencySummary aggregates the latencies of a set of queries.
type LatencySummary struct {
	Count int     `json:"count"`
	MinUs int64   `json:"min_us"`
	MaxUs int64   `json:"max_us"`
	AvgUs float64 `json:"avg_us"`
	P50Us float64 `json:"p50_us"`
	P95Us float64 `json:"p95_us"`
	P99Us float64 `json:"p99_us"`
}

// QueryStatsSnapshot reports the queries seen within the rolling window.
type QueryStatsSnapshot struct {
	Window      string                    `json:"window"`
	Count       int                       `json:"count"`
	ZeroResults int                       `json:"zero_results"`
	AvgResults  float64                   `json:"avg_results"`
	Latency     LatencySummary            `json:"latency"`
	ByMode      map[string]LatencySummary `json:"by_mode"`
}

// QueryStats keeps recent queries for latency percentiles and hit rates,
// split by query mode.
type QueryStats struct {
	mu      sync.Mutex
	samples []querySample
	maxAge  time.Duration
	now     func() time.Time
}

func NewQueryStats(maxAge time.Duration) *QueryStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &QueryStats{
		samples: make([]querySample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one query. Negative durations count as zero.
func (s *QueryStats) Record(mode string, d time.Duration, results int) {
	micros := d.Microseconds()
	if micros < 0 {
		micros = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, querySample{timestamp: now, mode: mode, micros: micros, results: results})
}

func (s *QueryStats) Snapshot() QueryStatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	snap := QueryStatsSnapshot{
		Window: s.maxAge.String(),
		Count:  len(s.samples),
		ByMode: make(map[string]LatencySummary),
	}
	if len(s.samples) == 0 {
		return snap
	}

	all := make([]int64, 0, len(s.samples))
	byMode := make(map[string][]int64)
	var results int
	for _, sm := range s.samples {
		all = append(all, sm.micros)
		byMode[sm.mode] = append(byMode[sm.mode], sm.micros)
		results += sm.results
		if sm.results == 0 {
			snap.ZeroResults++
		}
	}

	snap.AvgResults = float64(results) / float64(len(s.samples))
	snap.Latency = summarize(all)
	for mode, values := range byMode {
		snap.ByMode[mode] = summarize(values)
	}
	return snap
}

func (s *QueryStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// summarize sorts values in place.
func summarize(values []int64) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	var sum int64
	for _, v := range values {
		sum += v
	}
	return LatencySummary{
		Count: len(values),
		MinUs: values[0],
		MaxUs: values[len(values)-1],
		AvgUs: float64(sum) / float64(len(values)),
		P50Us: percentile(values, 50),
		P95Us: percentile(values, 95),
		P99Us: percentile(values, 99),
	}
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
