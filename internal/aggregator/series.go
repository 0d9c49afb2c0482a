package aggregator

import (
	"math"
	"sort"
	"sync"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// compactThreshold is the minimum number of evicted slots before the backing
// slice is compacted.
const compactThreshold = 1024

type sample struct {
	ts    int64 // unix nanoseconds
	value float64
}

// series is a timestamp-ordered deque of samples for one metric kind.
// Live samples are samples[head:]; evicted slots before head are reclaimed
// lazily by compact.
type series struct {
	kind    domain.MetricKind
	mu      sync.RWMutex
	samples []sample
	head    int
}

// add inserts smp in timestamp order and evicts samples older than cutoff.
// In-order arrivals append in O(1); late arrivals are placed by binary search.
func (s *series) add(smp sample, cutoff int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.samples)
	if n == s.head || s.samples[n-1].ts <= smp.ts {
		s.samples = append(s.samples, smp)
	} else {
		live := s.samples[s.head:]
		idx := s.head + sort.Search(len(live), func(i int) bool {
			return live[i].ts > smp.ts
		})
		s.samples = append(s.samples, sample{})
		copy(s.samples[idx+1:], s.samples[idx:])
		s.samples[idx] = smp
	}

	return s.evict(cutoff)
}

// evict advances head past samples older than cutoff. Caller holds mu.
func (s *series) evict(cutoff int64) int {
	start := s.head
	for s.head < len(s.samples) && s.samples[s.head].ts < cutoff {
		s.head++
	}
	evicted := s.head - start

	if s.head >= compactThreshold && s.head*2 >= len(s.samples) {
		s.compact()
	}
	return evicted
}

// compact drops evicted slots. Caller holds mu.
func (s *series) compact() {
	live := len(s.samples) - s.head
	fresh := make([]sample, live, max(live*2, 16))
	copy(fresh, s.samples[s.head:])
	s.samples = fresh
	s.head = 0
}

// bounds returns the live index range [lo, hi) with start <= ts <= end.
// Caller holds mu.
func (s *series) bounds(start, end int64) (int, int) {
	live := s.samples[s.head:]
	lo := sort.Search(len(live), func(i int) bool { return live[i].ts >= start })
	hi := sort.Search(len(live), func(i int) bool { return live[i].ts > end })
	return s.head + lo, s.head + hi
}

// summarize fills stat with aggregates over samples in [start, end].
func (s *series) summarize(stat *domain.WindowStat, start, end int64, exactCeiling int, compression float64) {
	s.mu.RLock()
	lo, hi := s.bounds(start, end)
	window := s.samples[lo:hi]

	stat.Count = len(window)
	if stat.Count == 0 {
		s.mu.RUnlock()
		return
	}

	binary := s.kind.Binary()
	stat.Min = math.Inf(1)
	stat.Max = math.Inf(-1)
	for _, smp := range window {
		stat.Sum += smp.value
		stat.SumSquares += smp.value * smp.value
		stat.Min = math.Min(stat.Min, smp.value)
		stat.Max = math.Max(stat.Max, smp.value)
		if binary && smp.value >= domain.ValueFailure {
			stat.ErrorCount++
		}
	}

	if binary {
		for i := len(window) - 1; i >= 0 && window[i].value >= domain.ValueFailure; i-- {
			stat.ConsecutiveFailures++
		}
		stat.LastFailed = stat.ConsecutiveFailures > 0
	}

	if len(window) > exactCeiling {
		td := newTDigest(compression)
		for _, smp := range window {
			td.Add(smp.value)
		}
		s.mu.RUnlock()

		stat.Approximate = true
		stat.P50 = td.Quantile(0.50)
		stat.P90 = td.Quantile(0.90)
		stat.P95 = td.Quantile(0.95)
		stat.P99 = td.Quantile(0.99)
		return
	}

	values := make([]float64, len(window))
	for i, smp := range window {
		values[i] = smp.value
	}
	s.mu.RUnlock()

	sort.Float64s(values)
	stat.P50 = percentile(values, 0.50)
	stat.P90 = percentile(values, 0.90)
	stat.P95 = percentile(values, 0.95)
	stat.P99 = percentile(values, 0.99)
}

// since returns a copy of live samples with ts >= from.
func (s *series) since(from int64) []sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	live := s.samples[s.head:]
	lo := sort.Search(len(live), func(i int) bool { return live[i].ts >= from })
	out := make([]sample, len(live)-lo)
	copy(out, live[lo:])
	return out
}

func (s *series) stats() SeriesStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SeriesStats{Kind: s.kind, Samples: len(s.samples) - s.head}
	if st.Samples > 0 {
		oldest := time.Unix(0, s.samples[s.head].ts).UTC()
		newest := time.Unix(0, s.samples[len(s.samples)-1].ts).UTC()
		st.Oldest = &oldest
		st.Newest = &newest
	}
	return st
}

// percentile interpolates linearly between the closest ranks of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	weight := pos - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
