package aggregator

import (
	"math"
	"sort"
)

type centroid struct {
	mean   float64
	weight float64
}

// tDigest is a merging t-digest: values are buffered and periodically merged
// into a sorted centroid list whose sizes are bounded by the k1 scale
// function, so memory stays O(compression) regardless of the input size.
type tDigest struct {
	compression float64
	centroids   []centroid
	buffer      []float64
	count       float64
	min         float64
	max         float64
}

func newTDigest(compression float64) *tDigest {
	return &tDigest{
		compression: compression,
		buffer:      make([]float64, 0, int(compression)*5),
		min:         math.Inf(1),
		max:         math.Inf(-1),
	}
}

// Add records one value.
func (td *tDigest) Add(v float64) {
	td.buffer = append(td.buffer, v)
	if v < td.min {
		td.min = v
	}
	if v > td.max {
		td.max = v
	}
	if len(td.buffer) == cap(td.buffer) {
		td.flush()
	}
}

// Count returns the number of values recorded.
func (td *tDigest) Count() float64 {
	return td.count + float64(len(td.buffer))
}

// flush merges buffered values into the centroid list.
func (td *tDigest) flush() {
	if len(td.buffer) == 0 {
		return
	}

	merged := make([]centroid, 0, len(td.centroids)+len(td.buffer))
	merged = append(merged, td.centroids...)
	for _, v := range td.buffer {
		merged = append(merged, centroid{mean: v, weight: 1})
	}
	td.buffer = td.buffer[:0]

	sort.Slice(merged, func(i, j int) bool { return merged[i].mean < merged[j].mean })

	var total float64
	for _, c := range merged {
		total += c.weight
	}
	td.count = total

	out := make([]centroid, 0, int(td.compression)*2)
	cur := merged[0]
	var cumulative float64
	for _, c := range merged[1:] {
		q := (cumulative + cur.weight + c.weight/2) / total
		limit := 4 * total * q * (1 - q) / td.compression
		if cur.weight+c.weight <= math.Max(limit, 1) {
			w := cur.weight + c.weight
			cur.mean += (c.mean - cur.mean) * c.weight / w
			cur.weight = w
			continue
		}
		cumulative += cur.weight
		out = append(out, cur)
		cur = c
	}
	out = append(out, cur)
	td.centroids = out
}

// Quantile returns the approximate value at quantile q in [0, 1].
func (td *tDigest) Quantile(q float64) float64 {
	td.flush()

	if len(td.centroids) == 0 {
		return 0
	}
	if q <= 0 {
		return td.min
	}
	if q >= 1 {
		return td.max
	}
	if len(td.centroids) == 1 {
		return td.centroids[0].mean
	}

	target := q * td.count
	var cumulative float64
	for i, c := range td.centroids {
		// Each centroid's mass is centered on its mean.
		center := cumulative + c.weight/2
		if target < center {
			if i == 0 {
				return td.min + (c.mean-td.min)*target/center
			}
			prev := td.centroids[i-1]
			prevCenter := cumulative - prev.weight/2
			frac := (target - prevCenter) / (center - prevCenter)
			return prev.mean + (c.mean-prev.mean)*frac
		}
		cumulative += c.weight
	}

	last := td.centroids[len(td.centroids)-1]
	lastCenter := td.count - last.weight/2
	frac := (target - lastCenter) / (td.count - lastCenter)
	return last.mean + (td.max-last.mean)*frac
}
