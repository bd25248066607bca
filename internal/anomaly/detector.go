package anomaly

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrNotFitted = errors.New("detector has not been fitted")

// Detector scores single observations against one training column. Higher
// scores are more anomalous. Probability maps a score onto [0, 1] by
// min-max scaling against the training scores.
type Detector interface {
	Name() string
	Fit(x []float64) error
	Score(v float64) float64
	Probability(v float64) float64
}

// Factory builds a fresh, unfitted detector.
type Factory struct {
	Name string
	New  func() Detector
}

// Factories lists the available detectors in menu order.
func Factories(bins, neighbors int) []Factory {
	return []Factory{
		{Name: "HBOS", New: func() Detector { return NewHBOS(bins) }},
		{Name: "KNN", New: func() Detector { return NewKNN(neighbors) }},
		{Name: "MAD", New: func() Detector { return NewMAD() }},
	}
}

type scaler struct {
	lo, hi float64
	fitted bool
}

func (s *scaler) fit(scores []float64) {
	s.lo, s.hi = floats.Min(scores), floats.Max(scores)
	s.fitted = true
}

func (s *scaler) probability(score float64) float64 {
	if !s.fitted || math.IsNaN(score) {
		return math.NaN()
	}
	if math.IsInf(score, 1) {
		return 1
	}
	if s.hi == s.lo {
		if score > s.hi {
			return 1
		}
		return 0
	}
	return math.Min(1, math.Max(0, (score-s.lo)/(s.hi-s.lo)))
}

func checkTraining(x []float64) error {
	if len(x) == 0 {
		return ErrEmptyFrame
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("training data contains %v", v)
		}
	}
	return nil
}

func trainingScores(d Detector, x []float64) []float64 {
	scores := make([]float64, len(x))
	for i, v := range x {
		scores[i] = d.Score(v)
	}
	return scores
}

// HBOS is a histogram-based outlier score: the negative log density of the
// bin the value falls into.
type HBOS struct {
	bins     int
	dividers []float64
	density  []float64
	scaler
}

const hbosFloor = 1e-12

func NewHBOS(bins int) *HBOS {
	if bins < 2 {
		bins = 2
	}
	return &HBOS{bins: bins}
}

func (h *HBOS) Name() string { return "HBOS" }

func (h *HBOS) Fit(x []float64) error {
	if err := checkTraining(x); err != nil {
		return err
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	// stat.Histogram needs the last divider strictly above the maximum.
	hi = math.Nextafter(hi, math.Inf(1))
	h.dividers = floats.Span(make([]float64, h.bins+1), lo, hi)

	counts := stat.Histogram(nil, h.dividers, sorted, nil)
	h.density = make([]float64, len(counts))
	for i, c := range counts {
		width := h.dividers[i+1] - h.dividers[i]
		h.density[i] = c / (float64(len(sorted)) * width)
	}
	h.scaler.fit(trainingScores(h, x))
	return nil
}

func (h *HBOS) Score(v float64) float64 {
	if h.density == nil {
		return math.NaN()
	}
	density := 0.0
	if v >= h.dividers[0] && v < h.dividers[len(h.dividers)-1] {
		i := sort.SearchFloat64s(h.dividers, v)
		if i == len(h.dividers) || h.dividers[i] != v {
			i--
		}
		density = h.density[i]
	}
	return -math.Log(density + hbosFloor)
}

func (h *HBOS) Probability(v float64) float64 { return h.probability(h.Score(v)) }

// KNN scores a value by its distance to the k-th nearest training value.
type KNN struct {
	k      int
	sorted []float64
	scaler
}

func NewKNN(k int) *KNN {
	if k < 1 {
		k = 1
	}
	return &KNN{k: k}
}

func (d *KNN) Name() string { return "KNN" }

func (d *KNN) Fit(x []float64) error {
	if err := checkTraining(x); err != nil {
		return err
	}
	d.sorted = append([]float64(nil), x...)
	sort.Float64s(d.sorted)

	// Each training value is its own nearest neighbour, so it looks one
	// further out.
	scores := make([]float64, len(x))
	for i, v := range x {
		scores[i] = kthDistance(d.sorted, v, d.k+1)
	}
	d.scaler.fit(scores)
	return nil
}

func (d *KNN) Score(v float64) float64 {
	if d.sorted == nil {
		return math.NaN()
	}
	return kthDistance(d.sorted, v, d.k)
}

func (d *KNN) Probability(v float64) float64 { return d.probability(d.Score(v)) }

// kthDistance walks outwards from v's insertion point in sorted. k is capped
// at the number of values.
func kthDistance(sorted []float64, v float64, k int) float64 {
	if k > len(sorted) {
		k = len(sorted)
	}
	hi := sort.SearchFloat64s(sorted, v)
	lo := hi - 1
	dist := 0.0
	for n := 0; n < k; n++ {
		switch {
		case lo < 0:
			dist = sorted[hi] - v
			hi++
		case hi >= len(sorted):
			dist = v - sorted[lo]
			lo--
		case v-sorted[lo] <= sorted[hi]-v:
			dist = v - sorted[lo]
			lo--
		default:
			dist = sorted[hi] - v
			hi++
		}
	}
	return dist
}

// MAD is the robust z-score: distance from the median in units of the
// scaled median absolute deviation.
type MAD struct {
	median float64
	scale  float64
	scaler
}

// madConsistency makes MAD estimate the standard deviation of normal data.
const madConsistency = 1.4826

func NewMAD() *MAD { return &MAD{scale: math.NaN()} }

func (d *MAD) Name() string { return "MAD" }

func (d *MAD) Fit(x []float64) error {
	if err := checkTraining(x); err != nil {
		return err
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	d.median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - d.median)
	}
	sort.Float64s(dev)
	d.scale = madConsistency * stat.Quantile(0.5, stat.Empirical, dev, nil)

	d.scaler.fit(trainingScores(d, x))
	return nil
}

func (d *MAD) Score(v float64) float64 {
	if math.IsNaN(d.scale) {
		return math.NaN()
	}
	dist := math.Abs(v - d.median)
	if d.scale == 0 {
		if dist == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return dist / d.scale
}

func (d *MAD) Probability(v float64) float64 { return d.probability(d.Score(v)) }
