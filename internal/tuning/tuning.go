// Package tuning derives an actuation level from the idle noise of a matrix.
//
// With every key released the raw samples sit in a noise band. A level is
// safe when its release threshold, the level minus the reset offset, stays
// above mean + sigma * stddev for every key.
package tuning

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"ecdrivers/ecmatrix"
)

var (
	ErrNoSamples = errors.New("tuning: no samples")
	ErrNoLevel   = errors.New("tuning: noise above every actuation level")
)

// KeyStats is the noise of one key.
type KeyStats struct {
	Row, Col int
	Mean     float64
	StdDev   float64
	Max      uint8
}

// Ceiling returns the highest raw value the key is expected to reach idle.
func (k KeyStats) Ceiling(sigma float64) float64 {
	return math.Max(k.Mean+sigma*k.StdDev, float64(k.Max))
}

// Suggestion is the recommended actuation level and how to store it.
type Suggestion struct {
	Level uint8
	Index int
	// Digit is the keycode that selects Level when stored at the calibration
	// key.
	Digit byte
	// Worst is the noisiest key.
	Worst KeyStats
}

// Accumulator collects idle samples per key.
type Accumulator struct {
	samples map[[2]int][]float64
	limit   int
	frames  int
}

// NewAccumulator keeps at most limit samples per key; older samples are
// dropped first. A limit of zero keeps everything.
func NewAccumulator(limit int) *Accumulator {
	return &Accumulator{
		samples: make(map[[2]int][]float64),
		limit:   limit,
	}
}

// Add records one snapshot of raw values.
func (a *Accumulator) Add(raw [][]uint8) {
	for r, row := range raw {
		for c, v := range row {
			key := [2]int{r, c}
			s := append(a.samples[key], float64(v))
			if a.limit > 0 && len(s) > a.limit {
				s = s[len(s)-a.limit:]
			}
			a.samples[key] = s
		}
	}
	a.frames++
}

// Frames returns the number of snapshots added.
func (a *Accumulator) Frames() int {
	return a.frames
}

// Stats returns the noise of every key over the kept samples, ordered by row
// then column.
func (a *Accumulator) Stats() []KeyStats {
	out := make([]KeyStats, 0, len(a.samples))
	for key, s := range a.samples {
		mean, std := stat.MeanStdDev(s, nil)
		if len(s) < 2 {
			std = 0
		}
		out = append(out, KeyStats{Row: key[0], Col: key[1], Mean: mean, StdDev: std, Max: uint8(floats.Max(s))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Suggest picks the lowest table level whose release threshold clears the
// noise ceiling of every key.
func (a *Accumulator) Suggest(sigma float64) (Suggestion, error) {
	stats := a.Stats()
	if len(stats) == 0 {
		return Suggestion{}, ErrNoSamples
	}

	worst := stats[0]
	for _, k := range stats[1:] {
		if k.Ceiling(sigma) > worst.Ceiling(sigma) {
			worst = k
		}
	}
	ceiling := worst.Ceiling(sigma)

	levels := ecmatrix.Levels()
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return levels[order[i]] < levels[order[j]] })

	for _, i := range order {
		if float64(levels[i])-ecmatrix.ResetOffset > ceiling {
			digit, _, _ := ecmatrix.EncodeLevel(i)
			return Suggestion{Level: levels[i], Index: i, Digit: digit, Worst: worst}, nil
		}
	}
	return Suggestion{Worst: worst}, ErrNoLevel
}
