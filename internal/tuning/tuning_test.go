package tuning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	a := NewAccumulator(0)
	a.Add([][]uint8{{10, 50}})
	a.Add([][]uint8{{20, 50}})
	a.Add([][]uint8{{30, 50}})

	stats := a.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, 3, a.Frames())

	assert.Equal(t, 0, stats[0].Col)
	assert.InDelta(t, 20, stats[0].Mean, 1e-9)
	assert.InDelta(t, 10, stats[0].StdDev, 1e-9)
	assert.Equal(t, uint8(30), stats[0].Max)

	assert.Equal(t, 1, stats[1].Col)
	assert.InDelta(t, 50, stats[1].Mean, 1e-9)
	assert.InDelta(t, 0, stats[1].StdDev, 1e-9)
}

func TestLimitDropsOldest(t *testing.T) {
	a := NewAccumulator(2)
	a.Add([][]uint8{{100}})
	a.Add([][]uint8{{10}})
	a.Add([][]uint8{{10}})

	stats := a.Stats()
	assert.InDelta(t, 10, stats[0].Mean, 1e-9)
	assert.Equal(t, uint8(10), stats[0].Max, "max follows the window")
}

func TestSpikeLeavesWindow(t *testing.T) {
	a := NewAccumulator(10)
	a.Add([][]uint8{{200}})

	_, err := a.Suggest(4)
	assert.ErrorIs(t, err, ErrNoLevel, "a press is noise while it is in the window")

	for i := 0; i < 50; i++ {
		a.Add([][]uint8{{50}})
	}
	s, err := a.Suggest(4)
	require.NoError(t, err)
	assert.Equal(t, uint8(80), s.Level)
	assert.Equal(t, uint8(50), s.Worst.Max)
	assert.Equal(t, 51, a.Frames())
}

func TestSuggest(t *testing.T) {
	a := NewAccumulator(0)
	for _, v := range []uint8{60, 62, 64, 62, 60, 64} {
		a.Add([][]uint8{{40, v}, {45, 41}})
	}

	s, err := a.Suggest(4)
	require.NoError(t, err)
	// mean 62, sample stddev ~1.79: ceiling ~69.2, so 80 - 10 = 70 clears it.
	assert.Equal(t, uint8(80), s.Level)
	assert.Equal(t, 9, s.Index)
	assert.Equal(t, byte(39), s.Digit)
	assert.Equal(t, 0, s.Worst.Row)
	assert.Equal(t, 1, s.Worst.Col)

	s, err = a.Suggest(10)
	require.NoError(t, err)
	// ceiling ~79.9 needs 96.
	assert.Equal(t, uint8(96), s.Level)
	assert.Equal(t, byte(31), s.Digit)
}

func TestSuggestErrors(t *testing.T) {
	_, err := NewAccumulator(0).Suggest(4)
	assert.ErrorIs(t, err, ErrNoSamples)

	a := NewAccumulator(0)
	a.Add([][]uint8{{150}})
	s, err := a.Suggest(0)
	assert.ErrorIs(t, err, ErrNoLevel)
	assert.Equal(t, uint8(150), s.Worst.Max)
}
