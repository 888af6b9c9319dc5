package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"ecdrivers/ecmatrix"
)

var stamp = time.Unix(1700000000, 0)

func fixedNow() time.Time { return stamp }

type nopLine struct{}

func (nopLine) Out(gpio.Level) error           { return nil }
func (nopLine) In(gpio.Pull, gpio.Edge) error { return nil }

// seqADC returns its samples in order, one per conversion.
type seqADC struct {
	samples []uint8
	next    int
}

func (a *seqADC) Configure() {}

func (a *seqADC) Read8() uint8 {
	v := a.samples[a.next%len(a.samples)]
	a.next++
	return v
}

func dump(t *testing.T, rows, cols uint8, samples []uint8) []byte {
	t.Helper()
	lines := make([]ecmatrix.Line, rows)
	for i := range lines {
		lines[i] = nopLine{}
	}
	sel := ecmatrix.NewSelector(lines, ecmatrix.Mux{
		S0: nopLine{}, S1: nopLine{}, S2: nopLine{}, EN1: nopLine{}, EN2: nopLine{},
	}, nopLine{})
	d := ecmatrix.New(&seqADC{samples: samples}, sel, nil)
	cfg := ecmatrix.DefaultConfig(rows, cols)
	cfg.Sleep = func(time.Duration) {}
	d.Configure(cfg)
	d.ScanAll(nil)

	var buf bytes.Buffer
	require.NoError(t, d.PrintMatrix(&buf))
	return buf.Bytes()
}

func TestDecodePrintMatrix(t *testing.T) {
	// ScanAll walks column-major, so sample i lands on row i%rows.
	samples := []uint8{7, 110, 120, 130, 140, 101, 111, 121, 131, 141, 255, 0, 99, 128, 118}
	text := dump(t, 5, 3, samples)

	dec := NewDecoder(fixedNow)
	var got []Snapshot
	for _, line := range strings.Split(string(text), "\n") {
		if s, ok := dec.Feed(line); ok {
			got = append(got, s)
		}
	}
	if s, ok := dec.Flush(); ok {
		got = append(got, s)
	}
	require.NoError(t, dec.Err())
	require.Len(t, got, 1)

	assert.Equal(t, Snapshot{
		ScanRate: 0,
		At:       stamp,
		Raw: [][]uint8{
			{7, 101, 255},
			{110, 111, 0},
			{120, 121, 99},
			{130, 131, 128},
			{140, 141, 118},
		},
	}, got[0])
	assert.Equal(t, 3, got[0].Cols())
}

func TestDecoderSkipsNoise(t *testing.T) {
	dec := NewDecoder(fixedNow)
	lines := []string{
		"BLE51 power state 1",
		"",
		"812 [0],[1],",
		"[0]: 12, 34,",
		"[1]:200,  0,",
		"keyboard: layer 1",
	}
	var got []Snapshot
	for _, l := range lines {
		if s, ok := dec.Feed(l); ok {
			got = append(got, s)
		}
	}
	assert.Empty(t, got, "frame stays open until a terminator")
	assert.ErrorIs(t, dec.Err(), ErrFrame, "trailing noise drops the frame")

	dec = NewDecoder(fixedNow)
	for _, l := range lines[:5] {
		dec.Feed(l)
	}
	s, ok := dec.Feed("")
	require.True(t, ok)
	assert.Equal(t, uint16(812), s.ScanRate)
	assert.Equal(t, [][]uint8{{12, 34}, {200, 0}}, s.Raw)
}

func TestDecoderRejectsBadRows(t *testing.T) {
	for _, line := range []string{
		"[0]: 12,",     // short
		"[1]: 12, 34,", // out of order
		"[0]: 12,300,", // not a byte
		"[x]: 12, 34,", // bad index
	} {
		dec := NewDecoder(fixedNow)
		dec.Feed("  5 [0],[1],")
		dec.Feed(line)
		_, ok := dec.Flush()
		assert.False(t, ok, line)
		assert.ErrorIs(t, dec.Err(), ErrFrame, line)
	}
}

func TestDecoderHeaderFlushes(t *testing.T) {
	dec := NewDecoder(fixedNow)
	dec.Feed("  1 [0],")
	dec.Feed("[0]: 50,")
	s, ok := dec.Feed("  2 [0],")
	require.True(t, ok)
	assert.Equal(t, uint16(1), s.ScanRate)

	dec.Feed("[0]: 60,")
	s, ok = dec.Flush()
	require.True(t, ok)
	assert.Equal(t, uint16(2), s.ScanRate)
	assert.Equal(t, [][]uint8{{60}}, s.Raw)
}

func TestStream(t *testing.T) {
	text := string(dump(t, 2, 2, []uint8{1, 2, 3, 4})) + string(dump(t, 2, 2, []uint8{5, 6, 7, 8}))

	out := make(chan Snapshot, 4)
	err := Stream(context.Background(), strings.NewReader(text), NewDecoder(fixedNow), out, zap.NewNop())
	require.NoError(t, err)
	close(out)

	var got [][][]uint8
	for s := range out {
		got = append(got, s.Raw)
	}
	assert.Equal(t, [][][]uint8{
		{{1, 3}, {2, 4}},
		{{5, 7}, {6, 8}},
	}, got)
}

func TestStreamCancel(t *testing.T) {
	text := string(dump(t, 1, 1, []uint8{9}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan Snapshot)
	err := Stream(ctx, strings.NewReader(text), NewDecoder(fixedNow), out, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimeoutReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &timeoutReader{ctx: ctx, r: strings.NewReader("x")}
	_, err := r.Read(make([]byte, 1))
	assert.ErrorIs(t, err, context.Canceled)
}
