package ecmatrix

import (
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// fakeLine records the electrical state of one line.
type fakeLine struct {
	name   string
	output bool
	level  gpio.Level
	pull   gpio.Pull
	trace  *[]string
	err    error
}

func (l *fakeLine) Out(level gpio.Level) error {
	l.output, l.level = true, level
	if l.trace != nil {
		*l.trace = append(*l.trace, fmt.Sprintf("%s=%t", l.name, bool(level)))
	}
	return l.err
}

func (l *fakeLine) In(pull gpio.Pull, edge gpio.Edge) error {
	l.output, l.pull = false, pull
	if l.trace != nil {
		mode := "float"
		if pull == gpio.PullUp {
			mode = "up"
		}
		*l.trace = append(*l.trace, l.name+":"+mode)
	}
	return l.err
}

func (l *fakeLine) selected() bool {
	return !l.output && l.pull == gpio.PullUp
}

// fakeADC returns samples[row][col] for the row currently released and the
// column currently on the mux address lines.
type fakeADC struct {
	rig        *rig
	configured bool
	reads      int
	masked     []bool
}

func (a *fakeADC) Configure() { a.configured = true }

func (a *fakeADC) Read8() uint8 {
	a.reads++
	a.masked = append(a.masked, a.rig.mask.depth > 0)
	row := -1
	for i, l := range a.rig.rows {
		if l.selected() {
			row = i
		}
	}
	col := a.rig.column()
	if row < 0 || col < 0 {
		return 0
	}
	return a.rig.samples[row][col]
}

type fakeMask struct {
	depth    int
	disables int
}

func (m *fakeMask) Disable() uintptr {
	m.depth++
	m.disables++
	return uintptr(m.depth)
}

func (m *fakeMask) Restore(state uintptr) {
	m.depth = int(state) - 1
}

type fakeStorage []byte

func (s fakeStorage) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s)) {
		return 0, io.EOF
	}
	n := copy(p, s[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// rig is a simulated board: row lines, two muxes, a discharge line and a
// table of samples.
type rig struct {
	rows      []*fakeLine
	mux       [5]*fakeLine
	discharge *fakeLine
	mask      *fakeMask
	adc       *fakeADC
	samples   [MaxRows][MaxCols]uint8
	sleeps    []time.Duration
	trace     []string
	sel       *Selector
}

func newRig(rows int) *rig {
	r := &rig{mask: &fakeMask{}}
	lines := make([]Line, rows)
	for i := range lines {
		l := &fakeLine{name: fmt.Sprintf("row%d", i), trace: &r.trace}
		r.rows = append(r.rows, l)
		lines[i] = l
	}
	for i, name := range []string{"s0", "s1", "s2", "en1", "en2"} {
		r.mux[i] = &fakeLine{name: name, trace: &r.trace}
	}
	r.discharge = &fakeLine{name: "dis", trace: &r.trace}
	r.adc = &fakeADC{rig: r}
	r.sel = NewSelector(lines, Mux{
		S0: r.mux[0], S1: r.mux[1], S2: r.mux[2],
		EN1: r.mux[3], EN2: r.mux[4],
	}, r.discharge)
	return r
}

func (r *rig) sleep(t time.Duration) {
	r.sleeps = append(r.sleeps, t)
}

// column decodes the mux lines back into a column index.
func (r *rig) column() int {
	col := 0
	for bit := 0; bit < 3; bit++ {
		if r.mux[bit].level {
			col |= 1 << bit
		}
	}
	switch {
	case bool(!r.mux[3].level && r.mux[4].level):
		return col
	case bool(r.mux[3].level && !r.mux[4].level):
		return col | 8
	}
	return -1
}

func (r *rig) device(cfg Config) Device {
	cfg.Sleep = r.sleep
	d := New(r.adc, r.sel, r.mask)
	d.Configure(cfg)
	r.sleeps = nil
	r.trace = nil
	return d
}
