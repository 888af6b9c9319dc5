package ecmatrix

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Mux holds the lines of the two 4051 analog multiplexers that route one
// column onto the sense channel. S0..S2 are shared address lines, EN1 and
// EN2 are the active-low enables of the first and second mux.
type Mux struct {
	S0, S1, S2 Line
	EN1, EN2   Line
}

// SelectorConfig holds the timing of the row lines.
type SelectorConfig struct {
	// Settle is waited after the rows are unselected.
	Settle time.Duration

	// Power reports the current power state. Power states of PowerStateLow
	// and above skip the settle wait. Nil means always wait.
	Power func() uint8

	// Sleep waits for the given duration. Nil uses time.Sleep.
	Sleep func(time.Duration)
}

// Selector drives the row lines, the column muxes and the discharge line.
type Selector struct {
	rows      []Line
	mux       Mux
	discharge Line

	settle time.Duration
	power  func() uint8
	sleep  func(time.Duration)

	err error
}

// NewSelector creates a Selector for the given lines. Rows beyond MaxRows
// are ignored.
//
// This function only creates the Selector object, it does not touch the
// lines. To do that you must call the Configure() method.
func NewSelector(rows []Line, mux Mux, discharge Line) *Selector {
	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
	}
	return &Selector{
		rows:      rows,
		mux:       mux,
		discharge: discharge,
		sleep:     time.Sleep,
	}
}

// Configure puts every line in its idle state: both muxes disabled, the
// sense capacitor discharged and all rows unselected. It clears the error
// reported by Err.
func (s *Selector) Configure(cfg SelectorConfig) {
	s.err = nil
	s.settle = cfg.Settle
	s.power = cfg.Power
	s.sleep = sleeper(cfg.Sleep)

	s.out(s.mux.S0, gpio.Low)
	s.out(s.mux.S1, gpio.Low)
	s.out(s.mux.S2, gpio.Low)
	s.out(s.mux.EN1, gpio.High)
	s.out(s.mux.EN2, gpio.High)

	s.Discharge()
	for _, row := range s.rows {
		s.out(row, gpio.Low)
	}
}

// Rows returns the number of row lines.
func (s *Selector) Rows() int {
	return len(s.rows)
}

// UnselectRows drives every row low and waits for the lines to settle,
// unless the power state asks for lower latency.
func (s *Selector) UnselectRows() {
	for _, row := range s.rows {
		s.out(row, gpio.Low)
	}
	// Undocumented in the board firmware: power states 2 and up are the
	// battery modes and skip the wait.
	if s.settle > 0 && s.powerState() < PowerStateLow {
		s.sleep(s.settle)
	}
}

// SelectRow releases one row to Hi-Z with its pull-up enabled. The rows must
// be unselected first.
func (s *Selector) SelectRow(row uint8) {
	if int(row) >= len(s.rows) {
		return
	}
	s.in(s.rows[row], gpio.PullUp)
}

// SelectColumn puts the column index on the mux address lines. Bit 3 of the
// index picks the mux: columns 0-7 go through the first, 8-15 through the
// second.
func (s *Selector) SelectColumn(col uint8) {
	s.out(s.mux.S0, gpio.Level(col&1 != 0))
	s.out(s.mux.S1, gpio.Level(col&2 != 0))
	s.out(s.mux.S2, gpio.Level(col&4 != 0))
	s.out(s.mux.EN1, gpio.Level(col&8 != 0))
	s.out(s.mux.EN2, gpio.Level(col < 8))
}

// ChargeReady floats the discharge line so the sense capacitor can charge.
func (s *Selector) ChargeReady() {
	s.in(s.discharge, gpio.Float)
}

// Discharge pulls the sense capacitor to ground.
func (s *Selector) Discharge() {
	s.out(s.discharge, gpio.Low)
}

// Err returns the first line error since Configure. Register-level lines
// never fail; host GPIO lines can.
func (s *Selector) Err() error {
	return s.err
}

func (s *Selector) out(l Line, level gpio.Level) {
	if err := l.Out(level); err != nil && s.err == nil {
		s.err = err
	}
}

func (s *Selector) in(l Line, pull gpio.Pull) {
	if err := l.In(pull, gpio.NoEdge); err != nil && s.err == nil {
		s.err = err
	}
}

func (s *Selector) powerState() uint8 {
	if s.power == nil {
		return 0
	}
	return s.power()
}
