// Package ecmatrix provides a driver for electrocapacitive (EC) keyboard
// matrices sampled through a single ADC channel and 4051 analog muxes.
//
// Each key is read by releasing its row, routing its column onto the sense
// channel and converting the capacitor voltage to 8 bits. The sample is then
// compared with the key's actuation point.
package ecmatrix // import "ecdrivers/ecmatrix"

import (
	"errors"
	"io"
	"time"
)

var (
	ErrOutOfRange = errors.New("ecmatrix: key out of range")
	ErrNoStorage  = errors.New("ecmatrix: no calibration storage")
)

// Config holds the matrix geometry, timing and calibration settings.
type Config struct {
	Rows, Cols uint8

	// Actuation is the initial actuation point of every cell.
	Actuation uint8

	// ChargeWait is waited after selecting the first cell of a scan, before
	// the conversion.
	ChargeWait time.Duration
	// DischargeWait is waited after every discharge.
	DischargeWait time.Duration
	// UnselectSettle is waited after the rows are unselected.
	UnselectSettle time.Duration

	// Power reports the current power state, see SelectorConfig.
	Power func() uint8
	// Sleep waits for the given duration. Nil uses time.Sleep.
	Sleep func(time.Duration)

	// Storage holds the persisted keymap. Nil disables calibration.
	Storage io.ReaderAt
	// CalibrationBase is the storage offset of the first keycode's low byte.
	CalibrationBase uint16
	// CalibrationRow and CalibrationCol locate the key whose stored keycode
	// carries the actuation digit.
	CalibrationRow, CalibrationCol uint8
	CalibrationScope               Scope
}

// DefaultConfig returns the stock board timing for a matrix of the given size.
func DefaultConfig(rows, cols uint8) Config {
	return Config{
		Rows:            rows,
		Cols:            cols,
		Actuation:       DefaultActuation,
		ChargeWait:      DefaultChargeWait,
		DischargeWait:   DefaultDischargeWait,
		UnselectSettle:  DefaultUnselectSettle,
		CalibrationBase: DefaultCalibrationBase,
	}
}

// Cell is the state the driver keeps for one key.
type Cell struct {
	Actuation uint8
	Raw       uint8
}

// Device scans an EC matrix.
type Device struct {
	adc  Converter
	sel  *Selector
	mask Masker

	cfg   Config
	sleep func(time.Duration)
	cells [MaxRows][MaxCols]Cell

	passes   uint16
	scanRate uint16
	lastTick time.Time
}

// New creates a new EC matrix driver. A nil mask disables interrupt masking.
//
// This function only creates the Device object, it does not init the device.
// To do that you must call the Configure() method on the Device before using it.
func New(adc Converter, sel *Selector, mask Masker) Device {
	if mask == nil {
		mask = NoMask{}
	}
	return Device{
		adc:  adc,
		sel:  sel,
		mask: mask,
	}
}

// Configure sets up the lines and the converter and resets every actuation
// point. The matrix size is clamped to MaxRows x MaxCols and to the number
// of row lines.
func (d *Device) Configure(cfg Config) {
	if cfg.Rows > MaxRows {
		cfg.Rows = MaxRows
	}
	if int(cfg.Rows) > d.sel.Rows() {
		cfg.Rows = uint8(d.sel.Rows())
	}
	if cfg.Cols > MaxCols {
		cfg.Cols = MaxCols
	}
	if cfg.Actuation == 0 {
		cfg.Actuation = DefaultActuation
	}
	d.cfg = cfg
	d.sleep = sleeper(cfg.Sleep)

	d.sel.Configure(SelectorConfig{
		Settle: cfg.UnselectSettle,
		Power:  cfg.Power,
		Sleep:  d.sleep,
	})
	d.adc.Configure()

	for row := range d.cells {
		for col := range d.cells[row] {
			d.cells[row][col] = Cell{Actuation: cfg.Actuation}
		}
	}
	d.passes, d.scanRate = 0, 0
	d.lastTick = time.Time{}
}

// Rows returns the configured number of rows.
func (d *Device) Rows() uint8 {
	return d.cfg.Rows
}

// Cols returns the configured number of columns.
func (d *Device) Cols() uint8 {
	return d.cfg.Cols
}

// SelectColumn routes a column onto the sense channel. It must be called
// before ReadKey for every key of that column.
func (d *Device) SelectColumn(col uint8) {
	d.sel.SelectColumn(col)
}

// ReadKey samples one key of the selected column, caches the raw value and
// classifies it. Keys outside the matrix read as Released.
func (d *Device) ReadKey(row, col uint8) KeyState {
	if row >= d.cfg.Rows || col >= d.cfg.Cols {
		return Released
	}
	raw := d.sample(row, col)

	d.sel.UnselectRows()
	d.sel.Discharge()
	d.wait(d.cfg.DischargeWait)

	c := &d.cells[row][col]
	c.Raw = raw
	return Classify(raw, c.Actuation)
}

// sample holds interrupts off only while the capacitor charges and the
// conversion runs.
func (d *Device) sample(row, col uint8) uint8 {
	state := d.mask.Disable()
	defer d.mask.Restore(state)

	d.sel.ChargeReady()
	d.sel.SelectRow(row)
	if row == 0 && col == 0 {
		d.wait(d.cfg.ChargeWait)
	}
	return d.adc.Read8()
}

// ScanAll reads the whole matrix column by column and reports every key to
// fn. Each call counts as one pass for the scan rate.
func (d *Device) ScanAll(fn func(row, col uint8, state KeyState)) {
	for col := uint8(0); col < d.cfg.Cols; col++ {
		d.SelectColumn(col)
		for row := uint8(0); row < d.cfg.Rows; row++ {
			state := d.ReadKey(row, col)
			if fn != nil {
				fn(row, col, state)
			}
		}
	}
	d.passes++
}

// Tick updates the scan rate once per second and returns it.
func (d *Device) Tick(now time.Time) uint16 {
	if d.lastTick.IsZero() {
		d.lastTick = now
		return d.scanRate
	}
	if now.Sub(d.lastTick) >= time.Second {
		d.scanRate = d.passes
		d.passes = 0
		d.lastTick = now
	}
	return d.scanRate
}

// ScanRate returns the number of full scans in the last second.
func (d *Device) ScanRate() uint16 {
	return d.scanRate
}

// Raw returns the last sample of a key.
func (d *Device) Raw(row, col uint8) uint8 {
	if row >= d.cfg.Rows || col >= d.cfg.Cols {
		return 0
	}
	return d.cells[row][col].Raw
}

// Actuation returns the actuation point of a key.
func (d *Device) Actuation(row, col uint8) uint8 {
	if row >= d.cfg.Rows || col >= d.cfg.Cols {
		return 0
	}
	return d.cells[row][col].Actuation
}

// SetActuation overrides the actuation point of a key.
func (d *Device) SetActuation(row, col, actuation uint8) error {
	if row >= d.cfg.Rows || col >= d.cfg.Cols {
		return ErrOutOfRange
	}
	d.cells[row][col].Actuation = actuation
	return nil
}

// UpdateActuation reads the calibration keycode from storage and applies the
// matching actuation level. Bytes that do not decode to a level leave every
// actuation point unchanged.
func (d *Device) UpdateActuation() error {
	if d.cfg.Storage == nil {
		return ErrNoStorage
	}
	row, col := d.cfg.CalibrationRow, d.cfg.CalibrationCol
	if row >= d.cfg.Rows || col >= d.cfg.Cols {
		return ErrOutOfRange
	}

	var b [1]byte
	off := CalibrationOffset(d.cfg.CalibrationBase, row, col, d.cfg.Cols)
	// ReaderAt may report io.EOF alongside a full read at the end of storage.
	if n, err := d.cfg.Storage.ReadAt(b[:], int64(off)); n < len(b) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return err
	}

	level, ok := DecodeLevel(b[0])
	if !ok {
		return nil
	}
	if d.cfg.CalibrationScope == ScopeKey {
		d.cells[row][col].Actuation = level
		return nil
	}
	for r := uint8(0); r < d.cfg.Rows; r++ {
		for c := uint8(0); c < d.cfg.Cols; c++ {
			d.cells[r][c].Actuation = level
		}
	}
	return nil
}

func (d *Device) wait(t time.Duration) {
	if t > 0 {
		d.sleep(t)
	}
}
