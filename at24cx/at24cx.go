// Package at24cx provides a driver for the AT24C32 to AT24C512 family of I2C
// EEPROMs. The keyboard keeps its keymap, and with it the actuation digit, in
// one of these parts.
//
// Datasheet: https://ww1.microchip.com/downloads/en/DeviceDoc/doc0336.pdf
package at24cx // import "ecdrivers/at24cx"

import (
	"errors"
	"io"
	"time"

	"tinygo.org/x/drivers"
)

var ErrInvalidOffset = errors.New("at24cx: invalid offset")

// Config holds the geometry of the part.
type Config struct {
	PageSize uint16
	Size     uint32

	// WriteTime is waited after every page write. Zero selects WriteCycle.
	WriteTime time.Duration
}

// Device wraps an I2C connection to an AT24Cx device.
type Device struct {
	bus       drivers.I2C
	Address   uint16
	pageSize  uint16
	size      uint32
	writeTime time.Duration
	sleep     func(time.Duration)
	buf       [2 + PageSize128]byte
}

// New creates a new AT24Cx connection. The I2C bus must already be
// configured.
//
// This function only creates the Device object, it does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:       bus,
		Address:   Address,
		pageSize:  PageSize32,
		size:      Size32,
		writeTime: WriteCycle,
		sleep:     time.Sleep,
	}
}

// Configure sets the page size and capacity of the part.
func (d *Device) Configure(cfg Config) {
	if cfg.PageSize != 0 {
		d.pageSize = cfg.PageSize
	}
	if d.pageSize > PageSize128 {
		d.pageSize = PageSize128
	}
	if cfg.Size != 0 {
		d.size = cfg.Size
	}
	d.writeTime = cfg.WriteTime
	if d.writeTime == 0 {
		d.writeTime = WriteCycle
	}
}

// Size returns the capacity of the part in bytes.
func (d *Device) Size() uint32 {
	return d.size
}

// ReadAt reads len(p) bytes starting at off with a single sequential read.
// Reads past the end of the part are cut short and return io.EOF.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(d.size) {
		return 0, io.EOF
	}
	var err error
	if rest := int64(d.size) - off; int64(len(p)) > rest {
		p = p[:rest]
		err = io.EOF
	}
	if len(p) == 0 {
		return 0, err
	}
	if e := d.bus.Tx(d.Address, []byte{byte(off >> 8), byte(off)}, p); e != nil {
		return 0, e
	}
	return len(p), err
}

// WriteAt writes p starting at off. Writes are split on page boundaries and
// each page waits for the write cycle to finish.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(d.size) {
		return 0, ErrInvalidOffset
	}
	n := 0
	for n < len(p) {
		addr := uint16(off) + uint16(n)
		chunk := int(d.pageSize - addr%d.pageSize)
		if chunk > len(p)-n {
			chunk = len(p) - n
		}

		d.buf[0] = byte(addr >> 8)
		d.buf[1] = byte(addr)
		copy(d.buf[2:], p[n:n+chunk])
		if err := d.bus.Tx(d.Address, d.buf[:2+chunk], nil); err != nil {
			return n, err
		}
		d.sleep(d.writeTime)
		n += chunk
	}
	return n, nil
}

// ReadByteAt reads a single byte.
func (d *Device) ReadByteAt(off uint16) (byte, error) {
	var b [1]byte
	if _, err := d.ReadAt(b[:], int64(off)); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteByteAt writes a single byte.
func (d *Device) WriteByteAt(off uint16, value byte) error {
	_, err := d.WriteAt([]byte{value}, int64(off))
	return err
}
