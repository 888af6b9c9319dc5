package ecmatrix

import (
	"fmt"
	"io"
)

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// PrintMatrix writes the scan rate and the last raw sample of every key as a
// fixed-width table, one row per line, for tuning actuation points by hand.
func (d *Device) PrintMatrix(w io.Writer) error {
	p := printer{w: w}
	p.printf("\n%3d ", d.scanRate)
	for col := uint8(0); col < d.cfg.Cols; col++ {
		p.printf("[%X],", col)
	}
	for row := uint8(0); row < d.cfg.Rows; row++ {
		p.printf("\n[%d]:", row)
		for col := uint8(0); col < d.cfg.Cols; col++ {
			p.printf("%3d,", d.cells[row][col].Raw)
		}
	}
	p.printf("\n")
	return p.err
}
