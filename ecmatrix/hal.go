package ecmatrix

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Line is a single GPIO line. Every periph.io gpio.PinIO satisfies it, and
// PortLine provides a register-level version for AVR targets.
type Line interface {
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
}

// Converter samples the shared sense channel.
type Converter interface {
	// Configure sets up the converter for single-ended, left-adjusted
	// conversions on the sense channel.
	Configure()

	// Read8 runs one conversion and returns the high byte of the result.
	// It blocks until the conversion completes.
	Read8() uint8
}

// Masker masks interrupts around the sampling window.
type Masker interface {
	Disable() uintptr
	Restore(state uintptr)
}

// NoMask is a Masker for targets without interrupts to mask.
type NoMask struct{}

func (NoMask) Disable() uintptr { return 0 }
func (NoMask) Restore(uintptr)  {}

func sleeper(fn func(time.Duration)) func(time.Duration) {
	if fn == nil {
		return time.Sleep
	}
	return fn
}
