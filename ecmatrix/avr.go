//go:build avr

package ecmatrix

import (
	"device/avr"
	"runtime/interrupt"
	"runtime/volatile"

	"periph.io/x/conn/v3/gpio"
)

// ADC is the ATmega32U4 converter sampling ADC9 (PD6) against AVCC.
type ADC struct{}

// Configure selects high speed mode, the sense channel and a left adjusted
// result so a conversion can be read from ADCH alone.
func (ADC) Configure() {
	avr.ADCSRB.Set(ADHSM | (ADC_MUX & MUX5))
	avr.ADMUX.Set(REFS0 | ADLAR | (ADC_MUX & 0b11111))
}

// Read8 enables the ADC, runs one conversion and turns the ADC off again.
// A conversion that never completes blocks forever.
func (ADC) Read8() uint8 {
	avr.ADCSRA.Set(ADEN | ADSC | ADC_PRESCALER)
	for avr.ADCSRA.HasBits(ADSC) {
	}
	value := avr.ADCH.Get()
	avr.ADCSRA.Set(0)
	return value
}

// InterruptMask masks interrupts through the TinyGo runtime.
type InterruptMask struct{}

func (InterruptMask) Disable() uintptr {
	return uintptr(interrupt.Disable())
}

func (InterruptMask) Restore(state uintptr) {
	interrupt.Restore(interrupt.State(state))
}

// PortLine is one bit of an AVR I/O port.
type PortLine struct {
	Port *volatile.Register8
	DDR  *volatile.Register8
	Bit  uint8
}

// Out switches the bit to output and drives it.
func (p PortLine) Out(l gpio.Level) error {
	mask := uint8(1) << p.Bit
	if l {
		p.Port.SetBits(mask)
	} else {
		p.Port.ClearBits(mask)
	}
	p.DDR.SetBits(mask)
	return nil
}

// In switches the bit to input. Only PullUp enables the internal pull-up.
func (p PortLine) In(pull gpio.Pull, edge gpio.Edge) error {
	mask := uint8(1) << p.Bit
	p.DDR.ClearBits(mask)
	if pull == gpio.PullUp {
		p.Port.SetBits(mask)
	} else {
		p.Port.ClearBits(mask)
	}
	return nil
}
