package ecmatrix

import "time"

// Matrix limits. The cell arena is sized for the largest supported board.
const (
	MaxRows = 8
	MaxCols = 16
)

// Thresholds.
const (
	// DefaultActuation is the actuation point used for EC switches when no
	// calibration has been applied.
	DefaultActuation = 128

	// CalibratedActuation is the starting point on boards that read their
	// actuation level from storage.
	CalibratedActuation = 120

	// ResetOffset is the distance below the actuation point under which a
	// key counts as released.
	ResetOffset = 10
)

// Timing defaults.
const (
	DefaultChargeWait     = 1 * time.Microsecond
	DefaultDischargeWait  = 0
	DefaultUnselectSettle = 6 * time.Microsecond

	// PowerStateLow is the first power state that skips the unselect
	// settle delay.
	PowerStateLow = 2
)

// Persisted configuration layout.
const (
	// VIAConfigEnd is the end of the VIA configuration block: EECONFIG_SIZE
	// (37) plus three magic bytes and one layout-options byte.
	VIAConfigEnd = 41

	// DefaultCalibrationBase points at the low byte of the first keycode in
	// the big-endian layer 0 keymap stored right after the VIA block.
	DefaultCalibrationBase = VIAConfigEnd + 1
)

// Keycode bands the calibration digit is stored in.
const (
	digitBand  = 30 // KC_1 .. KC_0
	keypadBand = 89 // KC_KP_1 .. KC_KP_0
)

// ATmega32U4 ADC registers. Bit positions copied from the datasheet.
const (
	// ADCSRA
	ADEN  = 1 << 7
	ADSC  = 1 << 6
	ADPS1 = 1 << 1
	ADPS0 = 1 << 0

	// ADCSRB
	ADHSM = 1 << 7
	MUX5  = 1 << 5

	// ADMUX
	REFS0 = 1 << 6
	ADLAR = 1 << 5

	// ADC9 on PD6: MUX5..0 = 100001.
	ADC_MUX       = MUX5 | 0b00001
	ADC_PRESCALER = ADPS1 | ADPS0
)
