package ecmatrix

// levels maps a stored digit to an actuation point. The last entry is the
// low point used with MX-like switches.
var levels = [10]uint8{88, 96, 104, 112, 120, 128, 136, 144, 152, 80}

// Scope selects which cells a calibration value is applied to.
type Scope uint8

const (
	// ScopeMatrix applies the level to every cell.
	ScopeMatrix Scope = iota
	// ScopeKey applies the level to the calibration key only.
	ScopeKey
)

// Levels returns the actuation table in stored-digit order.
func Levels() [10]uint8 {
	return levels
}

// DecodeLevel turns a stored keycode byte into an actuation point. The
// digit keys (30-39) and the keypad keys (89-98) both select table entries
// 0-9. Any other byte is rejected.
func DecodeLevel(b byte) (uint8, bool) {
	if b >= keypadBand {
		b -= keypadBand - digitBand
	}
	b -= digitBand
	if int(b) < len(levels) {
		return levels[b], true
	}
	return 0, false
}

// EncodeLevel returns the digit and keypad bytes that select table entry
// index.
func EncodeLevel(index int) (digit, keypad byte, ok bool) {
	if index < 0 || index >= len(levels) {
		return 0, 0, false
	}
	return byte(digitBand + index), byte(keypadBand + index), true
}

// LevelIndex returns the table index of an actuation point.
func LevelIndex(actuation uint8) (int, bool) {
	for i, l := range levels {
		if l == actuation {
			return i, true
		}
	}
	return 0, false
}

// CalibrationOffset returns the storage offset of the calibration byte for
// the key at row, col on a board with cols columns.
func CalibrationOffset(base uint16, row, col, cols uint8) uint16 {
	return base + (uint16(row)*uint16(cols)+uint16(col))*2
}
