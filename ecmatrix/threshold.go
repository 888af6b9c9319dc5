package ecmatrix

// KeyState is the classification of one sample. The values are the bytes the
// scan loop expects, not an ordinal enumeration.
type KeyState uint8

const (
	Released KeyState = 0x00
	Near     KeyState = 0b10
	Pressed  KeyState = 0x80
)

func (s KeyState) String() string {
	switch s {
	case Released:
		return "released"
	case Near:
		return "near"
	case Pressed:
		return "pressed"
	}
	return "unknown"
}

// Classify compares a raw sample with an actuation point. Samples at or
// above the point are pressed, samples more than ResetOffset below it are
// released and everything in between is near. The release threshold
// clamps at zero, so actuation points below ResetOffset never report
// released.
func Classify(raw, actuation uint8) KeyState {
	if actuation >= ResetOffset && raw < actuation-ResetOffset {
		return Released
	}
	if raw >= actuation {
		return Pressed
	}
	return Near
}
