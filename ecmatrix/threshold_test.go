package ecmatrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		raw       uint8
		actuation uint8
		want      KeyState
	}{
		{"well below", 100, 128, Released},
		{"dead zone", 120, 128, Near},
		{"reset edge", 118, 128, Near},
		{"just below reset", 117, 128, Released},
		{"at actuation", 128, 128, Pressed},
		{"above actuation", 255, 128, Pressed},
		{"mx level", 75, 80, Near},
		{"low actuation never released", 0, 5, Near},
		{"low actuation pressed", 5, 5, Pressed},
		{"zero actuation", 0, 0, Pressed},
		{"reset threshold zero", 0, 10, Near},
		{"top actuation", 250, 255, Near},
		{"top actuation pressed", 255, 255, Pressed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw, tt.actuation))
		})
	}
}

func TestClassifyEncoding(t *testing.T) {
	assert.Equal(t, uint8(0x00), uint8(Classify(100, 128)))
	assert.Equal(t, uint8(0b10), uint8(Classify(120, 128)))
	assert.Equal(t, uint8(0x80), uint8(Classify(128, 128)))
}

func TestClassifyPartition(t *testing.T) {
	for a := ResetOffset; a <= 255; a++ {
		for r := 0; r <= 255; r++ {
			got := Classify(uint8(r), uint8(a))
			switch {
			case r < a-ResetOffset:
				assert.Equal(t, Released, got, "raw %d actuation %d", r, a)
			case r >= a:
				assert.Equal(t, Pressed, got, "raw %d actuation %d", r, a)
			default:
				assert.Equal(t, Near, got, "raw %d actuation %d", r, a)
			}
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	rank := map[KeyState]int{Released: 0, Near: 1, Pressed: 2}
	for a := 0; a <= 255; a++ {
		prev := rank[Classify(0, uint8(a))]
		transitions := 0
		for r := 1; r <= 255; r++ {
			cur := rank[Classify(uint8(r), uint8(a))]
			assert.GreaterOrEqual(t, cur, prev, "actuation %d went backwards at %d", a, r)
			if cur != prev {
				transitions++
			}
			prev = cur
		}
		assert.LessOrEqual(t, transitions, 2, "actuation %d", a)
	}
}

func TestKeyStateString(t *testing.T) {
	assert.Equal(t, "released", Released.String())
	assert.Equal(t, "near", Near.String())
	assert.Equal(t, "pressed", Pressed.String())
	assert.Equal(t, "unknown", KeyState(0x42).String())
}
