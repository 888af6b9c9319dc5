// Package socd resolves simultaneous opposite direction presses on a pair of
// movement axes. The last key pressed on an axis wins; releasing it hands the
// axis back to the opposite key if that is still held.
package socd // import "ecdrivers/socd"

// Sender registers and unregisters keycodes with the host.
type Sender interface {
	Press(code uint16)
	Release(code uint16)
}

// HID usage IDs of the WASD keys.
const (
	KeyA = 0x04
	KeyD = 0x07
	KeyS = 0x16
	KeyW = 0x1A
)

// DefaultAxes is the WASD layout: W/S on the first axis, A/D on the second.
var DefaultAxes = [2][2]uint16{
	{KeyW, KeyS},
	{KeyA, KeyD},
}

// Resolver tracks which keys of the two axes are physically held.
type Resolver struct {
	out  Sender
	axes [2][2]uint16
	held [2][2]bool
}

// New creates a Resolver sending to out.
func New(out Sender, axes [2][2]uint16) *Resolver {
	return &Resolver{out: out, axes: axes}
}

// Handle processes one of the four SOCD keys. Bit 0 of key picks the axis and
// bit 1 picks the direction, so keys 0-3 are W, A, S, D with DefaultAxes.
func (r *Resolver) Handle(key uint8, pressed bool) {
	if key > 3 {
		return
	}
	axis, dir := key&1, key>>1
	opposite := dir ^ 1

	if pressed {
		r.held[axis][dir] = true
		if r.held[axis][opposite] {
			r.out.Release(r.axes[axis][opposite])
		}
		r.out.Press(r.axes[axis][dir])
		return
	}

	r.held[axis][dir] = false
	r.out.Release(r.axes[axis][dir])
	if r.held[axis][opposite] {
		r.out.Press(r.axes[axis][opposite])
	}
}

// Held reports whether a key is physically held.
func (r *Resolver) Held(key uint8) bool {
	if key > 3 {
		return false
	}
	return r.held[key&1][key>>1]
}
