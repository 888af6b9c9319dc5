package at24cx

import "time"

// The I2C address of the EEPROM with A0-A2 tied low. Addresses 0x51 to 0x57
// select the other strapping options.
const Address = 0x50

// Page sizes of the supported parts, in bytes.
const (
	PageSize32  = 32  // AT24C32, AT24C64
	PageSize64  = 64  // AT24C128, AT24C256
	PageSize128 = 128 // AT24C512
)

// Capacities of the supported parts, in bytes.
const (
	Size32  = 4096
	Size64  = 8192
	Size128 = 16384
	Size256 = 32768
	Size512 = 65536
)

// WriteCycle is the maximum self-timed write cycle from the datasheet.
const WriteCycle = 5 * time.Millisecond
