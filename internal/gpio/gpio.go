// Package gpio provides GPIO input reading and indicator output with hardware
// abstraction. The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Reader reads the leak sensor input.
type Reader interface {
	// Read returns true when the sensor indicates a leak.
	// The raw line is active-low: electrical LOW = leak.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Indicator drives the status LEDs.
type Indicator interface {
	// SetIntensity sets the indicator brightness, 0 = off, 255 = full.
	SetIntensity(level uint8) error

	// Close turns the indicator off and releases GPIO resources.
	Close() error
}

// Indicator levels.
const (
	LevelOff  uint8 = 0
	LevelLow  uint8 = 10
	LevelFull uint8 = 255
)

// IndicatorLevel maps daemon state to a brightness: full while a leak is
// detected, low while the network is up (including after a recovery), off
// otherwise.
func IndicatorLevel(connected, leaking bool) uint8 {
	switch {
	case leaking:
		return LevelFull
	case connected:
		return LevelLow
	default:
		return LevelOff
	}
}
