//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the sensor from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	pin  int
	line *gpiocdev.Line
}

// NewRealReader requests pin on chip as an input with pull-up. The
// comparator output pulls the line LOW when water is detected.
func NewRealReader(chip string, pin int) (*RealReader, error) {
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request sensor pin %d: %w", pin, err)
	}

	return &RealReader{pin: pin, line: line}, nil
}

// Read returns true when the sensor indicates a leak.
// Inverts raw GPIO: raw LOW (0) = leak, raw HIGH (1) = dry.
func (r *RealReader) Read() (bool, error) {
	raw, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read sensor pin %d: %w", r.pin, err)
	}

	return raw == 0, nil
}

// Close releases the sensor line, leaving it as an input with pull-up.
func (r *RealReader) Close() error {
	if r.line == nil {
		return nil
	}

	var errs []error
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure sensor pin: %w", err))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
	}

	return errors.Join(errs...)
}

// RealIndicator drives the LED lines. The character device has no PWM, so
// any non-zero level lights the LEDs and LevelOff turns them off.
type RealIndicator struct {
	lines *gpiocdev.Lines
	n     int
}

// NewRealIndicator requests pins on chip as outputs, initially off.
func NewRealIndicator(chip string, pins []int) (*RealIndicator, error) {
	if len(pins) == 0 {
		return nil, errors.New("no indicator pins configured")
	}

	lines, err := gpiocdev.RequestLines(chip, pins, gpiocdev.AsOutput(make([]int, len(pins))...))
	if err != nil {
		return nil, fmt.Errorf("request indicator pins %v: %w", pins, err)
	}

	return &RealIndicator{lines: lines, n: len(pins)}, nil
}

// SetIntensity lights all indicator lines when level > 0.
func (r *RealIndicator) SetIntensity(level uint8) error {
	v := 0
	if level > LevelOff {
		v = 1
	}

	values := make([]int, r.n)
	for i := range values {
		values[i] = v
	}

	if err := r.lines.SetValues(values); err != nil {
		return fmt.Errorf("set indicator: %w", err)
	}
	return nil
}

// Close turns the LEDs off and returns the lines to inputs.
func (r *RealIndicator) Close() error {
	if r.lines == nil {
		return nil
	}

	var errs []error
	if err := r.SetIntensity(LevelOff); err != nil {
		errs = append(errs, err)
	}
	if err := r.lines.Reconfigure(gpiocdev.AsInput); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure indicator pins: %w", err))
	}
	if err := r.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close indicator pins: %w", err))
	}

	return errors.Join(errs...)
}
