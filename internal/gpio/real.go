//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLamp drives the lamp through the Linux GPIO character device.
type RealLamp struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealLamp requests the lamp pin as an output, initially off.
func NewRealLamp(pin int) (*RealLamp, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request lamp pin %d: %w", pin, err)
	}

	return &RealLamp{chip: chip, line: line}, nil
}

// Set drives the lamp output.
func (l *RealLamp) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("set lamp pin: %w", err)
	}
	return nil
}

// Close turns the lamp off and releases GPIO resources.
// The pin is reconfigured to input with pull-down (matching Pi boot
// defaults) so a restart never leaves the lamp lit.
func (l *RealLamp) Close() error {
	var errs []error

	if l.line != nil {
		if err := l.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear lamp pin: %w", err))
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure lamp pin: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lamp pin: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
