// Package gpio drives the night lamp output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Lamp switches the night lamp output.
type Lamp interface {
	// Set drives the lamp output. on=true lights the lamp.
	Set(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// NopLamp discards all writes. Used when no lamp pin is configured.
type NopLamp struct{}

// Set does nothing.
func (NopLamp) Set(on bool) error { return nil }

// Close does nothing.
func (NopLamp) Close() error { return nil }
