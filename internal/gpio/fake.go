package gpio

// FakeLamp is a test double recording lamp writes.
type FakeLamp struct {
	// States contains every value passed to Set, in order.
	States []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeLamp creates a FakeLamp for testing.
func NewFakeLamp() *FakeLamp {
	return &FakeLamp{}
}

// Set records the lamp state.
func (f *FakeLamp) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, on)
	return nil
}

// On reports the most recent state written, or false if none.
func (f *FakeLamp) On() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

// Close marks the lamp as closed.
func (f *FakeLamp) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeLamp) Reset() {
	f.States = nil
	f.SetError = nil
	f.Closed = false
}
