package entry

import "time"

// Clock supplies the publication timestamps. Abstracted so tests can pin
// Published and Updated to known instants.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
