package process

import "sync/atomic"

// AbortFlag is a cooperative cancellation flag shared between the caller and
// a running job. The runner only reads it. The zero value is ready to use.
type AbortFlag struct {
	set atomic.Bool
}

// Set requests that the running job stop.
func (f *AbortFlag) Set() {
	if f != nil {
		f.set.Store(true)
	}
}

// IsSet reports whether an abort was requested. A nil flag is never set.
func (f *AbortFlag) IsSet() bool {
	return f != nil && f.set.Load()
}
