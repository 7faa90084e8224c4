package clock

import (
	"sync"
	"time"
)

// Clock supplies "now". Jobs and services take it as a dependency so tests
// and the dev date controls can substitute it.
type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Offset wraps a base clock and shifts it by a whole number of days. It backs
// the dev-account date controls and is safe for concurrent use.
type Offset struct {
	mu   sync.Mutex
	base Clock
	days int
}

func NewOffset(base Clock) *Offset {
	return &Offset{base: base}
}

func (o *Offset) Now() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.days == 0 {
		return o.base.Now()
	}
	return o.base.Now().AddDate(0, 0, o.days)
}

func (o *Offset) Days() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.days
}

func (o *Offset) Set(days int) {
	o.mu.Lock()
	o.days = days
	o.mu.Unlock()
}

func (o *Offset) Advance() {
	o.mu.Lock()
	o.days++
	o.mu.Unlock()
}

func (o *Offset) Rewind() {
	o.mu.Lock()
	o.days--
	o.mu.Unlock()
}

func (o *Offset) Reset() {
	o.Set(0)
}
