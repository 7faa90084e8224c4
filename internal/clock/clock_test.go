package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type frozen struct {
	t time.Time
}

func (f frozen) Now() time.Time { return f.t }

func TestOffsetShiftsByDays(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewOffset(frozen{base})

	assert.Equal(t, base, c.Now())

	c.Advance()
	assert.Equal(t, base.AddDate(0, 0, 1), c.Now())
	assert.Equal(t, 1, c.Days())

	c.Advance()
	c.Advance()
	assert.Equal(t, base.AddDate(0, 0, 3), c.Now())

	c.Rewind()
	assert.Equal(t, base.AddDate(0, 0, 2), c.Now())

	c.Set(-5)
	assert.Equal(t, base.AddDate(0, 0, -5), c.Now())

	c.Reset()
	assert.Equal(t, base, c.Now())
	assert.Equal(t, 0, c.Days())
}
