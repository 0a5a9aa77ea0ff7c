package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, DaysBetween(due, due.AddDate(0, 0, 5)))
	assert.Equal(t, 0, DaysBetween(due, due.Add(23*time.Hour)))
	assert.Equal(t, -2, DaysBetween(due, due.AddDate(0, 0, -2)))
	// 月跨ぎ
	assert.Equal(t, 31, DaysBetween(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateOfUsesUTC(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	in := time.Date(2026, 3, 2, 8, 0, 0, 0, jst) // = 2026-03-01 23:00 UTC

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), DateOf(in))
}

func TestFixedClock(t *testing.T) {
	c := NewFixed(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	c.AddDays(3)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), Today(c))
}

func TestULIDGen(t *testing.T) {
	now := time.Now()
	a := ULIDGen{}.NewULID(now)
	b := ULIDGen{}.NewULID(now)
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Len(t, NewReference(), 36)
}
