package finecalc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"circulation-backend/internal/rates"
)

var day0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func givenTable(daily string, grace int, maxFine string) rates.Table {
	r := rates.Rate{
		DailyRate:       decimal.RequireFromString(daily),
		GracePeriodDays: grace,
		MaximumFine:     decimal.RequireFromString(maxFine),
	}
	return rates.NewTable(r, map[rates.Category]rates.Rate{rates.RegularBook: r})
}

func returnedOn(d int) *time.Time {
	t := day0.AddDate(0, 0, d)
	return &t
}

func TestCalculateGraceThenRate(t *testing.T) {
	table := givenTable("1.00", 2, "100.00")

	a := Calculate(Input{Category: "regular", DueDate: day0, ReturnDate: returnedOn(5)}, table, day0.AddDate(0, 0, 30))

	assert.Equal(t, 5, a.OverdueDaysRaw)
	assert.Equal(t, 3, a.OverdueDays)
	assert.Equal(t, "3.00", a.FineAmount.StringFixed(2))
	assert.Equal(t, StatusOverdue, a.Status)
	assert.False(t, a.Capped)
}

func TestCalculateCapped(t *testing.T) {
	table := givenTable("1.00", 2, "2.00")

	a := Calculate(Input{Category: "regular", DueDate: day0, ReturnDate: returnedOn(5)}, table, day0)

	assert.Equal(t, 3, a.OverdueDays)
	assert.True(t, a.FineAmount.Equal(decimal.RequireFromString("2.00")))
	assert.True(t, a.Capped)
}

func TestCalculateOnTimeIsZero(t *testing.T) {
	table := givenTable("1.00", 0, "100.00")

	for _, d := range []int{-10, -1, 0} {
		a := Calculate(Input{DueDate: day0, ReturnDate: returnedOn(d)}, table, day0)
		assert.True(t, a.FineAmount.IsZero(), "returned on day %d", d)
		assert.Equal(t, StatusOnTime, a.Status)
		assert.Equal(t, 0, a.OverdueDaysRaw)
	}
}

func TestCalculateWithinGraceIsOnTime(t *testing.T) {
	table := givenTable("1.00", 2, "100.00")

	a := Calculate(Input{DueDate: day0, ReturnDate: returnedOn(2)}, table, day0)

	assert.Equal(t, 2, a.OverdueDaysRaw)
	assert.Equal(t, 0, a.OverdueDays)
	assert.Equal(t, StatusOnTime, a.Status)
}

func TestCalculateOpenLoanUsesAsOf(t *testing.T) {
	table := givenTable("0.75", 0, "100.00")

	a := Calculate(Input{DueDate: day0}, table, day0.AddDate(0, 0, 4).Add(15*time.Hour))

	assert.Equal(t, 4, a.OverdueDays)
	assert.Equal(t, "3.00", a.FineAmount.StringFixed(2))
	assert.False(t, a.Capped)
	assert.Equal(t, day0.AddDate(0, 0, 4), a.EffectiveDate)
}

func TestCalculateMonotonicUpToCap(t *testing.T) {
	table := givenTable("1.50", 2, "10.00")

	prev := decimal.Zero
	reachedCap := false
	for d := 0; d <= 30; d++ {
		a := Calculate(Input{DueDate: day0, ReturnDate: returnedOn(d)}, table, day0)
		assert.True(t, a.FineAmount.GreaterThanOrEqual(prev), "day %d", d)
		if reachedCap {
			assert.True(t, a.FineAmount.Equal(prev), "constant after cap, day %d", d)
		}
		reachedCap = a.Capped
		prev = a.FineAmount
	}
	assert.True(t, prev.Equal(decimal.RequireFromString("10.00")))
}

func TestCalculateIsPure(t *testing.T) {
	table := rates.DefaultTable()
	in := Input{IssueID: "01J", Category: "reference", DueDate: day0}
	asOf := day0.AddDate(0, 0, 9)

	assert.Equal(t, Calculate(in, table, asOf), Calculate(in, table, asOf))
}

func TestCalculateUnknownCategoryUsesDefault(t *testing.T) {
	a := Calculate(Input{Category: "dvd", DueDate: day0, ReturnDate: returnedOn(5)}, rates.DefaultTable(), day0)

	assert.Equal(t, rates.DefaultGracePeriodDays, a.GracePeriod)
	assert.Equal(t, "3.00", a.FineAmount.StringFixed(2))
}
