// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/libris/internal/core/circulation"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

/*
TestFine_Table covers early, same-day and late returns, including late-evening
due times that must not shift the day count.
*/
func TestFine_Table(t *testing.T) {
	rate := decimal.NewFromInt(5)

	tests := []struct {
		name     string
		due      time.Time
		returned time.Time
		expected int64
	}{
		{"early", date(2024, 1, 15), date(2024, 1, 10), 0},
		{"same day", date(2024, 1, 15), date(2024, 1, 15).Add(23 * time.Hour), 0},
		{"one day", date(2024, 1, 15), date(2024, 1, 16), 5},
		{"five days", date(2024, 1, 15), date(2024, 1, 20), 25},
		{"due late evening", date(2024, 1, 15).Add(23*time.Hour + 59*time.Minute), date(2024, 1, 16).Add(time.Minute), 5},
		{"across a month", date(2024, 1, 30), date(2024, 2, 2), 15},
		{"across a leap day", date(2024, 2, 28), date(2024, 3, 1), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fine := circulation.Fine(tt.due, tt.returned, rate, nil)
			assert.True(t, fine.Equal(decimal.NewFromInt(tt.expected)), "got %s", fine)
		})
	}
}

/*
TestFine_ScenarioC verifies the reference example: due 2024-01-15, returned
2024-01-20 at five per day gives 25.
*/
func TestFine_ScenarioC(t *testing.T) {
	fine := circulation.Fine(date(2024, 1, 15), date(2024, 1, 20), decimal.NewFromInt(5), nil)
	assert.Equal(t, "25", fine.String())
}

/*
TestFine_Monotonic verifies that moving the return date later never lowers the
fine and that every return on or before the due date is free.
*/
func TestFine_Monotonic(t *testing.T) {
	due := date(2024, 3, 10).Add(15 * time.Hour)
	rate := decimal.RequireFromString("2.50")

	previous := decimal.Zero
	for offset := -72; offset <= 24*40; offset += 7 {
		returned := due.Add(time.Duration(offset) * time.Hour)
		fine := circulation.Fine(due, returned, rate, nil)

		assert.False(t, fine.LessThan(previous), "fine dropped at offset %dh", offset)
		assert.False(t, fine.IsNegative())
		if !returned.After(due) {
			assert.True(t, fine.IsZero(), "early return charged at offset %dh", offset)
		}
		previous = fine
	}
}

/*
TestFine_Cap verifies that a configured maximum bounds the fine and that no
cap means linear growth.
*/
func TestFine_Cap(t *testing.T) {
	rate := decimal.NewFromInt(5)
	limit := decimal.NewFromInt(20)

	capped := circulation.Fine(date(2024, 1, 1), date(2024, 2, 1), rate, &limit)
	assert.True(t, capped.Equal(limit))

	uncapped := circulation.Fine(date(2024, 1, 1), date(2024, 2, 1), rate, nil)
	assert.True(t, uncapped.Equal(decimal.NewFromInt(155)))

	below := circulation.Fine(date(2024, 1, 1), date(2024, 1, 3), rate, &limit)
	assert.True(t, below.Equal(decimal.NewFromInt(10)))
}

/*
TestDaysLate verifies the whole-day count is computed on UTC calendar dates.
*/
func TestDaysLate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	// 2024-01-16 08:00 JST is 2024-01-15 23:00 UTC, still the due day.
	assert.Equal(t, 0, circulation.DaysLate(date(2024, 1, 15), time.Date(2024, 1, 16, 8, 0, 0, 0, tokyo)))
	assert.Equal(t, 1, circulation.DaysLate(date(2024, 1, 15), time.Date(2024, 1, 16, 10, 0, 0, 0, tokyo)))
	assert.Equal(t, 0, circulation.DaysLate(date(2024, 1, 15), date(2023, 12, 1)))
}
