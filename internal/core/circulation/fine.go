// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaysLate counts whole calendar days (UTC) from the due date to the return
// date. Returns on or before the due day count as zero.
func DaysLate(dueDate, returnDate time.Time) int {
	days := int(calendarDay(returnDate).Sub(calendarDay(dueDate)) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

/*
Fine computes the overdue charge for a return.

	fine = max(0, DaysLate(dueDate, returnDate)) * dailyRate

capped at fineCap when one is given. It has no side effects and depends on
nothing but its arguments.
*/
func Fine(dueDate, returnDate time.Time, dailyRate decimal.Decimal, fineCap *decimal.Decimal) decimal.Decimal {
	days := DaysLate(dueDate, returnDate)
	if days == 0 || !dailyRate.IsPositive() {
		return decimal.Zero
	}

	amount := dailyRate.Mul(decimal.NewFromInt(int64(days)))
	if fineCap != nil && amount.GreaterThan(*fineCap) {
		return *fineCap
	}
	return amount
}

// StartOfDay anchors a date-only input at 00:00:00 UTC. Return dates use it.
func StartOfDay(t time.Time) time.Time {
	return calendarDay(t)
}

// EndOfDay anchors a date-only input at 23:59:59 UTC. Due dates use it, so a
// copy due on a day is not overdue until that day is over.
func EndOfDay(t time.Time) time.Time {
	return calendarDay(t).Add(24*time.Hour - time.Second)
}

// calendarDay truncates t to midnight of its UTC date.
func calendarDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
