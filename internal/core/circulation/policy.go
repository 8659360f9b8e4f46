// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/taibuivan/libris/internal/platform/config"
)

// Policy is the lending configuration the engine applies.
type Policy struct {
	LoanPeriod     time.Duration
	FineDailyRate  decimal.Decimal
	FineCap        *decimal.Decimal // nil means uncapped
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// DefaultPolicy is a fourteen day loan at five units per late day, no cap,
// and three attempts on contention.
func DefaultPolicy() Policy {
	return Policy{
		LoanPeriod:     14 * 24 * time.Hour,
		FineDailyRate:  decimal.NewFromInt(5),
		RetryAttempts:  3,
		RetryBaseDelay: 10 * time.Millisecond,
	}
}

// PolicyFromConfig builds a [Policy] from the environment configuration.
func PolicyFromConfig(cfg config.Circulation) (Policy, error) {
	fineCap, err := cfg.FineCap()
	if err != nil {
		return Policy{}, err
	}

	return Policy{
		LoanPeriod:     cfg.LoanPeriod,
		FineDailyRate:  cfg.FineDailyRate,
		FineCap:        fineCap,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
	}, nil
}
