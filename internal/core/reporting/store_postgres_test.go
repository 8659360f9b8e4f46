// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reporting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libris/internal/core/reporting"
)

/*
TestBuildLoansQuery verifies the loan projection reads the qualified issue table
and binds only the as-of time.
*/
func TestBuildLoansQuery(t *testing.T) {
	asOf := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	query, args, err := reporting.BuildLoansQuery(asOf)
	require.NoError(t, err)

	assert.Contains(t, query, `FROM "circulation"."issue"`)
	assert.Contains(t, query, `"returndate" IS NULL`)
	assert.Contains(t, query, `"finepaid" IS FALSE`)
	assert.NotContains(t, query, "?")
	assert.Equal(t, []any{asOf}, args)
}

/*
TestBuildActivityQuery verifies the half-open range is applied to both the
issue and return dates.
*/
func TestBuildActivityQuery(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := reporting.BuildActivityQuery(from, to)
	require.NoError(t, err)

	assert.Contains(t, query, `"issuedate" >= $`)
	assert.Contains(t, query, `"returndate" < $`)
	assert.Contains(t, query, "THEN 1 ELSE 0 END")
	assert.Contains(t, query, "WHERE")
	assert.Contains(t, args, from)
	assert.Contains(t, args, to)
}
