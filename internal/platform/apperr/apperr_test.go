// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/libris/internal/platform/apperr"
)

/*
TestAppError_IsMatchesCode verifies that distinct sentinels sharing a code are
interchangeable under errors.Is, and different codes are not.
*/
func TestAppError_IsMatchesCode(t *testing.T) {
	bookMissing := apperr.NotFound("Book")
	genericMissing := apperr.New(apperr.CodeNotFound, http.StatusNotFound, "Not found")
	limit := apperr.New("LIMIT_EXCEEDED", http.StatusUnprocessableEntity, "Limit")

	assert.ErrorIs(t, bookMissing, genericMissing)
	assert.ErrorIs(t, fmt.Errorf("load: %w", bookMissing), genericMissing)
	assert.NotErrorIs(t, limit, genericMissing)
}

/*
TestAppError_WithCause verifies the cause is attached to a copy and reachable
through Unwrap.
*/
func TestAppError_WithCause(t *testing.T) {
	sentinel := apperr.Conflict("Busy")
	cause := errors.New("40001")

	wrapped := sentinel.WithCause(cause)

	assert.Nil(t, sentinel.Cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, sentinel)
	assert.Equal(t, "Busy", wrapped.Error())
}

/*
TestHelpers verifies As and HasCode on wrapped and foreign errors.
*/
func TestHelpers(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", apperr.Unavailable(errors.New("down")))

	assert.True(t, apperr.IsAppError(wrapped))
	assert.Equal(t, http.StatusServiceUnavailable, apperr.As(wrapped).HTTPStatus)
	assert.True(t, apperr.HasCode(wrapped, apperr.CodeUnavailable))

	assert.Nil(t, apperr.As(errors.New("plain")))
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeInternal))
}
