// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil extracts path parameters, JSON bodies and staff identity
from HTTP requests with consistent errors.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/ctxutil"
	"github.com/taibuivan/libris/internal/platform/validate"
)

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

/*
DecodeJSON reads the request body into target. Unknown fields are rejected so
that typos in field names surface as errors instead of silently defaulting.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Param retrieves a named URL parameter from the request.
func Param(request *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(request, name))
}

/*
RequiredStaffID returns the identity of the authenticated staff member.

Returns:
  - string: staff user id from the token
  - error: apperr.Unauthorized if the request is anonymous
*/
func RequiredStaffID(request *http.Request) (string, error) {
	claims := ctxutil.GetStaff(request.Context())
	if claims == nil {
		return "", apperr.Unauthorized("Authentication required")
	}
	return claims.UserID, nil
}

// QueryDate parses a YYYY-MM-DD (or RFC 3339) query parameter. A missing
// parameter yields the zero time and no error.
func QueryDate(request *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(request.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}

	if parsed, err := time.Parse(DateLayout, raw); err == nil {
		return parsed, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, validate.RequiredError(name, "Must be a date (YYYY-MM-DD)")
	}
	return parsed, nil
}
