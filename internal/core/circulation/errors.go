// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation

import (
	"net/http"

	"github.com/taibuivan/libris/internal/platform/apperr"
)

// Typed engine failures. Policy rejections are deterministic and never retried;
// only ErrConflict is retried inside the engine. Matching is by code, so
// store-level errors such as catalog.ErrBookNotFound satisfy
// errors.Is(err, ErrNotFound).
var (
	ErrPatronInactive    = apperr.New("PATRON_INACTIVE", http.StatusUnprocessableEntity, "Patron is inactive")
	ErrLimitExceeded     = apperr.New("LIMIT_EXCEEDED", http.StatusUnprocessableEntity, "Patron has reached the borrowing limit")
	ErrNoCopiesAvailable = apperr.New("NO_COPIES_AVAILABLE", http.StatusConflict, "No copies of this book are available")
	ErrNotFound          = apperr.New(apperr.CodeNotFound, http.StatusNotFound, "Not found")
	ErrAlreadyReturned   = apperr.New("ALREADY_RETURNED", http.StatusConflict, "Issue has already been returned")
	ErrInvalidDate       = apperr.New("INVALID_DATE", http.StatusUnprocessableEntity, "Date is before the issue date")
	ErrConflict          = apperr.New(apperr.CodeConflict, http.StatusConflict, "Concurrent update, please retry")
	ErrUnavailable       = apperr.New(apperr.CodeUnavailable, http.StatusServiceUnavailable, "Storage is temporarily unavailable")

	// ErrInsufficientCopies is returned when withdrawing more copies than are on the shelf.
	ErrInsufficientCopies = apperr.New("INSUFFICIENT_COPIES", http.StatusConflict, "Not enough copies on the shelf")

	// ErrInvalidQuantity is returned for copy adjustments that are not positive.
	ErrInvalidQuantity = apperr.New("INVALID_QUANTITY", http.StatusBadRequest, "Quantity must be positive")
)
