// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/libris/internal/core/catalog"
	"github.com/taibuivan/libris/pkg/pointer"
)

/*
TestBook_DeriveStatus verifies that shelf copies win over hold markers and that
an unmarked empty shelf reads as borrowed.
*/
func TestBook_DeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		available int
		hold      *catalog.HoldStatus
		expected  catalog.Status
	}{
		{"copy on shelf", 1, nil, catalog.StatusAvailable},
		{"copy on shelf despite hold", 2, pointer.To(catalog.HoldDamaged), catalog.StatusAvailable},
		{"all out", 0, nil, catalog.StatusBorrowed},
		{"reserved", 0, pointer.To(catalog.HoldReserved), catalog.StatusReserved},
		{"lost", 0, pointer.To(catalog.HoldLost), catalog.StatusLost},
		{"damaged", 0, pointer.To(catalog.HoldDamaged), catalog.StatusDamaged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := &catalog.Book{TotalCopies: 2, AvailableCopies: tt.available, HoldStatus: tt.hold}
			assert.Equal(t, tt.expected, book.DeriveStatus())
			assert.Equal(t, tt.expected, book.Availability().Status)
		})
	}
}

/*
TestHoldStatus_Valid verifies the accepted hold markers.
*/
func TestHoldStatus_Valid(t *testing.T) {
	assert.True(t, catalog.HoldReserved.Valid())
	assert.True(t, catalog.HoldLost.Valid())
	assert.True(t, catalog.HoldDamaged.Valid())
	assert.False(t, catalog.HoldStatus("borrowed").Valid())
	assert.False(t, catalog.HoldStatus("").Valid())
}
