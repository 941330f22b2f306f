package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		pageSize  int
		total     int
		wantPages int
	}{
		{"empty", 1, 20, 0, 0},
		{"exact", 1, 10, 30, 3},
		{"remainder", 2, 10, 31, 4},
		{"single short page", 1, 50, 7, 1},
		{"zero page size", 1, 0, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.pageSize, tt.total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalCount)
			assert.Equal(t, tt.page, p.Page)
		})
	}
}

func TestEnvelopes(t *testing.T) {
	ok := SuccessResponse("done", 1)
	assert.Equal(t, StatusSuccess, ok.Status)
	assert.Empty(t, ok.Error)

	failed := ErrorResponse("failed", errors.New("boom"))
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, "boom", failed.Error)
	assert.Empty(t, ErrorResponse("failed", nil).Error)

	degraded := DegradedResponse("Service degraded", map[string]string{"database": "unavailable"})
	assert.Equal(t, StatusError, degraded.Status)
	assert.NotNil(t, degraded.Data)

	page := PageResponse("Videos retrieved", []int{1, 2}, NewPagination(1, 2, 5))
	assert.Equal(t, StatusSuccess, page.Status)
	assert.Equal(t, 3, page.Meta.TotalPages)
}
