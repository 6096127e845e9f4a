package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePaginationDefaults(t *testing.T) {
	params := normalizePagination(PaginationParams{})
	assert.Equal(t, int64(1), params.Page)
	assert.Equal(t, int64(defaultPageSize), params.PageSize)
}

func TestNormalizePaginationClampsBounds(t *testing.T) {
	params := normalizePagination(PaginationParams{Page: -3, PageSize: 100000})
	assert.Equal(t, int64(1), params.Page)
	assert.Equal(t, int64(maxPageSize), params.PageSize)
}

func TestNormalizePaginationKeepsValidParams(t *testing.T) {
	params := normalizePagination(PaginationParams{
		Page:     7,
		PageSize: 50,
		SortBy:   "created_at",
		SortDesc: true,
	})
	assert.Equal(t, int64(7), params.Page)
	assert.Equal(t, int64(50), params.PageSize)
	assert.Equal(t, "created_at", params.SortBy)
	assert.True(t, params.SortDesc)
}
