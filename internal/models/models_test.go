package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name       string
		total      int64
		page       int
		pageSize   int
		totalPages int
	}{
		{"empty", 0, 0, 20, 0},
		{"exact fit", 40, 0, 20, 2},
		{"partial last page", 41, 2, 20, 3},
		{"single row", 1, 0, 20, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.total, tc.page, tc.pageSize)
			require.Equal(t, tc.total, p.Total)
			require.Equal(t, tc.page, p.Page)
			require.Equal(t, tc.pageSize, p.PageSize)
			require.Equal(t, tc.totalPages, p.TotalPages)
			require.Equal(t, p.TotalPages == 0, p.Total == 0)
		})
	}
}

func TestPopularityScoreWeighting(t *testing.T) {
	manyFavorites := Event{FavoriteCount: 5, ViewCount: 0}
	manyViews := Event{FavoriteCount: 1, ViewCount: 100}

	require.Equal(t, int64(15), manyFavorites.PopularityScore())
	require.Equal(t, int64(103), manyViews.PopularityScore())
	require.Greater(t, manyViews.PopularityScore(), manyFavorites.PopularityScore())
}

func TestEventStatusValid(t *testing.T) {
	require.True(t, StatusActive.Valid())
	require.True(t, StatusCancelled.Valid())
	require.False(t, EventStatus("LIVE").Valid())
}
