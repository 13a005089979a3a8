package listing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageClampsToFirstPage(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: 12}, NewPage(0, 12))
	assert.Equal(t, Page{Number: 1, Size: 25}, NewPage(-4, 25))
	assert.Equal(t, Page{Number: 7, Size: 12}, NewPage(7, 12))
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, NewPage(1, 12).Offset())
	assert.Equal(t, 12, NewPage(2, 12).Offset())
	assert.Equal(t, 50, NewPage(3, FeedPageSize).Offset())
}

func TestPageOffsetNeverOverflows(t *testing.T) {
	for _, size := range []int{CatalogPageSize, OwnReviewsPageSize, FeedPageSize} {
		for _, number := range []int{math.MaxInt64 / 6, math.MaxInt64 / size, math.MaxInt64 - 1, math.MaxInt64} {
			p := NewPage(number, size)
			assert.GreaterOrEqual(t, p.Offset(), 0, "number=%d size=%d", number, size)
			assert.Greater(t, p.Number, 1, "number=%d size=%d", number, size)
		}
	}
	assert.Equal(t, math.MaxInt/12, NewPage(1537228672809129301, CatalogPageSize).Number)
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ total, size, want int }{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{13, 12, 2},
		{25, 25, 1},
		{51, 25, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalPages(tc.total, tc.size), "total=%d size=%d", tc.total, tc.size)
	}
}
