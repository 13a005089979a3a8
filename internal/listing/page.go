package listing

import "math"

const (
	CatalogPageSize    = 12
	OwnReviewsPageSize = 12
	FeedPageSize       = 25
)

// Page is a 1-indexed page of fixed size.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps page numbers below 1 to the first page, and numbers whose
// offset would overflow to the last page that still has a valid offset. That
// page lies past any real result, so it comes back empty.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size > 0 && number > math.MaxInt/size {
		number = math.MaxInt / size
	}
	return Page{Number: number, Size: size}
}

func (p Page) Limit() int  { return p.Size }
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages is ceil(total / size).
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
