package domain

import "time"

// GallerySort enumerates supported gallery orderings.
type GallerySort string

const (
	GallerySortNewest   GallerySort = "newest"
	GallerySortPopular  GallerySort = "popular"
	GallerySortTrending GallerySort = "trending"
)

// NormalizeGallerySort sanitizes free-form input into a supported ordering.
func NormalizeGallerySort(raw string) GallerySort {
	switch GallerySort(raw) {
	case GallerySortPopular:
		return GallerySortPopular
	case GallerySortTrending:
		return GallerySortTrending
	default:
		return GallerySortNewest
	}
}

// MaxGalleryPageSize caps the number of items returned per gallery page.
const MaxGalleryPageSize = 50

// GalleryQuery describes one public gallery page request.
type GalleryQuery struct {
	Page  int
	Limit int
	Style string
	Sort  GallerySort
}

// Offset returns the row offset for the requested page.
func (q GalleryQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// GalleryItem is a shared prediction joined with minimal owner display info.
type GalleryItem struct {
	ID           string    `json:"id"`
	ResultURL    string    `json:"result_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Prompt       string    `json:"prompt"`
	Style        string    `json:"style,omitempty"`
	LikesCount   int       `json:"likes_count"`
	CreatedAt    time.Time `json:"created_at"`
	UserName     string    `json:"user_name"`
	UserAvatar   string    `json:"user_avatar,omitempty"`
}

// Pagination is the envelope describing the full result set.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination derives the envelope from a total row count.
func NewPagination(page, limit, totalCount int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (totalCount + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
