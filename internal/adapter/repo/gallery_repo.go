package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"headshotlab/internal/domain"
)

// GalleryRepositoryPG implements domain.GalleryRepository over the shared,
// completed slice of predictions.
type GalleryRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGalleryRepository creates a new gallery repository backed by PostgreSQL.
func NewGalleryRepository(pool *pgxpool.Pool) *GalleryRepositoryPG {
	return &GalleryRepositoryPG{pool: pool}
}

const galleryFilter = `
p.is_shared
AND p.status = 'completed'
AND p.result_url IS NOT NULL
AND ($1 = '' OR p.style = $1)`

// List returns one gallery page plus the total row count for the filter.
func (r *GalleryRepositoryPG) List(ctx context.Context, q domain.GalleryQuery) ([]domain.GalleryItem, int, error) {
	limit := q.Limit
	if limit <= 0 || limit > domain.MaxGalleryPageSize {
		limit = domain.MaxGalleryPageSize
	}

	var total int
	countQuery := `
SELECT COUNT(*)
FROM predictions p
WHERE ` + galleryFilter + `;
`
	if err := r.pool.QueryRow(ctx, countQuery, q.Style).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
SELECT p.id, COALESCE(p.result_url, ''), COALESCE(p.thumbnail_url, ''), p.prompt, p.style,
       p.likes_count, p.created_at, u.name, u.picture
FROM predictions p
JOIN studios s ON s.id = p.studio_id
JOIN users u ON u.id = s.user_id
WHERE ` + galleryFilter + `
ORDER BY ` + galleryOrder(q.Sort) + `
LIMIT $2 OFFSET $3;
`
	rows, err := r.pool.Query(ctx, query, q.Style, limit, q.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.GalleryItem
	for rows.Next() {
		var it domain.GalleryItem
		if err := rows.Scan(
			&it.ID,
			&it.ResultURL,
			&it.ThumbnailURL,
			&it.Prompt,
			&it.Style,
			&it.LikesCount,
			&it.CreatedAt,
			&it.UserName,
			&it.UserAvatar,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// Styles returns the distinct styles present in the public gallery.
func (r *GalleryRepositoryPG) Styles(ctx context.Context) ([]string, error) {
	query := `
SELECT DISTINCT p.style
FROM predictions p
WHERE p.is_shared
  AND p.status = 'completed'
  AND p.style <> ''
ORDER BY p.style;
`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var styles []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		styles = append(styles, s)
	}
	return styles, rows.Err()
}

// galleryOrder maps a sort mode to its ORDER BY expression. Trending blends
// like volume against age: each likes_count point weighs 0.7 and each day of
// age subtracts 0.3.
func galleryOrder(sort domain.GallerySort) string {
	switch sort {
	case domain.GallerySortPopular:
		return "p.likes_count DESC, p.created_at DESC"
	case domain.GallerySortTrending:
		return "(p.likes_count * 0.7 + EXTRACT(EPOCH FROM (NOW() - p.created_at)) / -86400.0 * 0.3) DESC, p.created_at DESC"
	default:
		return "p.created_at DESC"
	}
}
