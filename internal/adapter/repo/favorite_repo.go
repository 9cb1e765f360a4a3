package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"headshotlab/internal/domain"
)

const pgForeignKeyViolation = "23503"

// FavoriteRepositoryPG implements domain.FavoriteRepository. Favorite rows and
// the denormalized likes counter on predictions move in one transaction.
type FavoriteRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewFavoriteRepository creates a new favorite repository backed by PostgreSQL.
func NewFavoriteRepository(pool *pgxpool.Pool) *FavoriteRepositoryPG {
	return &FavoriteRepositoryPG{pool: pool}
}

// Add records a favorite and increments the prediction's likes counter.
func (r *FavoriteRepositoryPG) Add(ctx context.Context, userID, predictionID string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO favorites (id, user_id, prediction_id)
VALUES ($1, $2, $3);
`, uuid.NewString(), userID, predictionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return 0, domain.ErrConflict
			case pgForeignKeyViolation:
				return 0, domain.ErrNotFound
			}
		}
		return 0, err
	}

	var likes int
	err = tx.QueryRow(ctx, `
UPDATE predictions
SET likes_count = likes_count + 1,
    updated_at = NOW()
WHERE id = $1
RETURNING likes_count;
`, predictionID).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return likes, nil
}

// Remove deletes the favorite and decrements the likes counter, never below zero.
func (r *FavoriteRepositoryPG) Remove(ctx context.Context, userID, predictionID string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
DELETE FROM favorites
WHERE user_id = $1 AND prediction_id = $2;
`, userID, predictionID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, domain.ErrNotFound
	}

	var likes int
	err = tx.QueryRow(ctx, `
UPDATE predictions
SET likes_count = GREATEST(likes_count - 1, 0),
    updated_at = NOW()
WHERE id = $1
RETURNING likes_count;
`, predictionID).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return likes, nil
}

// ListByUser returns the user's favorites joined with their predictions,
// newest favorite first.
func (r *FavoriteRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.FavoriteWithPrediction, error) {
	query := `
SELECT f.id, f.user_id, f.prediction_id, f.created_at,
       p.id, p.studio_id, p.external_id, p.status, p.prompt, p.negative_prompt, p.style,
       COALESCE(p.result_url, ''), COALESCE(p.thumbnail_url, ''), p.is_shared, p.likes_count,
       p.created_at, p.updated_at
FROM favorites f
JOIN predictions p ON p.id = f.prediction_id
WHERE f.user_id = $1
ORDER BY f.created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []domain.FavoriteWithPrediction
	for rows.Next() {
		var fav domain.FavoriteWithPrediction
		if err := rows.Scan(
			&fav.ID,
			&fav.UserID,
			&fav.PredictionID,
			&fav.CreatedAt,
			&fav.Prediction.ID,
			&fav.Prediction.StudioID,
			&fav.Prediction.ExternalID,
			&fav.Prediction.Status,
			&fav.Prediction.Prompt,
			&fav.Prediction.NegativePrompt,
			&fav.Prediction.Style,
			&fav.Prediction.ResultURL,
			&fav.Prediction.ThumbnailURL,
			&fav.Prediction.IsShared,
			&fav.Prediction.LikesCount,
			&fav.Prediction.CreatedAt,
			&fav.Prediction.UpdatedAt,
		); err != nil {
			return nil, err
		}
		favorites = append(favorites, fav)
	}
	return favorites, rows.Err()
}
