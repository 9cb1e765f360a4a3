package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"headshotlab/internal/domain"
)

// PredictionRepositoryPG implements domain.PredictionRepository.
type PredictionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a new prediction repository backed by PostgreSQL.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepositoryPG {
	return &PredictionRepositoryPG{pool: pool}
}

// Create inserts a new prediction record.
func (r *PredictionRepositoryPG) Create(ctx context.Context, p *domain.Prediction) error {
	query := `
INSERT INTO predictions (id, studio_id, external_id, status, prompt, negative_prompt, style)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at;
`
	return r.pool.QueryRow(ctx, query,
		p.ID,
		p.StudioID,
		p.ExternalID,
		p.Status,
		p.Prompt,
		p.NegativePrompt,
		p.Style,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a prediction by its identifier.
func (r *PredictionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Prediction, error) {
	query := selectPrediction + `
WHERE id = $1;
`
	p, err := scanPrediction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetWithOwner fetches a prediction together with the owning user id, resolved
// through the parent studio.
func (r *PredictionRepositoryPG) GetWithOwner(ctx context.Context, id string) (*domain.Prediction, string, error) {
	query := `
SELECT p.id, p.studio_id, p.external_id, p.status, p.prompt, p.negative_prompt, p.style,
       COALESCE(p.result_url, ''), COALESCE(p.thumbnail_url, ''), p.is_shared, p.likes_count,
       p.created_at, p.updated_at, s.user_id
FROM predictions p
JOIN studios s ON s.id = p.studio_id
WHERE p.id = $1;
`
	var (
		p       domain.Prediction
		ownerID string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.StudioID,
		&p.ExternalID,
		&p.Status,
		&p.Prompt,
		&p.NegativePrompt,
		&p.Style,
		&p.ResultURL,
		&p.ThumbnailURL,
		&p.IsShared,
		&p.LikesCount,
		&p.CreatedAt,
		&p.UpdatedAt,
		&ownerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", err
	}
	return &p, ownerID, nil
}

// MarkProcessing records the provider-assigned external id and advances the
// record out of pending.
func (r *PredictionRepositoryPG) MarkProcessing(ctx context.Context, id, externalID string) error {
	query := `
UPDATE predictions
SET external_id = $2,
    status = 'processing',
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, externalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus writes a reconciliation result. Records already in a terminal
// state are never touched; the returned bool reports whether the write landed.
func (r *PredictionRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.PredictionStatus, resultURL, thumbnailURL *string) (bool, error) {
	query := `
UPDATE predictions
SET status = $2,
    result_url = COALESCE($3, result_url),
    thumbnail_url = COALESCE($4, thumbnail_url),
    updated_at = NOW()
WHERE id = $1
  AND status NOT IN ('completed', 'failed');
`
	tag, err := r.pool.Exec(ctx, query, id, status, resultURL, thumbnailURL)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetShared toggles gallery visibility.
func (r *PredictionRepositoryPG) SetShared(ctx context.Context, id string, shared bool) error {
	query := `
UPDATE predictions
SET is_shared = $2,
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, shared)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByStudio returns the studio's predictions, newest first.
func (r *PredictionRepositoryPG) ListByStudio(ctx context.Context, studioID string) ([]domain.Prediction, error) {
	query := selectPrediction + `
WHERE studio_id = $1
ORDER BY created_at DESC;
`
	return r.list(ctx, query, studioID)
}

// ListProcessing returns every prediction awaiting a terminal provider status.
func (r *PredictionRepositoryPG) ListProcessing(ctx context.Context) ([]domain.Prediction, error) {
	query := selectPrediction + `
WHERE status IN ('pending', 'processing')
ORDER BY created_at;
`
	return r.list(ctx, query)
}

func (r *PredictionRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.Prediction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []domain.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, *p)
	}
	return predictions, rows.Err()
}

const selectPrediction = `
SELECT id, studio_id, external_id, status, prompt, negative_prompt, style,
       COALESCE(result_url, ''), COALESCE(thumbnail_url, ''), is_shared, likes_count,
       created_at, updated_at
FROM predictions`

func scanPrediction(row pgx.Row) (*domain.Prediction, error) {
	var p domain.Prediction
	if err := row.Scan(
		&p.ID,
		&p.StudioID,
		&p.ExternalID,
		&p.Status,
		&p.Prompt,
		&p.NegativePrompt,
		&p.Style,
		&p.ResultURL,
		&p.ThumbnailURL,
		&p.IsShared,
		&p.LikesCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
