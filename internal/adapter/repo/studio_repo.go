package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"headshotlab/internal/domain"
)

// StudioRepositoryPG implements domain.StudioRepository.
type StudioRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewStudioRepository creates a new studio repository backed by PostgreSQL.
func NewStudioRepository(pool *pgxpool.Pool) *StudioRepositoryPG {
	return &StudioRepositoryPG{pool: pool}
}

// Create inserts a new studio configuration.
func (r *StudioRepositoryPG) Create(ctx context.Context, studio *domain.Studio) error {
	query := `
INSERT INTO studios (id, user_id, name, type, model_user, model_version, lora_weights, hair_style, height_cm, extra_info, images)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING created_at, updated_at;
`
	return r.pool.QueryRow(ctx, query,
		studio.ID,
		studio.UserID,
		studio.Name,
		studio.Type,
		studio.ModelUser,
		studio.ModelVersion,
		studio.LoraWeights,
		studio.HairStyle,
		studio.HeightCM,
		studio.ExtraInfo,
		studio.Images,
	).Scan(&studio.CreatedAt, &studio.UpdatedAt)
}

// GetByID fetches a studio by identifier.
func (r *StudioRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Studio, error) {
	query := selectStudio + `
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	s, err := scanStudio(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListByUser returns the user's studios, newest first.
func (r *StudioRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Studio, error) {
	query := selectStudio + `
WHERE user_id = $1
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var studios []domain.Studio
	for rows.Next() {
		s, err := scanStudio(rows)
		if err != nil {
			return nil, err
		}
		studios = append(studios, *s)
	}
	return studios, rows.Err()
}

const selectStudio = `
SELECT id, user_id, name, type, model_user, model_version, lora_weights, hair_style, height_cm, extra_info, images, created_at, updated_at
FROM studios`

func scanStudio(row pgx.Row) (*domain.Studio, error) {
	var s domain.Studio
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.Type,
		&s.ModelUser,
		&s.ModelVersion,
		&s.LoraWeights,
		&s.HairStyle,
		&s.HeightCM,
		&s.ExtraInfo,
		&s.Images,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
