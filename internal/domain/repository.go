package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// StudioRepository defines persistence for studio configurations.
type StudioRepository interface {
	Create(ctx context.Context, studio *Studio) error
	GetByID(ctx context.Context, id string) (*Studio, error)
	ListByUser(ctx context.Context, userID string) ([]Studio, error)
}

// PredictionRepository defines persistence for prediction lifecycle records.
type PredictionRepository interface {
	Create(ctx context.Context, p *Prediction) error
	GetByID(ctx context.Context, id string) (*Prediction, error)
	// GetWithOwner resolves the prediction together with the owning user id
	// (through the parent studio) for authorization checks.
	GetWithOwner(ctx context.Context, id string) (*Prediction, string, error)
	// MarkProcessing stores the provider-assigned external id and advances
	// the record out of pending.
	MarkProcessing(ctx context.Context, id, externalID string) error
	// UpdateStatus applies a reconciliation result. The write is guarded:
	// a record already in a terminal state is never overwritten. Returns
	// whether the update was applied.
	UpdateStatus(ctx context.Context, id string, status PredictionStatus, resultURL, thumbnailURL *string) (bool, error)
	SetShared(ctx context.Context, id string, shared bool) error
	ListByStudio(ctx context.Context, studioID string) ([]Prediction, error)
	// ListProcessing returns every prediction still awaiting a terminal
	// provider status, for the polling daemon to pick up.
	ListProcessing(ctx context.Context) ([]Prediction, error)
}

// FavoriteRepository toggles favorite rows and keeps the denormalized
// likes counter in step. Both mutations happen in one transaction.
type FavoriteRepository interface {
	// Add returns the updated likes count, ErrConflict when the pair
	// already exists, ErrNotFound when the prediction is absent.
	Add(ctx context.Context, userID, predictionID string) (int, error)
	// Remove returns the updated likes count (clamped at zero) or
	// ErrNotFound when the pair does not exist.
	Remove(ctx context.Context, userID, predictionID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]FavoriteWithPrediction, error)
}

// GalleryRepository reads the public, shared slice of predictions.
type GalleryRepository interface {
	List(ctx context.Context, q GalleryQuery) ([]GalleryItem, int, error)
	Styles(ctx context.Context) ([]string, error)
}
