package domain

import "time"

// Favorite links a user to a prediction. One row per (user, prediction) pair;
// its existence implies the prediction's likes counter was incremented.
type Favorite struct {
	ID           string
	UserID       string
	PredictionID string
	CreatedAt    time.Time
}

// FavoriteWithPrediction is the joined shape returned by favorites listings.
type FavoriteWithPrediction struct {
	Favorite
	Prediction Prediction
}
