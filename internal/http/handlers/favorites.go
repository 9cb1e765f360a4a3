package handlers

import (
	"net/http"
	"time"

	"headshotlab/internal/domain"
	"headshotlab/internal/telemetry"
)

type favoriteRequest struct {
	PredictionID string `json:"prediction_id" validate:"required"`
}

type favoriteDTO struct {
	PredictionID string        `json:"prediction_id"`
	CreatedAt    time.Time     `json:"favorited_at"`
	Prediction   predictionDTO `json:"prediction"`
}

// FavoriteAdd likes a prediction. Liking twice is a conflict; the likes
// counter in the response reflects the committed value.
func (a *App) FavoriteAdd(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req favoriteRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	likes, err := a.Favorites.Add(r.Context(), userID, req.PredictionID)
	if err != nil {
		a.fail(w, err)
		return
	}
	telemetry.FavoritesToggled.Inc()
	a.json(w, http.StatusCreated, map[string]any{
		"prediction_id": req.PredictionID,
		"likes_count":   likes,
	})
}

// FavoriteRemove unlikes a prediction; the counter never goes below zero.
func (a *App) FavoriteRemove(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req favoriteRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	likes, err := a.Favorites.Remove(r.Context(), userID, req.PredictionID)
	if err != nil {
		a.fail(w, err)
		return
	}
	telemetry.FavoritesToggled.Inc()
	a.json(w, http.StatusOK, map[string]any{
		"prediction_id": req.PredictionID,
		"likes_count":   likes,
	})
}

func (a *App) FavoritesList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	favorites, err := a.Favorites.ListByUser(r.Context(), userID)
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]favoriteDTO, 0, len(favorites))
	for i := range favorites {
		out = append(out, toFavoriteDTO(&favorites[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"favorites": out})
}

func toFavoriteDTO(f *domain.FavoriteWithPrediction) favoriteDTO {
	return favoriteDTO{
		PredictionID: f.PredictionID,
		CreatedAt:    f.CreatedAt,
		Prediction:   toPredictionDTO(&f.Prediction),
	}
}
