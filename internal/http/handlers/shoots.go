package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"headshotlab/internal/domain"
	"headshotlab/internal/shoot"
)

type shootCreateRequest struct {
	Prompt         string `json:"prompt" validate:"required"`
	NegativePrompt string `json:"negative_prompt"`
	AspectRatio    string `json:"aspect_ratio" validate:"required"`
	Style          string `json:"style"`
}

type predictionDTO struct {
	ID           string    `json:"id"`
	StudioID     string    `json:"studio_id"`
	Status       string    `json:"status"`
	Style        string    `json:"style,omitempty"`
	ResultURL    string    `json:"result_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	IsShared     bool      `json:"is_shared"`
	LikesCount   int       `json:"likes_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPredictionDTO(p *domain.Prediction) predictionDTO {
	return predictionDTO{
		ID:           p.ID,
		StudioID:     p.StudioID,
		Status:       string(p.Status),
		Style:        p.Style,
		ResultURL:    p.ResultURL,
		ThumbnailURL: p.ThumbnailURL,
		IsShared:     p.IsShared,
		LikesCount:   p.LikesCount,
		CreatedAt:    p.CreatedAt,
	}
}

// ShootCreate submits a generation request for the studio. The response is
// 202: the prediction completes asynchronously via webhook or polling.
func (a *App) ShootCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	studioID := chi.URLParam(r, "id")
	if studioID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "studio id required")
		return
	}
	var req shootCreateRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	pred, err := a.Launcher.Launch(r.Context(), shoot.Request{
		StudioID:       studioID,
		UserID:         userID,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		Style:          req.Style,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"prediction_id": pred.ID,
		"status":        string(pred.Status),
	})
}

func (a *App) ShootsList(w http.ResponseWriter, r *http.Request) {
	studio, ok := a.ownedStudio(w, r)
	if !ok {
		return
	}
	predictions, err := a.Predictions.ListByStudio(r.Context(), studio.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]predictionDTO, 0, len(predictions))
	for i := range predictions {
		out = append(out, toPredictionDTO(&predictions[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"predictions": out})
}

// ShootResult is the client-driven reconciliation path: it queries the
// provider for the prediction's current state and returns the stored outcome.
func (a *App) ShootResult(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	predictionID := chi.URLParam(r, "predictionID")
	if predictionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prediction id required")
		return
	}

	pred, ownerID, err := a.Predictions.GetWithOwner(r.Context(), predictionID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if ownerID != userID || pred.StudioID != chi.URLParam(r, "id") {
		a.fail(w, domain.ErrForbidden)
		return
	}

	outcome, err := a.Reconciler.Reconcile(r.Context(), predictionID)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, outcome)
}
