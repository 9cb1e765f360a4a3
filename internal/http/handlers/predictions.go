package handlers

import (
	"net/http"

	"headshotlab/internal/domain"
)

type shareRequest struct {
	PredictionID string `json:"prediction_id" validate:"required"`
	IsShared     bool   `json:"is_shared"`
}

// PredictionShareSet toggles public gallery visibility. Sharing requires a
// completed prediction with a stored result.
func (a *App) PredictionShareSet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req shareRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	pred, ownerID, err := a.Predictions.GetWithOwner(r.Context(), req.PredictionID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if ownerID != userID {
		a.fail(w, domain.ErrForbidden)
		return
	}
	if req.IsShared && !pred.Shareable() {
		a.fail(w, domain.NewValidationError("prediction_id", "only completed predictions with a result can be shared"))
		return
	}

	if err := a.Predictions.SetShared(r.Context(), pred.ID, req.IsShared); err != nil {
		a.fail(w, err)
		return
	}
	pred.IsShared = req.IsShared
	a.json(w, http.StatusOK, toPredictionDTO(pred))
}

// PredictionShareGet reports the sharing state of an owned prediction.
func (a *App) PredictionShareGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	predictionID := r.URL.Query().Get("prediction_id")
	if predictionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prediction_id required")
		return
	}

	pred, ownerID, err := a.Predictions.GetWithOwner(r.Context(), predictionID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if ownerID != userID {
		a.fail(w, domain.ErrForbidden)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"prediction_id": pred.ID,
		"is_shared":     pred.IsShared,
	})
}
