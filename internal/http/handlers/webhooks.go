package handlers

import (
	"errors"
	"io"
	"net/http"

	"headshotlab/internal/domain"
	"headshotlab/internal/telemetry"
)

// WebhookReplicate handles provider completion callbacks. The payload is
// drained but not trusted: the current state is re-fetched from the provider
// so a stale or forged delivery cannot overwrite a terminal record.
func (a *App) WebhookReplicate(w http.ResponseWriter, r *http.Request) {
	telemetry.WebhookDeliveries.Inc()

	predictionID := r.URL.Query().Get("prediction_id")
	if predictionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prediction_id required")
		return
	}
	_, _ = io.Copy(io.Discard, r.Body)

	outcome, err := a.Reconciler.Reconcile(r.Context(), predictionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "unknown prediction")
			return
		}
		// Signal the provider to retry the delivery later.
		a.Logger.Error().Err(err).Str("prediction_id", predictionID).Msg("webhook reconcile failed")
		a.error(w, http.StatusBadGateway, "upstream_error", "reconciliation failed")
		return
	}
	a.json(w, http.StatusOK, outcome)
}
