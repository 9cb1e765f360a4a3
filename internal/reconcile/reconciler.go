package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"headshotlab/internal/domain"
	"headshotlab/internal/replicate"
	"headshotlab/internal/storage"
	"headshotlab/internal/telemetry"
)

// Outcome is the result of one reconciliation call, returned to the polling
// endpoint and the webhook handler.
type Outcome struct {
	PredictionID string                  `json:"prediction_id"`
	ExternalID   string                  `json:"external_id"`
	Status       domain.PredictionStatus `json:"status"`
	ResultURL    string                  `json:"result_url,omitempty"`
	Prompt       string                  `json:"prompt,omitempty"`
}

// Reconciler queries the provider for a prediction's current state and applies
// it to the stored record. Terminal states act as a write lock: once a
// prediction is completed or failed, no reconciliation result overwrites it.
type Reconciler struct {
	predictions domain.PredictionRepository
	provider    replicate.API
	uploader    storage.Uploader
	logger      zerolog.Logger
}

// New builds a Reconciler.
func New(predictions domain.PredictionRepository, provider replicate.API, uploader storage.Uploader, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		predictions: predictions,
		provider:    provider,
		uploader:    uploader,
		logger:      logger,
	}
}

// Reconcile fetches the provider status for the prediction and persists the
// mapped internal status. Provider or upload errors leave the stored status
// untouched; only a definitive provider response mutates the record.
func (r *Reconciler) Reconcile(ctx context.Context, predictionID string) (*Outcome, error) {
	pred, err := r.predictions.GetByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	// Replaying reconciliation on a finished prediction is a no-op: same
	// stored outcome, no provider call, no second upload.
	if pred.Status.Terminal() {
		return outcomeOf(pred), nil
	}
	if pred.ExternalID == "" {
		// The provider has not accepted this request yet; nothing to query.
		return outcomeOf(pred), nil
	}

	telemetry.Reconciliations.Inc()
	ext, err := r.provider.GetPrediction(ctx, pred.ExternalID)
	if err != nil {
		telemetry.ReconciliationFailures.Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}

	switch {
	case ext.Status == replicate.StatusSucceeded && len(ext.Output) > 0:
		artifact, err := r.uploader.UploadFromURL(ctx, ext.Output[0], artifactName())
		if err != nil {
			telemetry.ReconciliationFailures.Inc()
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
		}
		var thumbURL *string
		if artifact.ThumbnailURL != "" {
			thumbURL = &artifact.ThumbnailURL
		}
		applied, err := r.predictions.UpdateStatus(ctx, pred.ID, domain.PredictionStatusCompleted, &artifact.URL, thumbURL)
		if err != nil {
			return nil, err
		}
		if !applied {
			// The webhook path landed a terminal write first. Return what won.
			return r.reload(ctx, pred.ID)
		}
		pred.Status = domain.PredictionStatusCompleted
		pred.ResultURL = artifact.URL
		r.logger.Info().Str("prediction_id", pred.ID).Str("result_url", artifact.URL).Msg("prediction completed")

	case ext.Status == replicate.StatusFailed || ext.Status == replicate.StatusCanceled:
		applied, err := r.predictions.UpdateStatus(ctx, pred.ID, domain.PredictionStatusFailed, nil, nil)
		if err != nil {
			return nil, err
		}
		if !applied {
			return r.reload(ctx, pred.ID)
		}
		pred.Status = domain.PredictionStatusFailed
		r.logger.Info().Str("prediction_id", pred.ID).Str("provider_error", ext.Error).Msg("prediction failed")

	default:
		// Still queued or running upstream. The write happens even when the
		// status is unchanged so updated_at reflects the last observation.
		if _, err := r.predictions.UpdateStatus(ctx, pred.ID, domain.PredictionStatusProcessing, nil, nil); err != nil {
			return nil, err
		}
		pred.Status = domain.PredictionStatusProcessing
	}

	return outcomeOf(pred), nil
}

func (r *Reconciler) reload(ctx context.Context, predictionID string) (*Outcome, error) {
	fresh, err := r.predictions.GetByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	return outcomeOf(fresh), nil
}

func outcomeOf(p *domain.Prediction) *Outcome {
	return &Outcome{
		PredictionID: p.ID,
		ExternalID:   p.ExternalID,
		Status:       p.Status,
		ResultURL:    p.ResultURL,
		Prompt:       p.Prompt,
	}
}

func artifactName() string {
	return fmt.Sprintf("%d-%s.png", time.Now().UnixMilli(), uuid.NewString())
}
