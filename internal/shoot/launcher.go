package shoot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"headshotlab/internal/domain"
	"headshotlab/internal/replicate"
	"headshotlab/internal/telemetry"
)

// Model a LoRA hosted on Hugging Face is routed through.
const blackForestModel = "black-forest-labs/flux-dev-lora"

// Fixed generation parameters for every shoot.
const (
	loraScale         = 0.8
	numOutputs        = 1
	guidanceScale     = 3.5
	outputQuality     = 80
	promptStrength    = 0.8
	numInferenceSteps = 28
)

// Tracker receives predictions that entered processing, so the polling loop
// picks them up immediately.
type Tracker interface {
	Track(predictionID string) bool
}

// Request carries user input for one shoot.
type Request struct {
	StudioID       string
	UserID         string
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Style          string
}

// Launcher turns a shoot request into a provider prediction: it validates
// input, assembles the final prompt from the studio configuration, records
// the pending row, and submits the generation request.
type Launcher struct {
	studios     domain.StudioRepository
	predictions domain.PredictionRepository
	provider    replicate.API
	tracker     Tracker
	appBaseURL  string
	logger      zerolog.Logger
}

// NewLauncher builds a Launcher. tracker may be nil when no polling loop runs
// in-process.
func NewLauncher(studios domain.StudioRepository, predictions domain.PredictionRepository, provider replicate.API, tracker Tracker, appBaseURL string, logger zerolog.Logger) *Launcher {
	return &Launcher{
		studios:     studios,
		predictions: predictions,
		provider:    provider,
		tracker:     tracker,
		appBaseURL:  strings.TrimRight(appBaseURL, "/"),
		logger:      logger,
	}
}

// Launch submits a shoot. Validation failures happen before any external call;
// a provider rejection moves the already-recorded prediction to failed instead
// of leaving it stuck in pending.
func (l *Launcher) Launch(ctx context.Context, req Request) (*domain.Prediction, error) {
	ratio, err := domain.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.NewValidationError("prompt", "prompt is required")
	}

	studio, err := l.studios.GetByID(ctx, req.StudioID)
	if err != nil {
		return nil, err
	}
	if studio.UserID != req.UserID {
		return nil, domain.ErrForbidden
	}

	version := modelVersion(studio)
	if version == "" {
		return nil, domain.NewValidationError("model_version", "studio has no model version")
	}

	negative := req.NegativePrompt
	if strings.TrimSpace(negative) == "" {
		negative = domain.DefaultNegativePrompt
	}

	pred := &domain.Prediction{
		ID:             uuid.NewString(),
		StudioID:       studio.ID,
		Status:         domain.PredictionStatusPending,
		Prompt:         assemblePrompt(studio, req.Prompt),
		NegativePrompt: negative,
		Style:          req.Style,
	}
	if err := l.predictions.Create(ctx, pred); err != nil {
		return nil, err
	}

	ext, err := l.provider.CreatePrediction(ctx, replicate.CreatePredictionInput{
		Version: version,
		Input: replicate.GenerationInput{
			Prompt:               pred.Prompt,
			HFLora:               studio.LoraWeights,
			LoraScale:            loraScale,
			NumOutputs:           numOutputs,
			AspectRatio:          ratio.Dimensions(),
			OutputFormat:         "jpg",
			GuidanceScale:        guidanceScale,
			OutputQuality:        outputQuality,
			PromptStrength:       promptStrength,
			NumInferenceSteps:    numInferenceSteps,
			DisableSafetyChecker: true,
			NegativePrompt:       negative,
		},
		WebhookURL:          l.webhookURL(pred.ID),
		WebhookEventsFilter: []string{"completed"},
	})
	if err != nil {
		telemetry.ShootsRejected.Inc()
		if _, uerr := l.predictions.UpdateStatus(ctx, pred.ID, domain.PredictionStatusFailed, nil, nil); uerr != nil {
			l.logger.Error().Err(uerr).Str("prediction_id", pred.ID).Msg("failed to mark rejected shoot")
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}

	if err := l.predictions.MarkProcessing(ctx, pred.ID, ext.ID); err != nil {
		return nil, err
	}
	pred.ExternalID = ext.ID
	pred.Status = domain.PredictionStatusProcessing

	telemetry.ShootsCreated.Inc()
	if l.tracker != nil {
		l.tracker.Track(pred.ID)
	}
	l.logger.Info().Str("prediction_id", pred.ID).Str("external_id", ext.ID).Str("studio_id", studio.ID).Msg("shoot submitted")

	return pred, nil
}

// assemblePrompt substitutes the studio's subject description into the
// {prompt} placeholder and appends a subject reminder.
func assemblePrompt(studio *domain.Studio, prompt string) string {
	subject := fmt.Sprintf("%s a %s with %s hair, %dcm tall ", studio.ModelUser, studio.Type, studio.HairStyle, studio.HeightCM)
	return strings.ReplaceAll(prompt, "{prompt}", subject) + fmt.Sprintf(", %s a %s ", studio.ModelUser, studio.Type)
}

func modelVersion(studio *domain.Studio) string {
	if strings.HasPrefix(studio.LoraWeights, "huggingface.co/") {
		return blackForestModel
	}
	return studio.ModelVersion
}

func (l *Launcher) webhookURL(predictionID string) string {
	return l.appBaseURL + "/v1/webhooks/replicate?prediction_id=" + predictionID
}
