package domain

import "time"

// PredictionStatus enumerates the lifecycle states of a generation request.
type PredictionStatus string

const (
	PredictionStatusPending    PredictionStatus = "pending"
	PredictionStatusProcessing PredictionStatus = "processing"
	PredictionStatusCompleted  PredictionStatus = "completed"
	PredictionStatusFailed     PredictionStatus = "failed"
)

// Terminal reports whether no further status mutation is permitted.
func (s PredictionStatus) Terminal() bool {
	return s == PredictionStatusCompleted || s == PredictionStatusFailed
}

// CanTransitionTo reports whether the status machine allows moving to next.
// Status only moves forward: pending -> processing -> {completed, failed}.
func (s PredictionStatus) CanTransitionTo(next PredictionStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case PredictionStatusPending:
		return next == PredictionStatusProcessing || next == PredictionStatusFailed
	case PredictionStatusProcessing:
		return next == PredictionStatusProcessing || next.Terminal()
	default:
		return false
	}
}

// Prediction tracks one image-generation request from submission to terminal result.
type Prediction struct {
	ID             string
	StudioID       string
	ExternalID     string
	Status         PredictionStatus
	Prompt         string
	NegativePrompt string
	Style          string
	ResultURL      string
	ThumbnailURL   string
	IsShared       bool
	LikesCount     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Shareable reports whether the prediction satisfies the public-sharing precondition.
func (p *Prediction) Shareable() bool {
	return p.Status == PredictionStatusCompleted && p.ResultURL != ""
}
