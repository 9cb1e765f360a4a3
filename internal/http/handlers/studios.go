package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"headshotlab/internal/domain"
)

type studioCreateRequest struct {
	Name         string   `json:"name" validate:"required"`
	Type         string   `json:"type" validate:"required"`
	ModelUser    string   `json:"model_user"`
	ModelVersion string   `json:"model_version"`
	LoraWeights  string   `json:"lora_weights"`
	HairStyle    string   `json:"hair_style"`
	HeightCM     int      `json:"height_cm" validate:"omitempty,gt=0"`
	ExtraInfo    string   `json:"extra_info"`
	Images       []string `json:"images"`
}

type studioDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	ModelUser    string    `json:"model_user"`
	ModelVersion string    `json:"model_version"`
	LoraWeights  string    `json:"lora_weights"`
	HairStyle    string    `json:"hair_style"`
	HeightCM     int       `json:"height_cm"`
	ExtraInfo    string    `json:"extra_info"`
	Images       []string  `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
}

func toStudioDTO(s *domain.Studio) studioDTO {
	return studioDTO{
		ID:           s.ID,
		Name:         s.Name,
		Type:         s.Type,
		ModelUser:    s.ModelUser,
		ModelVersion: s.ModelVersion,
		LoraWeights:  s.LoraWeights,
		HairStyle:    s.HairStyle,
		HeightCM:     s.HeightCM,
		ExtraInfo:    s.ExtraInfo,
		Images:       s.Images,
		CreatedAt:    s.CreatedAt,
	}
}

func (a *App) StudiosCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req studioCreateRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	studio := &domain.Studio{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         req.Name,
		Type:         req.Type,
		ModelUser:    req.ModelUser,
		ModelVersion: req.ModelVersion,
		LoraWeights:  req.LoraWeights,
		HairStyle:    req.HairStyle,
		HeightCM:     req.HeightCM,
		ExtraInfo:    req.ExtraInfo,
		Images:       req.Images,
	}
	if err := a.Studios.Create(r.Context(), studio); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, toStudioDTO(studio))
}

func (a *App) StudiosList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	studios, err := a.Studios.ListByUser(r.Context(), userID)
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]studioDTO, 0, len(studios))
	for i := range studios {
		out = append(out, toStudioDTO(&studios[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"studios": out})
}

func (a *App) StudioGet(w http.ResponseWriter, r *http.Request) {
	studio, ok := a.ownedStudio(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, toStudioDTO(studio))
}

// ownedStudio loads the studio from the URL and enforces ownership. On failure
// it has already written the response.
func (a *App) ownedStudio(w http.ResponseWriter, r *http.Request) (*domain.Studio, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	studioID := chi.URLParam(r, "id")
	if studioID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "studio id required")
		return nil, false
	}
	studio, err := a.Studios.GetByID(r.Context(), studioID)
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	if studio.UserID != userID {
		a.fail(w, domain.ErrForbidden)
		return nil, false
	}
	return studio, true
}
