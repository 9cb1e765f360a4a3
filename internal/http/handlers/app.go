package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"headshotlab/internal/cache"
	"headshotlab/internal/domain"
	"headshotlab/internal/infra"
	"headshotlab/internal/middleware"
	"headshotlab/internal/reconcile"
	"headshotlab/internal/shoot"
)

// App bundles the dependencies shared by every handler.
type App struct {
	Users       domain.UserRepository
	Studios     domain.StudioRepository
	Predictions domain.PredictionRepository
	Favorites   domain.FavoriteRepository
	Gallery     domain.GalleryRepository

	Launcher   *shoot.Launcher
	Reconciler *reconcile.Reconciler
	Cache      *cache.GalleryCache

	Cfg    *infra.Config
	Logger zerolog.Logger

	validate *validator.Validate
}

// NewApp builds the handler container.
func NewApp(cfg *infra.Config, logger zerolog.Logger) *App {
	return &App{
		Cfg:      cfg,
		Logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errorBody{Code: errCode, Message: message}})
}

// decode parses the JSON body into v and runs struct validation.
func (a *App) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid payload")
	}
	if err := a.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.NewValidationError(verrs[0].Field(), "failed on "+verrs[0].Tag())
		}
		return domain.NewValidationError("body", "invalid payload")
	}
	return nil
}

// fail translates domain errors into HTTP responses.
func (a *App) fail(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		a.error(w, http.StatusBadRequest, "bad_request", verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "not allowed")
	case errors.Is(err, domain.ErrConflict):
		a.error(w, http.StatusConflict, "conflict", "resource already exists")
	case errors.Is(err, domain.ErrUpstreamFailure):
		a.Logger.Error().Err(err).Msg("upstream failure")
		a.error(w, http.StatusBadGateway, "upstream_error", "provider request failed")
	default:
		a.Logger.Error().Err(err).Msg("internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
