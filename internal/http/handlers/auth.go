package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"headshotlab/internal/domain"
	"headshotlab/internal/middleware"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Name: u.Name, Picture: u.Picture}
}

func (a *App) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.fail(w, err)
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		a.fail(w, err)
		return
	}

	token, err := a.issueToken(r, user.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, authResponse{Token: token, User: toUserDTO(user)})
}

func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	user, err := a.Users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Same response for unknown email and wrong password.
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	token, err := a.issueToken(r, user.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, authResponse{Token: token, User: toUserDTO(user)})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(user))
}

func (a *App) issueToken(r *http.Request, userID string) (string, error) {
	locale := middleware.LocaleFromContext(r.Context())
	return middleware.SignToken(a.Cfg.JWTSecret, userID, locale, a.Cfg.JWTTTL)
}
