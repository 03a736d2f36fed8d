package api

import (
	"errors"
	"net/http"

	"library-streaming-api/internal/models"
	"library-streaming-api/internal/store"
	"library-streaming-api/pkg/auth"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "name, email and a password of at least 6 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not hash password")
		return
	}

	user, err := s.store.CreateUser(req.Name, req.Email, hash, "")
	if errors.Is(err, store.ErrEmailTaken) {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := s.auth.Issue(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	s.log.WithField("user", user.ID).Info("user registered")
	respond(w, http.StatusCreated, map[string]any{
		"user":  user.Sanitized(),
		"token": token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := s.store.UserByEmail(req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.Issue(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"user":  user.Sanitized(),
		"token": token,
	})
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	users := s.store.Users()
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = u.Sanitized()
	}
	respond(w, http.StatusOK, out)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authorization token required")
		return
	}
	user, err := s.store.User(claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "account no longer exists")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, user.Sanitized())
}
