package api

import (
	"errors"
	"net/http"

	"library-streaming-api/internal/models"
	"library-streaming-api/internal/store"
	"library-streaming-api/pkg/auth"
)

type issueRequest struct {
	BookID int `json:"bookId"`
}

func (s *Server) handleIssueList(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, s.store.Issues())
}

// handleIssueCreate lends a book to the authenticated user.
func (s *Server) handleIssueCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authorization token required")
		return
	}

	var req issueRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.BookID <= 0 {
		respondError(w, http.StatusBadRequest, "bookId is required")
		return
	}

	issue, err := s.store.CreateIssue(req.BookID, claims.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "book not found")
		return
	case errors.Is(err, store.ErrUserNotFound):
		// A signed token can outlive its account.
		respondError(w, http.StatusNotFound, "user not found")
		return
	case errors.Is(err, store.ErrBookUnavailable):
		respondError(w, http.StatusConflict, "book is not available")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusCreated, issue)
}

func (s *Server) handleIssueReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	issue, fine, err := s.store.ReturnIssue(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "issue not found")
		return
	case errors.Is(err, store.ErrAlreadyReturned):
		respondError(w, http.StatusConflict, "issue already returned")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{"issue": issue}
	if fine != nil {
		resp["fine"] = fine
	}
	respond(w, http.StatusOK, resp)
}

// handleFineList shows members their own fines; admins see everything.
func (s *Server) handleFineList(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authorization token required")
		return
	}

	fines := s.store.Fines()
	if claims.Role != models.RoleAdmin {
		own := make([]models.Fine, 0, len(fines))
		for _, f := range fines {
			if f.UserID == claims.UserID {
				own = append(own, f)
			}
		}
		fines = own
	}
	respond(w, http.StatusOK, fines)
}

func (s *Server) handleFinePay(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authorization token required")
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid fine id")
		return
	}

	fine, err := s.store.Fine(id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "fine not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if claims.Role != models.RoleAdmin && fine.UserID != claims.UserID {
		respondError(w, http.StatusForbidden, "not your fine")
		return
	}

	paid, err := s.store.PayFine(id)
	switch {
	case errors.Is(err, store.ErrFinePaid):
		respondError(w, http.StatusConflict, "fine already paid")
		return
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "fine not found")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, paid)
}
