package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"library-streaming-api/internal/models"
	"library-streaming-api/internal/store"
)

type bookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Category      string `json:"category"`
	PublishedYear int    `json:"publishedYear"`
}

func (b bookRequest) model() models.Book {
	return models.Book{
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		Category:      b.Category,
		PublishedYear: b.PublishedYear,
	}
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil && id > 0
}

func (s *Server) handleBookList(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, s.store.Books())
}

func (s *Server) handleBookGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	book, err := s.store.Book(id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, book)
}

func (s *Server) handleBookCreate(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Title == "" || req.Author == "" {
		respondError(w, http.StatusBadRequest, "title and author are required")
		return
	}

	book, err := s.store.CreateBook(req.model())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusCreated, book)
}

func (s *Server) handleBookUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	var req bookRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Title == "" || req.Author == "" {
		respondError(w, http.StatusBadRequest, "title and author are required")
		return
	}

	book, err := s.store.UpdateBook(id, req.model())
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, book)
}

func (s *Server) handleBookDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	err := s.store.DeleteBook(id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusNoContent, nil)
}
