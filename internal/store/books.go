package store

import (
	"sort"

	"library-streaming-api/internal/models"
)

// Books returns the catalog ordered by id.
func (s *Store) Books() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.booksLocked()
}

func (s *Store) booksLocked() []models.Book {
	out := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Book returns one catalog entry.
func (s *Store) Book(id int) (models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return models.Book{}, ErrNotFound
	}
	return b, nil
}

// CreateBook adds a catalog entry. The id is assigned by the store and new
// entries always start out available.
func (s *Store) CreateBook(b models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.nextBookID
	s.nextBookID++
	b.Available = true
	s.books[b.ID] = b

	if err := s.saveBooksLocked(); err != nil {
		return models.Book{}, err
	}
	return b, nil
}

// UpdateBook replaces the descriptive fields of a catalog entry.
// Availability is owned by the circulation flow and survives the update.
func (s *Store) UpdateBook(id int, b models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.books[id]
	if !ok {
		return models.Book{}, ErrNotFound
	}
	b.ID = id
	b.Available = current.Available
	s.books[id] = b

	if err := s.saveBooksLocked(); err != nil {
		return models.Book{}, err
	}
	return b, nil
}

// DeleteBook removes a catalog entry. Open issues for the book stay on
// record; returning one later simply finds no availability to restore.
func (s *Store) DeleteBook(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return ErrNotFound
	}
	delete(s.books, id)
	return s.saveBooksLocked()
}

func (s *Store) saveBooksLocked() error {
	return s.saveLocked(booksFile, s.booksLocked())
}
