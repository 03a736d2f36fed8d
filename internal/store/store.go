// Package store persists the library catalog as plain JSON files. The
// dataset is small and read-mostly: everything lives in memory and each
// mutation rewrites the affected file atomically, so a crash never leaves
// a half-written catalog behind.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"library-streaming-api/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrNotFound        = errors.New("not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrBookUnavailable = errors.New("book is not available")
	ErrAlreadyReturned = errors.New("issue already returned")
	ErrFinePaid        = errors.New("fine already paid")
)

const (
	booksFile  = "books.json"
	usersFile  = "users.json"
	issuesFile = "issues.json"
	finesFile  = "fines.json"
)

// Store is the library's state: catalog, members, loans and fines.
type Store struct {
	mu  sync.RWMutex
	dir string
	log *logrus.Entry
	now func() time.Time

	books  map[int]models.Book
	users  map[string]models.User
	issues map[int]models.Issue
	fines  map[int]models.Fine

	nextBookID  int
	nextIssueID int
	nextFineID  int
}

// Open loads the store from dir, creating it on first run. An empty
// catalog is seeded with a starter set of books.
func Open(dir string, log *logrus.Entry) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		dir:    dir,
		log:    log,
		now:    time.Now,
		books:  make(map[int]models.Book),
		users:  make(map[string]models.User),
		issues: make(map[int]models.Issue),
		fines:  make(map[int]models.Fine),
	}

	books, err := loadFile[models.Book](filepath.Join(dir, booksFile))
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		s.books[b.ID] = b
		if b.ID >= s.nextBookID {
			s.nextBookID = b.ID + 1
		}
	}

	users, err := loadFile[models.User](filepath.Join(dir, usersFile))
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		s.users[u.ID] = u
	}

	issues, err := loadFile[models.Issue](filepath.Join(dir, issuesFile))
	if err != nil {
		return nil, err
	}
	for _, is := range issues {
		s.issues[is.ID] = is
		if is.ID >= s.nextIssueID {
			s.nextIssueID = is.ID + 1
		}
	}

	fines, err := loadFile[models.Fine](filepath.Join(dir, finesFile))
	if err != nil {
		return nil, err
	}
	for _, f := range fines {
		s.fines[f.ID] = f
		if f.ID >= s.nextFineID {
			s.nextFineID = f.ID + 1
		}
	}

	if s.nextBookID == 0 {
		s.nextBookID = 1
	}
	if s.nextIssueID == 0 {
		s.nextIssueID = 1
	}
	if s.nextFineID == 0 {
		s.nextFineID = 1
	}

	if len(s.books) == 0 {
		for _, b := range seedCatalog() {
			s.books[b.ID] = b
			if b.ID >= s.nextBookID {
				s.nextBookID = b.ID + 1
			}
		}
		if err := s.saveBooksLocked(); err != nil {
			return nil, err
		}
		log.WithField("books", len(s.books)).Info("seeded catalog")
	}

	return s, nil
}

func loadFile[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// saveLocked rewrites one data file. Callers hold the write lock, so the
// file always matches the in-memory state it was derived from.
func (s *Store) saveLocked(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func seedCatalog() []models.Book {
	return []models.Book{
		{ID: 1, Title: "The Go Programming Language", Author: "Alan Donovan", ISBN: "978-0-13419-044-0", Category: "Technology", PublishedYear: 2015, Available: true},
		{ID: 2, Title: "A Brief History of Time", Author: "Stephen Hawking", ISBN: "978-0-55338-016-3", Category: "Science", PublishedYear: 1988, Available: true},
		{ID: 3, Title: "Dune", Author: "Frank Herbert", ISBN: "978-0-44117-271-9", Category: "Fiction", PublishedYear: 1965, Available: true},
		{ID: 4, Title: "Meditations", Author: "Marcus Aurelius", ISBN: "978-0-14044-933-4", Category: "Philosophy", PublishedYear: 2006, Available: true},
		{ID: 5, Title: "Sapiens", Author: "Yuval Noah Harari", ISBN: "978-0-06231-609-7", Category: "History", PublishedYear: 2015, Available: true},
		{ID: 6, Title: "The Pragmatic Programmer", Author: "David Thomas", ISBN: "978-0-13595-705-9", Category: "Technology", PublishedYear: 2019, Available: true},
	}
}
