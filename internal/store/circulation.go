package store

import (
	"fmt"
	"sort"
	"time"

	"library-streaming-api/internal/models"
)

// overdueFinePerDay is the charge for each started day past due, in cents.
const overdueFinePerDay = 50

// CreateIssue lends a book to a user: the loan is recorded with a due date
// one loan period out and the book stops being available. A missing book
// fails with ErrNotFound, a borrower that is not on record with
// ErrUserNotFound.
func (s *Store) CreateIssue(bookID int, userID string) (models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[bookID]
	if !ok {
		return models.Issue{}, ErrNotFound
	}
	if !book.Available {
		return models.Issue{}, ErrBookUnavailable
	}
	if _, ok := s.users[userID]; !ok {
		return models.Issue{}, ErrUserNotFound
	}

	now := s.now().UTC()
	due := now.Add(models.LoanPeriod)
	issue := models.Issue{
		ID:       s.nextIssueID,
		BookID:   bookID,
		UserID:   userID,
		Type:     models.IssueBorrowed,
		IssuedAt: now,
		DueDate:  &due,
	}
	s.nextIssueID++
	s.issues[issue.ID] = issue

	book.Available = false
	s.books[bookID] = book

	if err := s.saveBooksLocked(); err != nil {
		return models.Issue{}, err
	}
	if err := s.saveIssuesLocked(); err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

// ReturnIssue closes a loan. The book becomes available again and a late
// return creates an unpaid fine, charged per started day past due.
func (s *Store) ReturnIssue(id int) (models.Issue, *models.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return models.Issue{}, nil, ErrNotFound
	}
	if issue.Type == models.IssueReturned {
		return models.Issue{}, nil, ErrAlreadyReturned
	}

	now := s.now().UTC()
	overdue := issue.Overdue(now)
	issue.Type = models.IssueReturned
	issue.ReturnedAt = &now
	s.issues[id] = issue

	// The book may have been deleted while it was out; then there is no
	// availability to restore.
	if book, ok := s.books[issue.BookID]; ok {
		book.Available = true
		s.books[issue.BookID] = book
		if err := s.saveBooksLocked(); err != nil {
			return models.Issue{}, nil, err
		}
	}

	var fine *models.Fine
	if overdue {
		late := now.Sub(*issue.DueDate)
		daysLate := int64(late/(24*time.Hour)) + 1 // a started day counts
		f := models.Fine{
			ID:        s.nextFineID,
			IssueID:   issue.ID,
			UserID:    issue.UserID,
			Amount:    daysLate * overdueFinePerDay,
			Reason:    fmt.Sprintf("returned %d day(s) late", daysLate),
			CreatedAt: now,
		}
		s.nextFineID++
		s.fines[f.ID] = f
		if err := s.saveFinesLocked(); err != nil {
			return models.Issue{}, nil, err
		}
		fine = &f
	}

	if err := s.saveIssuesLocked(); err != nil {
		return models.Issue{}, nil, err
	}
	return issue, fine, nil
}

// Issues returns every loan on record, oldest first.
func (s *Store) Issues() []models.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issuesLocked()
}

func (s *Store) issuesLocked() []models.Issue {
	out := make([]models.Issue, 0, len(s.issues))
	for _, is := range s.issues {
		out = append(out, is)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fines returns every fine on record.
func (s *Store) Fines() []models.Fine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finesLocked()
}

func (s *Store) finesLocked() []models.Fine {
	out := make([]models.Fine, 0, len(s.fines))
	for _, f := range s.fines {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fine returns one fine by id.
func (s *Store) Fine(id int) (models.Fine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fines[id]
	if !ok {
		return models.Fine{}, ErrNotFound
	}
	return f, nil
}

// PayFine settles an open fine.
func (s *Store) PayFine(id int) (models.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.fines[id]
	if !ok {
		return models.Fine{}, ErrNotFound
	}
	if f.Paid {
		return models.Fine{}, ErrFinePaid
	}

	now := s.now().UTC()
	f.Paid = true
	f.PaidAt = &now
	s.fines[id] = f

	if err := s.saveFinesLocked(); err != nil {
		return models.Fine{}, err
	}
	return f, nil
}

func (s *Store) saveIssuesLocked() error {
	return s.saveLocked(issuesFile, s.issuesLocked())
}

func (s *Store) saveFinesLocked() error {
	return s.saveLocked(finesFile, s.finesLocked())
}
