package models

import "time"

// Issue types. A borrowed issue becomes returned when the copy comes back.
const (
	IssueBorrowed = "borrowed"
	IssueReturned = "returned"
)

// LoanPeriod is how long a borrowed book may be kept before it is overdue.
const LoanPeriod = 14 * 24 * time.Hour

// Issue records a book being lent to a user.
type Issue struct {
	ID         int        `json:"id"`
	BookID     int        `json:"bookId"`
	UserID     string     `json:"userId"`
	Type       string     `json:"type"`
	IssuedAt   time.Time  `json:"issuedAt"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
}

// Overdue reports whether the issue is past due at the given instant.
// Returned issues are never overdue.
func (i Issue) Overdue(now time.Time) bool {
	return i.Type == IssueBorrowed && i.DueDate != nil && now.After(*i.DueDate)
}
