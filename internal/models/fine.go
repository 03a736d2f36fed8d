package models

import "time"

// Fine is charged when a book comes back after its due date. Amount is in
// cents to keep the arithmetic exact.
type Fine struct {
	ID        int        `json:"id"`
	IssueID   int        `json:"issueId"`
	UserID    string     `json:"userId"`
	Amount    int64      `json:"amount"`
	Reason    string     `json:"reason"`
	Paid      bool       `json:"paid"`
	CreatedAt time.Time  `json:"createdAt"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
}
