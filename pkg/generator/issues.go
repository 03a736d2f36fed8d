package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// IssuePayload is one synthetic lending event. BookID points at a
// pseudo-recent synthetic book id bounded loosely by the emission index;
// the linkage is illustrative only and may reference ids never actually
// emitted while the index is small. DueDate is set 14 days out for
// borrowed issues and FineAmount only for overdue ones.
type IssuePayload struct {
	ID         int        `json:"id"`
	BookID     int        `json:"bookId"`
	UserID     int        `json:"userId"`
	UserName   string     `json:"userName"`
	Type       string     `json:"type"`
	DueDate    *time.Time `json:"dueDate"`
	FineAmount float64    `json:"fineAmount,omitempty"`
	Note       string     `json:"note"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Issues generates synthetic lending events.
type Issues struct {
	rng *rand.Rand
}

// NewIssues returns an issue generator drawing from rng.
func NewIssues(rng *rand.Rand) *Issues {
	return &Issues{rng: rng}
}

// Kind implements Generator.
func (g *Issues) Kind() string { return "issues" }

// Generate implements Generator.
func (g *Issues) Generate(index int64) any {
	typ := issueTypes[g.rng.Intn(len(issueTypes))]
	bookID := int(bookIDBase + g.rng.Int63n(index+10))
	name := userNames[g.rng.Intn(len(userNames))]

	p := IssuePayload{
		ID:        int(issueIDBase + index),
		BookID:    bookID,
		UserID:    1 + g.rng.Intn(100),
		UserName:  name,
		Type:      typ,
		Note:      fmt.Sprintf("Issue %s for book %d by %s", typ, bookID, name),
		Timestamp: time.Now().UTC(),
	}
	switch typ {
	case "borrowed":
		due := time.Now().UTC().Add(14 * 24 * time.Hour)
		p.DueDate = &due
	case "overdue":
		p.FineAmount = math.Round((g.rng.Float64()*19+1)*100) / 100
	}
	return p
}
