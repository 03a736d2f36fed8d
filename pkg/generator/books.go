package generator

import (
	"fmt"
	"math/rand"
	"time"

	"library-streaming-api/internal/models"
)

// BookPayload is one synthetic book emission: a catalog record plus the
// emission timestamp.
type BookPayload struct {
	models.Book
	Timestamp time.Time `json:"timestamp"`
}

// Books generates synthetic book records.
type Books struct {
	rng *rand.Rand
}

// NewBooks returns a book generator drawing from rng.
func NewBooks(rng *rand.Rand) *Books {
	return &Books{rng: rng}
}

// Kind implements Generator.
func (g *Books) Kind() string { return "books" }

// Generate implements Generator. Ids are offset from the emission index;
// titles get a random numeric suffix so repeated vocabulary entries stay
// distinguishable; roughly 70% of copies come up available.
func (g *Books) Generate(index int64) any {
	title := bookTitles[g.rng.Intn(len(bookTitles))]
	return BookPayload{
		Book: models.Book{
			ID:            int(bookIDBase + index),
			Title:         fmt.Sprintf("%s #%d", title, g.rng.Intn(1000)),
			Author:        userNames[g.rng.Intn(len(userNames))],
			ISBN:          g.isbn(),
			Category:      categories[g.rng.Intn(len(categories))],
			PublishedYear: 2000 + g.rng.Intn(24),
			Available:     g.rng.Float64() < 0.7,
		},
		Timestamp: time.Now().UTC(),
	}
}

func (g *Books) isbn() string {
	return fmt.Sprintf("978-%d-%05d-%03d-%d",
		g.rng.Intn(10), g.rng.Intn(100000), g.rng.Intn(1000), g.rng.Intn(10))
}
