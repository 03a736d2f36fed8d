// Package generator produces the synthetic payloads emitted by streams.
// Generators are stateless beyond their fixed vocabularies and an injected
// random source; every call draws fresh. A generator is owned by exactly
// one stream's scheduler goroutine and is not safe for concurrent use.
package generator

import "math/rand"

// Generator is the single capability a stream needs from its payload
// source. The index is the stream's emission count at generation time.
type Generator interface {
	Kind() string
	Generate(index int64) any
}

// ForStream selects the generator variant for a stream name. Unknown names
// fall back to the book generator, the same fallback the defaults use.
func ForStream(name string, rng *rand.Rand) Generator {
	switch name {
	case "issues":
		return NewIssues(rng)
	default:
		return NewBooks(rng)
	}
}

// Synthetic ids start above these bases so generated records are easy to
// tell apart from catalog records.
const (
	bookIDBase  = 1000
	issueIDBase = 5000
)

var bookTitles = []string{
	"The Silent Library",
	"Rivers of Ink",
	"A Brief History of Shelves",
	"The Cartographer's Daughter",
	"Midnight in the Archive",
	"The Last Manuscript",
	"Paper Cities",
	"The Borrowed Hour",
}

var userNames = []string{
	"Alice Johnson",
	"Bob Martinez",
	"Carol Nakamura",
	"David Okafor",
	"Elena Petrova",
	"Frank Delgado",
	"Grace Lindqvist",
	"Hassan Al-Amin",
}

var categories = []string{
	"Fiction",
	"Science",
	"History",
	"Technology",
	"Philosophy",
}

var issueTypes = []string{
	"borrowed",
	"returned",
	"renewed",
	"overdue",
}
