package models

// Book is a catalog entry. Available flips to false while a copy is issued
// and back to true on return.
type Book struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Category      string `json:"category"`
	PublishedYear int    `json:"publishedYear"`
	Available     bool   `json:"available"`
}
