package models

// UnknownMediaType is used when the catalog does not report a type.
const UnknownMediaType = "Unknown"

// AnimeRecord is the canonical shape of one catalog entry. Values are never
// mutated after normalization, so copies may share the pointer fields.
type AnimeRecord struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Synopsis  string   `json:"synopsis"`
	ImageURL  string   `json:"image_url,omitempty"`
	Episodes  *int     `json:"episodes"`
	Score     *float64 `json:"score"`
	MediaType string   `json:"media_type"`
	Status    string   `json:"status,omitempty"`
	Genres    []Genre  `json:"genres"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SearchPage is one fulfilled page of keyword search results.
type SearchPage struct {
	Records []AnimeRecord `json:"records"`
	Page    int           `json:"page"`
	HasMore bool          `json:"has_more"`
}
