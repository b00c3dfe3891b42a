package models

// Raw Jikan v4 payloads. Nullable catalog fields are pointers so that the
// normalizer can tell "absent" apart from a zero value.

type JikanSearchResponse struct {
	Data       []JikanAnime `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

type JikanAnimeResponse struct {
	Data JikanAnime `json:"data"`
}

type JikanAnime struct {
	MalId    int          `json:"mal_id"`
	Title    string       `json:"title"`
	Synopsis *string      `json:"synopsis"`
	Images   Images       `json:"images"`
	Episodes *int         `json:"episodes"`
	Score    *float64     `json:"score"`
	Type     *string      `json:"type"`
	Status   string       `json:"status"`
	Genres   []JikanGenre `json:"genres"`
}

type Images struct {
	JPG ImageURL `json:"jpg"`
}

type ImageURL struct {
	ImageURL      string `json:"image_url"`
	LargeImageURL string `json:"large_image_url"`
}

type JikanGenre struct {
	MalId int    `json:"mal_id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
}

type Pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	CurrentPage     int  `json:"current_page"`
	Items           struct {
		Count   int `json:"count"`
		Total   int `json:"total"`
		PerPage int `json:"per_page"`
	} `json:"items"`
}
