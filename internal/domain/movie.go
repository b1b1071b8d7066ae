package domain

// MovieSummary is a catalog entry as returned by the list endpoint.
type MovieSummary struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Director     string   `json:"director"`
	ReleaseYear  *int     `json:"release_year,omitempty"`
	PosterPath   *string  `json:"poster_path,omitempty"`
	GlobalRating *float64 `json:"global_rating,omitempty"`
}

// MovieDetail is the full record returned by the detail endpoint.
type MovieDetail struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Director     string   `json:"director"`
	ReleaseYear  *int     `json:"release_year,omitempty"`
	Genre        string   `json:"genre"`
	PosterPath   string   `json:"poster_path"`
	Synopsis     *string  `json:"synopsis,omitempty"`
	Runtime      *int     `json:"runtime,omitempty"`
	GlobalRating *float64 `json:"global_rating,omitempty"`
	Cast         []string `json:"cast,omitempty"`
}

// SearchResult is one hit of a title search.
type SearchResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
}

// Movie is the display-ready shape. Genre, Runtime, Synopsis and Cast stay
// empty until a detail fetch enriches the entry.
type Movie struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Director    string   `json:"director"`
	Poster      string   `json:"poster"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	Reviewed    bool     `json:"reviewed"`
	Genre       []string `json:"genre"`
	Runtime     int      `json:"runtime"`
	Synopsis    string   `json:"synopsis"`
	Cast        []string `json:"cast"`
	Detailed    bool     `json:"detailed"`
}
