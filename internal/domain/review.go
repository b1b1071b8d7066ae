package domain

// Review mirrors the remote review record.
type Review struct {
	ID           int     `json:"id"`
	UserID       int     `json:"user_id"`
	MovieID      int     `json:"movie_id"`
	NoteVisual   int     `json:"note_visual"`
	NoteAction   int     `json:"note_action"`
	NoteScenario int     `json:"note_scenario"`
	DateReviewed string  `json:"date_reviewed"`
	Favorite     bool    `json:"favorite"`
	Comment      *string `json:"comment,omitempty"`
}

// ReviewDraft carries the fields needed to publish a review.
type ReviewDraft struct {
	UserID       int    `json:"user_id"`
	MovieID      int    `json:"movie_id"`
	NoteVisual   int    `json:"note_visual"`
	NoteAction   int    `json:"note_action"`
	NoteScenario int    `json:"note_scenario"`
	Favorite     bool   `json:"favorite"`
	Comment      string `json:"comment,omitempty"`
}

// MinNote and MaxNote bound every sub-score.
const (
	MinNote = 0
	MaxNote = 5
)

// ReviewStats summarizes the reviews of a single movie.
type ReviewStats struct {
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
	LastDate string  `json:"lastDate,omitempty"`
}

// Breakdown holds the three sub-scores of a review.
type Breakdown struct {
	Visual   int `json:"visual"`
	Action   int `json:"action"`
	Scenario int `json:"scenario"`
}

// DisplayReview is a review with its author and movie resolved.
type DisplayReview struct {
	ID            int       `json:"id"`
	UserID        int       `json:"userId"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar"`
	MovieID       int       `json:"movieId"`
	MovieTitle    string    `json:"movieTitle"`
	MoviePoster   string    `json:"moviePoster,omitempty"`
	AverageRating float64   `json:"averageRating"`
	Breakdown     Breakdown `json:"breakdown"`
	Date          string    `json:"date"`
	Favorite      bool      `json:"favorite"`
	Comment       string    `json:"comment,omitempty"`
}
