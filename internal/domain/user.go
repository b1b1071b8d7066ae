package domain

// User mirrors the remote user record. PasswordHash is the client-side digest,
// never the plaintext.
type User struct {
	ID             int     `json:"id"`
	Username       string  `json:"username"`
	PasswordHash   string  `json:"password_hash,omitempty"`
	CreatedAt      *string `json:"created_at,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// Friendship is an asymmetric "I added you" edge.
type Friendship struct {
	UserID   int `json:"user_id"`
	FriendID int `json:"friend_id"`
}

// UserStats aggregates a user's activity for the profile page.
type UserStats struct {
	ReviewCount    int      `json:"reviewCount"`
	WatchedCount   int      `json:"watchedCount"`
	FavoriteCount  int      `json:"favoriteCount"`
	AverageRating  float64  `json:"averageRating"`
	HasRatings     bool     `json:"hasRatings"`
	TopGenres      []string `json:"topGenres"`
	MemberSince    string   `json:"memberSince"`
	WatchedMovies  []Movie  `json:"watchedMovies"`
	FavoriteMovies []Movie  `json:"favoriteMovies"`
}

// MarkKind names a per-user movie set kept by the remote API.
type MarkKind string

const (
	MarkWatched   MarkKind = "watched"
	MarkFavorites MarkKind = "favorites"
)
