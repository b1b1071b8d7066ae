package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Clark-Hu/cinelog/internal/backend"
	"github.com/Clark-Hu/cinelog/internal/domain"
)

type fixtureMovie struct {
	ID          int      `yaml:"id"`
	Title       string   `yaml:"title"`
	Director    string   `yaml:"director"`
	ReleaseYear *int     `yaml:"release_year"`
	Genre       string   `yaml:"genre"`
	PosterPath  string   `yaml:"poster_path"`
	Synopsis    *string  `yaml:"synopsis"`
	Runtime     *int     `yaml:"runtime"`
	Cast        []string `yaml:"cast"`
}

type fixtureUser struct {
	ID             int     `yaml:"id"`
	Username       string  `yaml:"username"`
	Password       string  `yaml:"password"`
	CreatedAt      *string `yaml:"created_at"`
	ProfilePicture *string `yaml:"profile_picture"`
}

type fixtureReview struct {
	ID           int     `yaml:"id"`
	UserID       int     `yaml:"user_id"`
	MovieID      int     `yaml:"movie_id"`
	NoteVisual   int     `yaml:"note_visual"`
	NoteAction   int     `yaml:"note_action"`
	NoteScenario int     `yaml:"note_scenario"`
	DateReviewed string  `yaml:"date_reviewed"`
	Favorite     bool    `yaml:"favorite"`
	Comment      *string `yaml:"comment"`
}

// fixture is the on-disk seed. JSON files parse too, being valid YAML.
type fixture struct {
	Movies      []fixtureMovie  `yaml:"movies"`
	Users       []fixtureUser   `yaml:"users"`
	Reviews     []fixtureReview `yaml:"reviews"`
	Friendships [][2]int        `yaml:"friendships"`
	Watched     map[int][]int   `yaml:"watched"`
	Favorites   map[int][]int   `yaml:"favorites"`
}

func loadFixture(path string) (fixture, error) {
	var fx fixture
	payload, err := os.ReadFile(path)
	if err != nil {
		return fx, fmt.Errorf("read fixture: %w", err)
	}
	if err := yaml.Unmarshal(payload, &fx); err != nil {
		return fx, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return fx, nil
}

// seed builds a fresh database from the fixture. Plain passwords in the
// fixture are stored as the digest clients send.
func seed(fx fixture) *database {
	d := newDatabase()
	for _, m := range fx.Movies {
		d.movies = append(d.movies, domain.MovieDetail{
			ID:          m.ID,
			Title:       m.Title,
			Director:    m.Director,
			ReleaseYear: m.ReleaseYear,
			Genre:       m.Genre,
			PosterPath:  m.PosterPath,
			Synopsis:    m.Synopsis,
			Runtime:     m.Runtime,
			Cast:        m.Cast,
		})
	}
	for _, u := range fx.Users {
		d.users = append(d.users, domain.User{
			ID:             u.ID,
			Username:       u.Username,
			PasswordHash:   backend.HashPassword(u.Password),
			CreatedAt:      u.CreatedAt,
			ProfilePicture: u.ProfilePicture,
		})
	}
	for _, r := range fx.Reviews {
		d.reviews = append(d.reviews, domain.Review{
			ID:           r.ID,
			UserID:       r.UserID,
			MovieID:      r.MovieID,
			NoteVisual:   r.NoteVisual,
			NoteAction:   r.NoteAction,
			NoteScenario: r.NoteScenario,
			DateReviewed: r.DateReviewed,
			Favorite:     r.Favorite,
			Comment:      r.Comment,
		})
	}
	for _, f := range fx.Friendships {
		d.friends = append(d.friends, domain.Friendship{UserID: f[0], FriendID: f[1]})
	}
	for userID, ids := range fx.Watched {
		for _, id := range ids {
			d.setMark(userID, domain.MarkWatched, id, true)
		}
	}
	for userID, ids := range fx.Favorites {
		for _, id := range ids {
			d.setMark(userID, domain.MarkFavorites, id, true)
		}
	}
	return d
}
