package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

type markKey struct {
	userID int
	kind   domain.MarkKind
}

// database is the mock's in-memory state. A fixture reload swaps it whole.
type database struct {
	mu      sync.RWMutex
	movies  []domain.MovieDetail
	users   []domain.User
	reviews []domain.Review
	friends []domain.Friendship
	marks   map[markKey]map[int]bool
	tokens  map[string]int
}

func newDatabase() *database {
	return &database{
		marks:  make(map[markKey]map[int]bool),
		tokens: make(map[string]int),
	}
}

func (d *database) movie(id int) (domain.MovieDetail, bool) {
	for _, m := range d.movies {
		if m.ID == id {
			return m, true
		}
	}
	return domain.MovieDetail{}, false
}

func (d *database) userIndex(id int) int {
	for i, u := range d.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (d *database) userByName(username string) (domain.User, bool) {
	for _, u := range d.users {
		if u.Username == username {
			return u, true
		}
	}
	return domain.User{}, false
}

func (d *database) nextUserID() int {
	max := 0
	for _, u := range d.users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max + 1
}

func (d *database) nextReviewID() int {
	max := 0
	for _, r := range d.reviews {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// friendIDs follows edges in both directions.
func (d *database) friendIDs(userID int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, f := range d.friends {
		var other int
		switch userID {
		case f.UserID:
			other = f.FriendID
		case f.FriendID:
			other = f.UserID
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	sort.Ints(out)
	return out
}

func (d *database) hasEdge(userID, friendID int) bool {
	for _, f := range d.friends {
		if f.UserID == userID && f.FriendID == friendID {
			return true
		}
	}
	return false
}

func (d *database) setMark(userID int, kind domain.MarkKind, movieID int, on bool) {
	k := markKey{userID, kind}
	if d.marks[k] == nil {
		d.marks[k] = make(map[int]bool)
	}
	if on {
		d.marks[k][movieID] = true
		return
	}
	delete(d.marks[k], movieID)
}

func (d *database) markIDs(userID int, kind domain.MarkKind) []int {
	out := []int{}
	for id := range d.marks[markKey{userID, kind}] {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (d *database) search(title string) []domain.SearchResult {
	title = strings.ToLower(strings.TrimSpace(title))
	out := []domain.SearchResult{}
	for _, m := range d.movies {
		if title != "" && !strings.Contains(strings.ToLower(m.Title), title) {
			continue
		}
		res := domain.SearchResult{ID: m.ID, Title: m.Title, PosterPath: m.PosterPath}
		if m.ReleaseYear != nil {
			res.ReleaseDate = fmt.Sprintf("%04d-01-01", *m.ReleaseYear)
		}
		out = append(out, res)
	}
	return out
}
