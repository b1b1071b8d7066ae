package catalog

import (
	"strings"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

// UserIDs extracts the ids of users.
func UserIDs(users []domain.User) []int {
	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// FriendSuggestions lists users matching query (case-insensitive substring),
// excluding the viewer and current friends. A blank query suggests nobody.
func FriendSuggestions(users []domain.User, viewer domain.User, friends []domain.User, query string) []domain.User {
	query = strings.ToLower(strings.TrimSpace(query))
	out := []domain.User{}
	if query == "" {
		return out
	}
	isFriend := make(map[int]bool, len(friends))
	for _, f := range friends {
		isFriend[f.ID] = true
	}
	for _, u := range users {
		if u.ID == viewer.ID || isFriend[u.ID] {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), query) {
			out = append(out, u)
		}
	}
	return out
}

// FindUser looks a user up by id.
func FindUser(users []domain.User, id int) (domain.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// FindUserByName looks a user up by exact username.
func FindUserByName(users []domain.User, username string) (domain.User, bool) {
	for _, u := range users {
		if u.Username == username {
			return u, true
		}
	}
	return domain.User{}, false
}
