package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

func TestFriendSuggestions(t *testing.T) {
	users := []domain.User{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "Alicia"},
		{ID: 3, Username: "bob"},
		{ID: 4, Username: "malik"},
	}
	viewer := users[0]
	friends := []domain.User{{ID: 4, Username: "malik"}}

	got := FriendSuggestions(users, viewer, friends, "ALI")
	assert.Equal(t, []int{2}, UserIDs(got))

	assert.Empty(t, FriendSuggestions(users, viewer, friends, "  "))
}

func TestFindUser(t *testing.T) {
	users := []domain.User{{ID: 1, Username: "alice"}}
	u, ok := FindUser(users, 1)
	assert.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	_, ok = FindUserByName(users, "bob")
	assert.False(t, ok)
}
