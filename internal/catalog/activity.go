package catalog

import (
	"net/url"
	"sort"
	"strings"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

const initialsAvatarBase = "https://api.dicebear.com/8.x/initials/svg?seed="

// ActivityFilter selects whose reviews appear in the feed.
type ActivityFilter string

const (
	FilterAll     ActivityFilter = "all"
	FilterFriends ActivityFilter = "friends"
)

// ParseActivityFilter defaults anything unknown to FilterAll.
func ParseActivityFilter(raw string) ActivityFilter {
	if ActivityFilter(strings.ToLower(strings.TrimSpace(raw))) == FilterFriends {
		return FilterFriends
	}
	return FilterAll
}

// EmptyReason explains why a feed has no items.
type EmptyReason string

const (
	EmptyNone          EmptyReason = ""
	EmptyLoginRequired EmptyReason = "login-required"
	EmptyNoFriends     EmptyReason = "no-friends"
	EmptyNoActivity    EmptyReason = "no-activity"
)

// ActivityItem is one review rendered in the feed.
type ActivityItem struct {
	ReviewID  int              `json:"reviewId"`
	UserID    int              `json:"userId"`
	Username  string           `json:"username"`
	Avatar    string           `json:"avatar"`
	Movie     domain.Movie     `json:"movie"`
	Rating    float64          `json:"rating"`
	Breakdown domain.Breakdown `json:"breakdown"`
	Date      string           `json:"date"`
	Liked     bool             `json:"liked"`
	Comment   string           `json:"comment,omitempty"`
}

// ActivityFeed is the filtered feed plus the reason it may be empty.
type ActivityFeed struct {
	Filter ActivityFilter `json:"filter"`
	Items  []ActivityItem `json:"items"`
	Empty  EmptyReason    `json:"empty,omitempty"`
}

// BuildActivity lists reviews whose movie is loaded, newest first. With
// FilterFriends only authors in friendIDs are kept; viewer nil means the
// visitor is anonymous.
func BuildActivity(reviews []domain.DisplayReview, movies []domain.Movie, filter ActivityFilter, viewer *domain.User, friendIDs []int) ActivityFeed {
	feed := ActivityFeed{Filter: filter, Items: []ActivityItem{}}

	if filter == FilterFriends {
		if viewer == nil {
			feed.Empty = EmptyLoginRequired
			return feed
		}
		if len(friendIDs) == 0 {
			feed.Empty = EmptyNoFriends
			return feed
		}
	}

	friends := make(map[int]bool, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = true
	}
	byID := IndexMovies(movies)

	for _, r := range reviews {
		movie, ok := byID[r.MovieID]
		if !ok {
			continue
		}
		if filter == FilterFriends && !friends[r.UserID] {
			continue
		}
		feed.Items = append(feed.Items, ActivityItem{
			ReviewID:  r.ID,
			UserID:    r.UserID,
			Username:  r.Username,
			Avatar:    AvatarURL(r.Avatar, r.Username),
			Movie:     movie,
			Rating:    r.AverageRating,
			Breakdown: r.Breakdown,
			Date:      r.Date,
			Liked:     r.Favorite,
			Comment:   r.Comment,
		})
	}

	sort.SliceStable(feed.Items, func(i, j int) bool {
		if feed.Items[i].Date != feed.Items[j].Date {
			return feed.Items[i].Date > feed.Items[j].Date
		}
		return feed.Items[i].ReviewID > feed.Items[j].ReviewID
	})

	if len(feed.Items) == 0 {
		feed.Empty = EmptyNoActivity
	}
	return feed
}

// AvatarURL returns avatar, or a generated initials avatar when blank.
func AvatarURL(avatar, username string) string {
	if strings.TrimSpace(avatar) != "" {
		return avatar
	}
	return initialsAvatarBase + url.QueryEscape(username)
}

// Initials returns up to two upper-cased leading characters of a username.
func Initials(username string) string {
	runes := []rune(strings.TrimSpace(username))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
