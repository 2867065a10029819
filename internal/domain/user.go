package domain

import (
	"math"
	"time"

	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// Visibility levels for privacy-controlled actions.
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// maxRecentActivity caps an entity's recent-activity log.
const maxRecentActivity = 20

// Preferences holds a user's settings. Each field merges independently.
type Preferences struct {
	Theme         string            `json:"theme"`
	Notifications bool              `json:"notifications"`
	Privacy       map[string]string `json:"privacy,omitempty"`
	Display       map[string]string `json:"display,omitempty"`
}

// PreferencesPatch is a partial preferences update. Absent fields leave the
// stored value untouched; Notifications is a pointer so an omitted flag is
// distinguishable from an explicit false.
type PreferencesPatch struct {
	Theme         string            `json:"theme,omitempty"`
	Notifications *bool             `json:"notifications,omitempty"`
	Privacy       map[string]string `json:"privacy,omitempty"`
	Display       map[string]string `json:"display,omitempty"`
}

// UserStats is the aggregate the user level derives from.
type UserStats struct {
	Completions  int `json:"completions"`
	Reviews      int `json:"reviews"`
	Ratings      int `json:"ratings"`
	Achievements int `json:"achievements"`
}

// TotalScore is the weighted sum of the user's activity counts.
func (s UserStats) TotalScore() int {
	return s.Completions*10 + s.Reviews*5 + s.Ratings*2 + s.Achievements*3
}

// Level is floor(sqrt(totalScore/100)) + 1.
func (s UserStats) Level() int {
	return int(math.Sqrt(float64(s.TotalScore())/100)) + 1
}

// ExperienceToNextLevel is the score span of the current level:
// level²×100 − (level−1)²×100.
func (s UserStats) ExperienceToNextLevel() int {
	level := s.Level()
	return level*level*100 - (level-1)*(level-1)*100
}

// Activity is one entry in a user's capped recent-activity log.
type Activity struct {
	Type      string    `json:"type"`
	TargetID  string    `json:"target_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// User represents a registered user with library, social, and privacy state.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"display_name,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`

	Preferences Preferences `json:"preferences"`
	Stats       UserStats   `json:"stats"`

	Library   []string `json:"library,omitempty"`
	Wishlist  []string `json:"wishlist,omitempty"`
	Favorites []string `json:"favorites,omitempty"`
	Friends   []string `json:"friends,omitempty"`
	Blocked   []string `json:"blocked,omitempty"`

	RecentActivity []Activity `json:"recent_activity,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AddFriend adds the given user to the friends set. A user cannot friend
// themselves, a blocked user, or an existing friend.
func (u *User) AddFriend(friendID string) (*Event, error) {
	if friendID == u.ID {
		return nil, apperrors.InvalidInput("cannot add yourself as a friend")
	}
	if contains(u.Blocked, friendID) {
		return nil, apperrors.Conflict("cannot add a blocked user as a friend")
	}
	if contains(u.Friends, friendID) {
		return nil, apperrors.AlreadyExists("friend", "id", friendID)
	}

	u.Friends = append(u.Friends, friendID)
	u.touch("friend_added", friendID)

	return newEvent(EventUserFriendAdded, "user", u.ID, map[string]any{
		"friend_id": friendID,
	}), nil
}

// RemoveFriend drops the given user from the friends set.
func (u *User) RemoveFriend(friendID string) (*Event, error) {
	if !contains(u.Friends, friendID) {
		return nil, apperrors.NotFound("friend", friendID)
	}
	u.Friends = remove(u.Friends, friendID)
	u.touch("friend_removed", friendID)

	return newEvent(EventUserFriendRemoved, "user", u.ID, map[string]any{
		"friend_id": friendID,
	}), nil
}

// Block adds the given user to the blocked set and removes any existing
// friendship.
func (u *User) Block(targetID string) (*Event, error) {
	if targetID == u.ID {
		return nil, apperrors.InvalidInput("cannot block yourself")
	}
	if contains(u.Blocked, targetID) {
		return nil, apperrors.AlreadyExists("block", "id", targetID)
	}

	u.Friends = remove(u.Friends, targetID)
	u.Blocked = append(u.Blocked, targetID)
	u.touch("user_blocked", targetID)

	return newEvent(EventUserBlocked, "user", u.ID, map[string]any{
		"target_id": targetID,
	}), nil
}

// Unblock drops the given user from the blocked set.
func (u *User) Unblock(targetID string) (*Event, error) {
	if !contains(u.Blocked, targetID) {
		return nil, apperrors.NotFound("block", targetID)
	}
	u.Blocked = remove(u.Blocked, targetID)
	u.touch("user_unblocked", targetID)

	return newEvent(EventUserUnblocked, "user", u.ID, map[string]any{
		"target_id": targetID,
	}), nil
}

// AddToWishlist adds a game to the wishlist. Owned games are rejected.
func (u *User) AddToWishlist(gameID string) (*Event, error) {
	if contains(u.Library, gameID) {
		return nil, apperrors.Conflict("game is already in the library")
	}
	if contains(u.Wishlist, gameID) {
		return nil, apperrors.AlreadyExists("wishlist entry", "game_id", gameID)
	}

	u.Wishlist = append(u.Wishlist, gameID)
	u.touch("wishlist_added", gameID)

	return newEvent(EventUserWishlistAdded, "user", u.ID, map[string]any{
		"game_id": gameID,
	}), nil
}

// RemoveFromWishlist drops a game from the wishlist.
func (u *User) RemoveFromWishlist(gameID string) (*Event, error) {
	if !contains(u.Wishlist, gameID) {
		return nil, apperrors.NotFound("wishlist entry", gameID)
	}
	u.Wishlist = remove(u.Wishlist, gameID)
	u.touch("wishlist_removed", gameID)

	return newEvent(EventUserWishlistRemoved, "user", u.ID, map[string]any{
		"game_id": gameID,
	}), nil
}

// AddToLibrary records game ownership and clears any wishlist entry for it.
func (u *User) AddToLibrary(gameID string) (*Event, error) {
	if contains(u.Library, gameID) {
		return nil, apperrors.AlreadyExists("library entry", "game_id", gameID)
	}

	u.Library = append(u.Library, gameID)
	u.Wishlist = remove(u.Wishlist, gameID)
	u.touch("library_added", gameID)

	return newEvent(EventUserLibraryAdded, "user", u.ID, map[string]any{
		"game_id": gameID,
	}), nil
}

// ToggleFavorite adds or removes a game from the favorites set.
func (u *User) ToggleFavorite(gameID string) bool {
	if contains(u.Favorites, gameID) {
		u.Favorites = remove(u.Favorites, gameID)
		u.touch("favorite_removed", gameID)
		return false
	}
	u.Favorites = append(u.Favorites, gameID)
	u.touch("favorite_added", gameID)
	return true
}

// MergePreferences applies the set fields of p over the current preferences.
// Privacy and display entries merge key by key; fields absent from the patch
// keep their stored value.
func (u *User) MergePreferences(p PreferencesPatch) *Event {
	if p.Theme != "" {
		u.Preferences.Theme = p.Theme
	}
	if p.Notifications != nil {
		u.Preferences.Notifications = *p.Notifications
	}

	for k, v := range p.Privacy {
		if u.Preferences.Privacy == nil {
			u.Preferences.Privacy = make(map[string]string)
		}
		u.Preferences.Privacy[k] = v
	}
	for k, v := range p.Display {
		if u.Preferences.Display == nil {
			u.Preferences.Display = make(map[string]string)
		}
		u.Preferences.Display[k] = v
	}
	u.UpdatedAt = time.Now().UTC()

	return newEvent(EventUserPreferencesSaved, "user", u.ID, nil)
}

// CanPerformAction resolves a privacy capability check. Self-access and an
// empty requester are always allowed; blocked requesters are always denied;
// otherwise the action's visibility setting decides (public allow, friends
// only for friends, private deny). An unconfigured action defaults to allow.
func (u *User) CanPerformAction(action, requesterID string) bool {
	if requesterID == "" || requesterID == u.ID {
		return true
	}
	if contains(u.Blocked, requesterID) {
		return false
	}

	visibility, ok := u.Preferences.Privacy[action]
	if !ok {
		return true
	}
	switch visibility {
	case VisibilityPublic:
		return true
	case VisibilityFriends:
		return contains(u.Friends, requesterID)
	case VisibilityPrivate:
		return false
	default:
		return true
	}
}

// touch bumps UpdatedAt and appends to the capped activity log.
func (u *User) touch(activityType, targetID string) {
	now := time.Now().UTC()
	u.UpdatedAt = now
	u.RecentActivity = append(u.RecentActivity, Activity{
		Type:      activityType,
		TargetID:  targetID,
		Timestamp: now,
	})
	if len(u.RecentActivity) > maxRecentActivity {
		u.RecentActivity = u.RecentActivity[len(u.RecentActivity)-maxRecentActivity:]
	}
}
