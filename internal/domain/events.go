package domain

// Event type constants for entity mutations.
const (
	EventGameRatingAdded   = "game.rating-added"
	EventGameRatingRemoved = "game.rating-removed"
	EventGamePriceChanged  = "game.price-changed"

	EventReviewVoted   = "review.voted"
	EventReviewEdited  = "review.edited"
	EventReviewCreated = "review.created"

	EventUserFriendAdded      = "user.friend-added"
	EventUserFriendRemoved    = "user.friend-removed"
	EventUserBlocked          = "user.blocked"
	EventUserUnblocked        = "user.unblocked"
	EventUserWishlistAdded    = "user.wishlist-added"
	EventUserWishlistRemoved  = "user.wishlist-removed"
	EventUserLibraryAdded     = "user.library-added"
	EventUserPreferencesSaved = "user.preferences-saved"
	EventUserRegistered       = "user.registered"

	EventContactSubmitted = "contact.submitted"
)

// Event is a domain event produced by an entity mutation. Entities return
// events instead of notifying observers themselves; the event layer decides
// who hears about them.
type Event struct {
	Type          string         `json:"type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Data          map[string]any `json:"data,omitempty"`
}

func newEvent(typ, aggregateType, aggregateID string, data map[string]any) *Event {
	return &Event{
		Type:          typ,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Data:          data,
	}
}
