package domain

import (
	"math"
	"sort"
	"time"

	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// Price holds the pricing record for a game. Amounts are in cents.
type Price struct {
	Current  int64  `json:"current"`
	Original int64  `json:"original"`
	Currency string `json:"currency"`
	Discount int    `json:"discount"`
	IsFree   bool   `json:"is_free"`
}

// Rating is a single user rating entry for a game.
type Rating struct {
	Value     float64   `json:"value"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GameStats is the derived aggregate for a game. AverageRating is always the
// mean of the current rating entries rounded to one decimal; it is recomputed
// on every rating mutation, never lazily.
type GameStats struct {
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
	ReviewCount   int     `json:"review_count"`
	WishlistCount int     `json:"wishlist_count"`
}

// Game represents a game in the catalog.
type Game struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Developer   string     `json:"developer"`
	Publisher   string     `json:"publisher"`
	Genres      []string   `json:"genres"`
	Tags        []string   `json:"tags"`
	Platforms   []string   `json:"platforms"`
	Price       Price      `json:"price"`
	Stats       GameStats  `json:"stats"`
	Ratings     []Rating   `json:"ratings,omitempty"`
	Activity    []Activity `json:"recent_activity,omitempty"`
	ReleaseDate time.Time  `json:"release_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Similarity weights.
const (
	weightSharedGenre    = 3
	weightSharedTag      = 2
	weightSameDeveloper  = 5
	weightSamePublisher  = 3
	weightSharedPlatform = 1
)

// AddRating records a rating in [0,10] for the given user and recomputes the
// aggregate. A user holds at most one rating per game: rating again replaces
// the previous entry. Out-of-range values are rejected without mutating state.
func (g *Game) AddRating(value float64, userID string) (*Event, error) {
	if value < 0 || value > 10 {
		return nil, apperrors.InvalidInput("rating must be between 0 and 10")
	}

	now := time.Now().UTC()
	replaced := false
	for i := range g.Ratings {
		if g.Ratings[i].UserID == userID {
			g.Ratings[i].Value = value
			g.Ratings[i].CreatedAt = now
			replaced = true
			break
		}
	}
	if !replaced {
		g.Ratings = append(g.Ratings, Rating{Value: value, UserID: userID, CreatedAt: now})
	}

	g.recomputeRatingStats()
	g.logActivity("rating-added", userID)
	g.UpdatedAt = now

	return newEvent(EventGameRatingAdded, "game", g.ID, map[string]any{
		"user_id":        userID,
		"value":          value,
		"average_rating": g.Stats.AverageRating,
	}), nil
}

// RemoveRating drops the given user's rating, if present, and recomputes the
// aggregate.
func (g *Game) RemoveRating(userID string) (*Event, error) {
	for i := range g.Ratings {
		if g.Ratings[i].UserID == userID {
			g.Ratings = append(g.Ratings[:i], g.Ratings[i+1:]...)
			g.recomputeRatingStats()
			g.logActivity("rating-removed", userID)
			g.UpdatedAt = time.Now().UTC()
			return newEvent(EventGameRatingRemoved, "game", g.ID, map[string]any{
				"user_id":        userID,
				"average_rating": g.Stats.AverageRating,
			}), nil
		}
	}
	return nil, apperrors.NotFound("rating", userID)
}

// SetPrice updates the price record.
func (g *Game) SetPrice(p Price) *Event {
	g.Price = p
	g.logActivity("price-changed", "")
	g.UpdatedAt = time.Now().UTC()
	return newEvent(EventGamePriceChanged, "game", g.ID, map[string]any{
		"current":  p.Current,
		"discount": p.Discount,
	})
}

// logActivity appends to the game's capped activity log.
func (g *Game) logActivity(activityType, targetID string) {
	g.Activity = append(g.Activity, Activity{
		Type:      activityType,
		TargetID:  targetID,
		Timestamp: time.Now().UTC(),
	})
	if len(g.Activity) > maxRecentActivity {
		g.Activity = g.Activity[len(g.Activity)-maxRecentActivity:]
	}
}

// recomputeRatingStats rescans the rating entries and updates the aggregate.
// Zero entries yields an average of 0.
func (g *Game) recomputeRatingStats() {
	g.Stats.RatingCount = len(g.Ratings)
	if len(g.Ratings) == 0 {
		g.Stats.AverageRating = 0
		return
	}
	var sum float64
	for _, r := range g.Ratings {
		sum += r.Value
	}
	g.Stats.AverageRating = math.Round(sum/float64(len(g.Ratings))*10) / 10
}

// SimilarityTo computes the pairwise similarity score between two games:
// 3 per shared genre, 2 per shared tag, 5 for the same developer, 3 for the
// same publisher, 1 per shared platform.
func (g *Game) SimilarityTo(other *Game) int {
	score := weightSharedGenre * sharedCount(g.Genres, other.Genres)
	score += weightSharedTag * sharedCount(g.Tags, other.Tags)
	if g.Developer != "" && g.Developer == other.Developer {
		score += weightSameDeveloper
	}
	if g.Publisher != "" && g.Publisher == other.Publisher {
		score += weightSamePublisher
	}
	score += weightSharedPlatform * sharedCount(g.Platforms, other.Platforms)
	return score
}

// SimilarGames returns the top-limit candidates by similarity to the subject.
// The subject itself and zero-score candidates are never included; ties keep
// the candidates' original order.
func SimilarGames(subject *Game, candidates []*Game, limit int) []*Game {
	type scored struct {
		game  *Game
		score int
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == subject.ID {
			continue
		}
		if s := subject.SimilarityTo(c); s > 0 {
			ranked = append(ranked, scored{game: c, score: s})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := make([]*Game, len(ranked))
	for i, r := range ranked {
		result[i] = r.game
	}
	return result
}

func sharedCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	count := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			count++
			delete(set, s) // duplicates in b count once
		}
	}
	return count
}
