package domain

import (
	"time"

	apperrors "github.com/gamevault/gamevault/pkg/errors"
)

// maxEditHistory caps the per-review edit log.
const maxEditHistory = 10

// ReviewEdit is one entry in a review's capped edit history.
type ReviewEdit struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	EditedAt time.Time `json:"edited_at"`
}

// Review is a user's review of a game. One active review per (game, user)
// pair; the persistence layer enforces this with a unique constraint.
type Review struct {
	ID     string `json:"id"`
	GameID string `json:"game_id"`
	UserID string `json:"user_id"`

	Rating      int      `json:"rating"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	HoursPlayed float64  `json:"hours_played"`
	Verified    bool     `json:"verified"`
	Completed   bool     `json:"completed"`
	Pros        []string `json:"pros,omitempty"`
	Cons        []string `json:"cons,omitempty"`

	// Vote sets. A voter holds at most one vote state at a time.
	HelpfulVoters   []string `json:"helpful_voters,omitempty"`
	UnhelpfulVoters []string `json:"unhelpful_voters,omitempty"`

	EditHistory []ReviewEdit `json:"edit_history,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HelpfulScore is helpful votes minus unhelpful votes.
func (r *Review) HelpfulScore() int {
	return len(r.HelpfulVoters) - len(r.UnhelpfulVoters)
}

// VoteHelpful casts a helpful vote for the voter. Casting the opposite vote
// atomically clears the prior one; repeating the same vote is a no-op.
func (r *Review) VoteHelpful(voterID string) (*Event, error) {
	return r.vote(voterID, true)
}

// VoteUnhelpful casts an unhelpful vote for the voter.
func (r *Review) VoteUnhelpful(voterID string) (*Event, error) {
	return r.vote(voterID, false)
}

func (r *Review) vote(voterID string, helpful bool) (*Event, error) {
	if voterID == r.UserID {
		return nil, apperrors.InvalidInput("cannot vote on your own review")
	}

	same, opposite := &r.HelpfulVoters, &r.UnhelpfulVoters
	voteType := "helpful"
	if !helpful {
		same, opposite = opposite, same
		voteType = "unhelpful"
	}

	if contains(*same, voterID) {
		return nil, nil
	}
	*opposite = remove(*opposite, voterID)
	*same = append(*same, voterID)
	r.UpdatedAt = time.Now().UTC()

	return newEvent(EventReviewVoted, "review", r.ID, map[string]any{
		"voter_id":      voterID,
		"vote":          voteType,
		"helpful_score": r.HelpfulScore(),
	}), nil
}

// Edit replaces title and body, recording the previous content in the capped
// edit history.
func (r *Review) Edit(title, body string) *Event {
	now := time.Now().UTC()
	r.EditHistory = append(r.EditHistory, ReviewEdit{Title: r.Title, Body: r.Body, EditedAt: now})
	if len(r.EditHistory) > maxEditHistory {
		r.EditHistory = r.EditHistory[len(r.EditHistory)-maxEditHistory:]
	}
	r.Title = title
	r.Body = body
	r.UpdatedAt = now

	return newEvent(EventReviewEdited, "review", r.ID, map[string]any{
		"edit_count": len(r.EditHistory),
	})
}

// Quality score tiers. The score is a weighted sum over content length,
// helpfulness, playtime credibility, and completeness flags, capped at 100.
const maxQualityScore = 100

// QualityScore computes the 0-100 review quality score.
func (r *Review) QualityScore() int {
	score := contentLengthPoints(len(r.Body))
	score += r.helpfulnessPoints()
	score += playtimePoints(r.HoursPlayed)

	if r.Verified {
		score += 10
	}
	if r.Completed {
		score += 10
	}
	switch {
	case len(r.Pros) > 0 && len(r.Cons) > 0:
		score += 10
	case len(r.Pros) > 0 || len(r.Cons) > 0:
		score += 5
	}

	if score > maxQualityScore {
		score = maxQualityScore
	}
	return score
}

// contentLengthPoints awards 5/10/15/20 by body length.
func contentLengthPoints(n int) int {
	switch {
	case n >= 2000:
		return 20
	case n >= 1000:
		return 15
	case n >= 500:
		return 10
	case n >= 100:
		return 5
	default:
		return 0
	}
}

// helpfulnessPoints scales the helpful-vote ratio by a vote-volume tier
// (10/20/30 max points).
func (r *Review) helpfulnessPoints() int {
	total := len(r.HelpfulVoters) + len(r.UnhelpfulVoters)
	if total == 0 {
		return 0
	}

	var maxPoints int
	switch {
	case total >= 50:
		maxPoints = 30
	case total >= 20:
		maxPoints = 20
	case total >= 5:
		maxPoints = 10
	default:
		return 0
	}

	ratio := float64(len(r.HelpfulVoters)) / float64(total)
	return int(ratio * float64(maxPoints))
}

// playtimePoints awards 5/10/15/20 by hours played.
func playtimePoints(hours float64) int {
	switch {
	case hours >= 100:
		return 20
	case hours >= 50:
		return 15
	case hours >= 20:
		return 10
	case hours >= 5:
		return 5
	default:
		return 0
	}
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func remove(set []string, s string) []string {
	for i, v := range set {
		if v == s {
			return append(set[:i], set[i+1:]...)
		}
	}
	return set
}
