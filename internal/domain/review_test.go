package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview_VoteHelpful(t *testing.T) {
	r := &Review{ID: "r1", UserID: "author"}

	ev, err := r.VoteHelpful("voter1")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, EventReviewVoted, ev.Type)
	assert.Equal(t, 1, r.HelpfulScore())
}

func TestReview_OppositeVoteMovesAtomically(t *testing.T) {
	r := &Review{ID: "r1", UserID: "author"}

	_, err := r.VoteHelpful("voter1")
	require.NoError(t, err)

	_, err = r.VoteUnhelpful("voter1")
	require.NoError(t, err)

	// Exactly one active vote for the voter.
	assert.Empty(t, r.HelpfulVoters)
	assert.Equal(t, []string{"voter1"}, r.UnhelpfulVoters)
	assert.Equal(t, -1, r.HelpfulScore())
}

func TestReview_RepeatVoteIsNoOp(t *testing.T) {
	r := &Review{ID: "r1", UserID: "author"}

	_, err := r.VoteHelpful("voter1")
	require.NoError(t, err)

	ev, err := r.VoteHelpful("voter1")
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Equal(t, []string{"voter1"}, r.HelpfulVoters)
}

func TestReview_AuthorCannotVote(t *testing.T) {
	r := &Review{ID: "r1", UserID: "author"}

	_, err := r.VoteHelpful("author")
	assert.Error(t, err)
}

func TestReview_VoteCountsMatchSets(t *testing.T) {
	r := &Review{ID: "r1", UserID: "author"}

	voters := []string{"a", "b", "c", "d"}
	for _, v := range voters {
		_, err := r.VoteHelpful(v)
		require.NoError(t, err)
	}
	_, err := r.VoteUnhelpful("c")
	require.NoError(t, err)
	_, err = r.VoteUnhelpful("e")
	require.NoError(t, err)

	assert.Len(t, r.HelpfulVoters, 3)
	assert.Len(t, r.UnhelpfulVoters, 2)
	assert.Equal(t, 1, r.HelpfulScore())
}

func TestReview_Edit_CapsHistory(t *testing.T) {
	r := &Review{ID: "r1", Title: "v0", Body: "body0"}

	for i := 0; i < maxEditHistory+5; i++ {
		r.Edit("title", "body")
	}

	assert.Len(t, r.EditHistory, maxEditHistory)
}

func TestReview_QualityScore_Components(t *testing.T) {
	// Bare minimum review scores zero.
	assert.Equal(t, 0, (&Review{}).QualityScore())

	// Content length tiers.
	assert.Equal(t, 5, (&Review{Body: strings.Repeat("x", 100)}).QualityScore())
	assert.Equal(t, 10, (&Review{Body: strings.Repeat("x", 500)}).QualityScore())
	assert.Equal(t, 15, (&Review{Body: strings.Repeat("x", 1000)}).QualityScore())
	assert.Equal(t, 20, (&Review{Body: strings.Repeat("x", 2000)}).QualityScore())

	// Flags.
	assert.Equal(t, 10, (&Review{Verified: true}).QualityScore())
	assert.Equal(t, 10, (&Review{Completed: true}).QualityScore())
	assert.Equal(t, 5, (&Review{Pros: []string{"great combat"}}).QualityScore())
	assert.Equal(t, 10, (&Review{Pros: []string{"combat"}, Cons: []string{"grind"}}).QualityScore())

	// Playtime tiers.
	assert.Equal(t, 5, (&Review{HoursPlayed: 5}).QualityScore())
	assert.Equal(t, 20, (&Review{HoursPlayed: 150}).QualityScore())
}

func TestReview_QualityScore_Helpfulness(t *testing.T) {
	r := &Review{}
	for i := 0; i < 8; i++ {
		r.HelpfulVoters = append(r.HelpfulVoters, string(rune('a'+i)))
	}
	r.UnhelpfulVoters = []string{"x", "y"}

	// 10 votes total → tier max 10; ratio 0.8 → 8 points.
	assert.Equal(t, 8, r.QualityScore())
}

func TestReview_QualityScore_ClampedAt100(t *testing.T) {
	r := &Review{
		Body:        strings.Repeat("x", 3000),
		HoursPlayed: 200,
		Verified:    true,
		Completed:   true,
		Pros:        []string{"a"},
		Cons:        []string{"b"},
	}
	for i := 0; i < 60; i++ {
		r.HelpfulVoters = append(r.HelpfulVoters, strings.Repeat("v", i+1))
	}

	// 20 + 30 + 20 + 10 + 10 + 10 = 100; must never exceed it.
	assert.Equal(t, 100, r.QualityScore())
}
