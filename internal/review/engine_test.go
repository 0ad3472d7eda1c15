package review_test

import (
	"testing"

	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/culturebot/culturebot/internal/review"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guildID   = snowflake.ID(100)
	authorID  = snowflake.ID(200)
	copierID  = snowflake.ID(300)
	testMedia = "550"
)

func originalReview(comment string) *types.Review {
	original := &types.Review{
		GuildID:   guildID,
		UserID:    authorID,
		Username:  "alice",
		MediaKind: enum.MediaKindMovie,
		MediaID:   testMedia,
		Score:     5,
	}
	if comment != "" {
		original.Comment = &comment
	}

	return original
}

func requester() review.Identity {
	return review.Identity{
		UserID:   copierID,
		Username: "bob",
		GuildID:  guildID,
	}
}

func strPtr(s string) *string {
	return &s
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    review.Mode
		wantErr bool
	}{
		{name: "share", input: "share", want: review.ModeShare},
		{name: "quote", input: "quote", want: review.ModeQuote},
		{name: "cosign", input: "cosign", want: review.ModeCosign},
		{name: "unknown", input: "steal", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mode, err := review.ParseMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, review.ErrUnknownMode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestPlanDerivationValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing original", func(t *testing.T) {
		t.Parallel()

		_, err := review.PlanDerivation(nil, nil, review.Request{
			Mode:      review.ModeShare,
			Requester: requester(),
		})
		assert.ErrorIs(t, err, review.ErrOriginalNotFound)
	})

	t.Run("own review", func(t *testing.T) {
		t.Parallel()

		original := originalReview("Great film")
		self := requester()
		self.UserID = authorID

		for _, mode := range []review.Mode{review.ModeShare, review.ModeQuote, review.ModeCosign} {
			_, err := review.PlanDerivation(original, nil, review.Request{
				Mode:      mode,
				Requester: self,
			})
			assert.ErrorIs(t, err, review.ErrSelfDerivation, "mode %s", mode)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Parallel()

		_, err := review.PlanDerivation(originalReview(""), nil, review.Request{
			Mode:      review.Mode("steal"),
			Requester: requester(),
		})
		assert.ErrorIs(t, err, review.ErrUnknownMode)
	})

	t.Run("blank quote comment", func(t *testing.T) {
		t.Parallel()

		for _, comment := range []string{"", "   ", "\n\t "} {
			_, err := review.PlanDerivation(originalReview("Great film"), nil, review.Request{
				Mode:      review.ModeQuote,
				Requester: requester(),
				Comment:   strPtr(comment),
			})
			assert.ErrorIs(t, err, review.ErrEmptyComment, "comment %q", comment)
		}
	})
}

func TestPlanDerivationShare(t *testing.T) {
	t.Parallel()

	t.Run("no existing review persists immediately", func(t *testing.T) {
		t.Parallel()

		original := originalReview("Great film")

		plan, err := review.PlanDerivation(original, nil, review.Request{
			Mode:      review.ModeShare,
			Requester: requester(),
		})
		require.NoError(t, err)
		require.True(t, plan.Terminal())

		record := plan.Review
		assert.Equal(t, copierID, record.UserID)
		assert.Equal(t, guildID, record.GuildID)
		assert.Equal(t, enum.MediaKindMovie, record.MediaKind)
		assert.Equal(t, testMedia, record.MediaID)
		assert.Equal(t, 5, record.Score)
		assert.Nil(t, record.Comment)
		assert.False(t, record.IsQuote)
		require.NotNil(t, record.SharedFromUserID)
		assert.Equal(t, authorID, *record.SharedFromUserID)
		require.NotNil(t, record.SharedFromComment)
		assert.Equal(t, "Great film", *record.SharedFromComment)
		assert.Equal(t, review.SyncEditOriginal, plan.Sync)
	})

	t.Run("existing review requires confirmation", func(t *testing.T) {
		t.Parallel()

		original := originalReview("")
		existing := &types.Review{
			GuildID:   guildID,
			UserID:    copierID,
			MediaKind: enum.MediaKindGame,
			MediaID:   testMedia,
			Score:     3,
		}

		plan, err := review.PlanDerivation(original, existing, review.Request{
			Mode:      review.ModeCosign,
			Requester: requester(),
		})
		require.NoError(t, err)
		assert.False(t, plan.Terminal())
		assert.True(t, plan.RequiresConfirmation)
		assert.Equal(t, 5, plan.ReplacementScore)
		assert.Equal(t, 3, plan.ExistingScore)
	})

	t.Run("confirmed replacement persists", func(t *testing.T) {
		t.Parallel()

		original := originalReview("")
		existing := &types.Review{UserID: copierID, Score: 3}

		plan, err := review.PlanDerivation(original, existing, review.Request{
			Mode:      review.ModeShare,
			Requester: requester(),
			Confirmed: true,
		})
		require.NoError(t, err)
		require.True(t, plan.Terminal())
		assert.Equal(t, 5, plan.Review.Score)
	})

	t.Run("original without comment leaves snapshot unset", func(t *testing.T) {
		t.Parallel()

		plan, err := review.PlanDerivation(originalReview(""), nil, review.Request{
			Mode:      review.ModeShare,
			Requester: requester(),
		})
		require.NoError(t, err)
		require.True(t, plan.Terminal())
		assert.Nil(t, plan.Review.SharedFromComment)
	})
}

func TestPlanDerivationQuote(t *testing.T) {
	t.Parallel()

	t.Run("comment not collected yet", func(t *testing.T) {
		t.Parallel()

		plan, err := review.PlanDerivation(originalReview("Great film"), nil, review.Request{
			Mode:      review.ModeQuote,
			Requester: requester(),
		})
		require.NoError(t, err)
		assert.False(t, plan.Terminal())
		assert.True(t, plan.RequiresComment)
		assert.Empty(t, plan.CommentPrefill)
	})

	t.Run("existing comment offered as prefill", func(t *testing.T) {
		t.Parallel()

		existing := &types.Review{
			UserID:  copierID,
			Score:   2,
			Comment: strPtr("My old take"),
		}

		plan, err := review.PlanDerivation(originalReview("Great film"), existing, review.Request{
			Mode:      review.ModeQuote,
			Requester: requester(),
		})
		require.NoError(t, err)
		assert.True(t, plan.RequiresComment)
		assert.Equal(t, "My old take", plan.CommentPrefill)
	})

	t.Run("submitted comment persists trimmed", func(t *testing.T) {
		t.Parallel()

		original := originalReview("Great film")

		plan, err := review.PlanDerivation(original, nil, review.Request{
			Mode:      review.ModeQuote,
			Requester: requester(),
			Comment:   strPtr("  Agreed!  "),
		})
		require.NoError(t, err)
		require.True(t, plan.Terminal())

		record := plan.Review
		require.NotNil(t, record.Comment)
		assert.Equal(t, "Agreed!", *record.Comment)
		assert.True(t, record.IsQuote)
		assert.Equal(t, 5, record.Score)
		require.NotNil(t, record.SharedFromComment)
		assert.Equal(t, "Great film", *record.SharedFromComment)
		assert.Equal(t, review.SyncNewBroadcast, plan.Sync)
	})

	t.Run("snapshot survives later edits to the original", func(t *testing.T) {
		t.Parallel()

		original := originalReview("Great film")

		plan, err := review.PlanDerivation(original, nil, review.Request{
			Mode:      review.ModeQuote,
			Requester: requester(),
			Comment:   strPtr("Agreed!"),
		})
		require.NoError(t, err)
		require.True(t, plan.Terminal())

		*original.Comment = "Actually mediocre"
		assert.Equal(t, "Great film", *plan.Review.SharedFromComment)
	})
}
