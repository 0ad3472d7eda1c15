package review_test

import (
	"testing"

	"github.com/culturebot/culturebot/internal/bot/customid"
	reviewview "github.com/culturebot/culturebot/internal/bot/views/review"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	reviewdomain "github.com/culturebot/culturebot/internal/review"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aliceReview() *types.Review {
	comment := "I am Jack's complete lack of surprise."
	return &types.Review{
		GuildID:   snowflake.ID(1),
		UserID:    snowflake.ID(10),
		Username:  "alice",
		MediaKind: enum.MediaKindMovie,
		MediaID:   "550",
		Score:     5,
		Comment:   &comment,
	}
}

func fightClub() *content.Media {
	return &content.Media{
		ID:    "550",
		Kind:  enum.MediaKindMovie,
		Title: "Fight Club",
	}
}

// updateButtons collects the buttons rendered on a message update's
// action rows.
func updateButtons(t *testing.T, update discord.MessageUpdate) []discord.ButtonComponent {
	t.Helper()
	require.NotNil(t, update.Components)

	var buttons []discord.ButtonComponent
	for _, row := range *update.Components {
		actionRow, ok := row.(discord.ActionRowComponent)
		if !ok {
			continue
		}
		for _, component := range actionRow {
			if button, ok := component.(discord.ButtonComponent); ok {
				buttons = append(buttons, button)
			}
		}
	}

	return buttons
}

func TestBuilderButtons(t *testing.T) {
	t.Parallel()

	builder := reviewview.NewBuilder(aliceReview(), fightClub(), nil)
	buttons := builder.Buttons()
	require.Len(t, buttons, 4)

	wantVerbs := []customid.Verb{
		customid.VerbShare,
		customid.VerbCosign,
		customid.VerbQuoteButton,
		customid.VerbAddReview,
	}

	for i, component := range buttons {
		button, ok := component.(discord.ButtonComponent)
		require.True(t, ok)

		action, err := customid.Decode(button.CustomID)
		require.NoError(t, err)
		assert.Equal(t, wantVerbs[i], action.Verb)
		assert.Equal(t, enum.MediaKindMovie, action.Kind)
		assert.Equal(t, customid.ElementButton, action.Element)
		assert.Equal(t, "550", action.MediaID)
		assert.Equal(t, snowflake.ID(10), action.AuthorID)
	}

	share, ok := buttons[0].(discord.ButtonComponent)
	require.True(t, ok)
	assert.Equal(t, "Share This Review", share.Label)
}

func TestBuilderEmbed(t *testing.T) {
	t.Parallel()

	counts := types.DerivationCounts{ShareCount: 2, QuoteCount: 1}
	embed := reviewview.NewBuilder(aliceReview(), fightClub(), &counts).Embed()

	assert.Contains(t, embed.Title, "alice")
	assert.Contains(t, embed.Title, "Fight Club")

	var endorsements string
	for _, field := range embed.Fields {
		if field.Name == reviewview.EndorsementsFieldName {
			endorsements = field.Value
		}
	}
	assert.Contains(t, endorsements, "2 co-signs")
	assert.Contains(t, endorsements, "1 quotes")
}

func TestConfirmBuilder(t *testing.T) {
	t.Parallel()

	plan := &reviewdomain.DerivationPlan{
		RequiresConfirmation: true,
		ReplacementScore:     5,
		ExistingScore:        3,
	}

	t.Run("share prompt", func(t *testing.T) {
		t.Parallel()

		update := reviewview.NewConfirmBuilder(aliceReview(), plan, reviewdomain.ModeShare).Build().Build()
		require.NotNil(t, update.Content)
		assert.Contains(t, *update.Content, "⭐️⭐️⭐️▪️▪️")
		assert.Contains(t, *update.Content, "⭐️⭐️⭐️⭐️⭐️")
		assert.Contains(t, *update.Content, "alice")

		buttons := updateButtons(t, update)
		require.Len(t, buttons, 2)

		confirm, err := customid.Decode(buttons[0].CustomID)
		require.NoError(t, err)
		assert.Equal(t, customid.VerbConfirmShare, confirm.Verb)
		assert.Equal(t, string(reviewdomain.ModeShare), confirm.Mode)
		assert.Equal(t, "Replace my review", buttons[0].Label)

		cancel, err := customid.Decode(buttons[1].CustomID)
		require.NoError(t, err)
		assert.Equal(t, customid.VerbCancelShare, cancel.Verb)
		assert.Equal(t, "Cancel", buttons[1].Label)
	})

	t.Run("co-sign prompt routes to its own confirmation", func(t *testing.T) {
		t.Parallel()

		update := reviewview.NewConfirmBuilder(aliceReview(), plan, reviewdomain.ModeCosign).Build().Build()
		buttons := updateButtons(t, update)
		require.Len(t, buttons, 2)

		confirm, err := customid.Decode(buttons[0].CustomID)
		require.NoError(t, err)
		assert.Equal(t, customid.VerbConfirmCosign, confirm.Verb)
		assert.Equal(t, string(reviewdomain.ModeCosign), confirm.Mode)
	})
}
