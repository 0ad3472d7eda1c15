package review

import (
	"fmt"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/utils"
	"github.com/culturebot/culturebot/internal/database/types"
	reviewdomain "github.com/culturebot/culturebot/internal/review"
	"github.com/disgoorg/disgo/discord"
)

// ModeSelectBuilder creates the ephemeral prompt asking whether to share
// an existing review verbatim or quote it with a new comment.
type ModeSelectBuilder struct {
	original *types.Review
}

// NewModeSelectBuilder creates a new mode selection builder.
func NewModeSelectBuilder(original *types.Review) *ModeSelectBuilder {
	return &ModeSelectBuilder{original: original}
}

// Build creates the mode selection message.
func (b *ModeSelectBuilder) Build() *discord.MessageUpdateBuilder {
	selectID := customid.Action{
		Verb:     customid.VerbModeSelect,
		Kind:     b.original.MediaKind,
		Element:  customid.ElementSelect,
		MediaID:  b.original.MediaID,
		AuthorID: b.original.UserID,
	}

	return discord.NewMessageUpdateBuilder().
		SetContentf("How would you like to share **%s**'s review?", b.original.Username).
		AddActionRow(discord.NewStringSelectMenu(selectID.Encode(), "Choose how to share",
			discord.NewStringSelectMenuOption("Share as-is", string(reviewdomain.ModeShare)).
				WithDescription("Copy the score verbatim with no comment"),
			discord.NewStringSelectMenuOption("Quote with your own comment", string(reviewdomain.ModeQuote)).
				WithDescription("Copy the score and add what you think"),
		))
}

// ConfirmBuilder creates the replacement confirmation prompt shown when a
// share or co-sign would overwrite the user's existing review.
type ConfirmBuilder struct {
	original *types.Review
	plan     *reviewdomain.DerivationPlan
	mode     reviewdomain.Mode
}

// NewConfirmBuilder creates a new confirmation prompt builder.
func NewConfirmBuilder(original *types.Review, plan *reviewdomain.DerivationPlan, mode reviewdomain.Mode) *ConfirmBuilder {
	return &ConfirmBuilder{
		original: original,
		plan:     plan,
		mode:     mode,
	}
}

// Build creates the confirmation message. The prompt names the score that
// will replace the existing one.
func (b *ConfirmBuilder) Build() *discord.MessageUpdateBuilder {
	confirmVerb := customid.VerbConfirmShare
	if b.mode == reviewdomain.ModeCosign {
		confirmVerb = customid.VerbConfirmCosign
	}

	base := customid.Action{
		Kind:     b.original.MediaKind,
		Element:  customid.ElementButton,
		MediaID:  b.original.MediaID,
		AuthorID: b.original.UserID,
		Mode:     string(b.mode),
	}

	confirm := base
	confirm.Verb = confirmVerb

	cancel := base
	cancel.Verb = customid.VerbCancelShare

	return discord.NewMessageUpdateBuilder().
		SetContent(fmt.Sprintf(
			"You already reviewed this %s with %s\nReplacing it with **%s**'s score: %s\nAre you sure?",
			b.original.MediaKind.DisplayNoun(),
			utils.FormatStars(b.plan.ExistingScore, ""),
			b.original.Username,
			utils.FormatStars(b.plan.ReplacementScore, ""),
		)).
		AddActionRow(
			discord.NewDangerButton("Replace my review", confirm.Encode()),
			discord.NewSecondaryButton("Cancel", cancel.Encode()),
		)
}

// QuoteModalBuilder creates the text entry modal for quote comments.
type QuoteModalBuilder struct {
	original *types.Review
	prefill  string
}

// NewQuoteModalBuilder creates a new quote modal builder. prefill carries
// the requester's current comment as an editable starting point.
func NewQuoteModalBuilder(original *types.Review, prefill string) *QuoteModalBuilder {
	return &QuoteModalBuilder{
		original: original,
		prefill:  prefill,
	}
}

// Build creates the quote comment modal.
func (b *QuoteModalBuilder) Build() discord.ModalCreate {
	modalID := customid.Action{
		Verb:     customid.VerbQuoteModal,
		Kind:     b.original.MediaKind,
		Element:  customid.ElementModal,
		MediaID:  b.original.MediaID,
		AuthorID: b.original.UserID,
	}

	input := discord.NewTextInput(constants.QuoteCommentInputCustomID, discord.TextInputStyleParagraph, "Your comment").
		WithRequired(true).
		WithPlaceholder("What did you think?").
		WithMaxLength(constants.ReviewCommentInputMaxLength)
	if b.prefill != "" {
		input = input.WithValue(utils.Truncate(b.prefill, constants.ReviewCommentInputMaxLength))
	}

	return discord.NewModalCreateBuilder().
		SetCustomID(modalID.Encode()).
		SetTitle(fmt.Sprintf("Quote %s's review", b.original.Username)).
		AddActionRow(input).
		Build()
}
