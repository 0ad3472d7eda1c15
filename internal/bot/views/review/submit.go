package review

import (
	"fmt"
	"strconv"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/utils"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/disgo/discord"
)

// ScoreSelectBuilder creates the star rating prompt shown when a user
// starts a new review.
type ScoreSelectBuilder struct {
	media *content.Media
}

// NewScoreSelectBuilder creates a new score selection builder.
func NewScoreSelectBuilder(media *content.Media) *ScoreSelectBuilder {
	return &ScoreSelectBuilder{media: media}
}

// Build creates the score selection message.
func (b *ScoreSelectBuilder) Build() *discord.MessageUpdateBuilder {
	selectID := customid.Action{
		Verb:    customid.VerbReviewScore,
		Kind:    b.media.Kind,
		Element: customid.ElementSelect,
		MediaID: b.media.ID,
	}

	options := make([]discord.StringSelectMenuOption, 0, constants.ScoreMax)
	for score := constants.ScoreMin; score <= constants.ScoreMax; score++ {
		options = append(options,
			discord.NewStringSelectMenuOption(utils.FormatStars(score, ""), strconv.Itoa(score)).
				WithDescription(scoreDescription(b.media.Kind, score)))
	}

	return discord.NewMessageUpdateBuilder().
		SetContentf("How would you rate %s **%s**?", b.media.Kind.WithArticle(), b.media.Title).
		AddActionRow(discord.NewStringSelectMenu(selectID.Encode(), "Pick a score", options...))
}

// scoreDescription flavors each star choice with the media kind's noun.
func scoreDescription(kind enum.MediaKind, score int) string {
	noun := kind.DisplayNoun()

	switch score {
	case 1:
		return fmt.Sprintf("Not my kind of %s", noun)
	case 2:
		return "Had its moments"
	case 3:
		return fmt.Sprintf("A solid %s", noun)
	case 4:
		return "Really good, would recommend"
	default:
		return fmt.Sprintf("An all-time favorite %s", noun)
	}
}

// SubmitModalBuilder creates the review detail modal shown after a score
// is chosen. The modal's custom ID carries the chosen score so the
// submission handler can reconstruct the full review without any
// server-side session.
type SubmitModalBuilder struct {
	media *content.Media
	score int
}

// NewSubmitModalBuilder creates a new review submission modal builder.
func NewSubmitModalBuilder(media *content.Media, score int) *SubmitModalBuilder {
	return &SubmitModalBuilder{
		media: media,
		score: score,
	}
}

// Build creates the review detail modal. Games get an hours-played input
// and music gets a replayability input alongside the shared comment box.
func (b *SubmitModalBuilder) Build() discord.ModalCreate {
	modalID := customid.Action{
		Verb:    customid.VerbReviewModal,
		Kind:    b.media.Kind,
		Element: customid.ElementModal,
		MediaID: b.media.ID,
		Mode:    strconv.Itoa(b.score),
	}

	builder := discord.NewModalCreateBuilder().
		SetCustomID(modalID.Encode()).
		SetTitle(utils.Truncate("Review "+b.media.Title, constants.ReviewThreadNameMaxLength)).
		AddActionRow(
			discord.NewTextInput(constants.ReviewCommentInputCustomID, discord.TextInputStyleParagraph, "Your comment").
				WithRequired(false).
				WithPlaceholder("What did you think? (optional)").
				WithMaxLength(constants.ReviewCommentInputMaxLength),
		)

	switch b.media.Kind {
	case enum.MediaKindGame:
		builder.AddActionRow(
			discord.NewTextInput(constants.ReviewHoursInputCustomID, discord.TextInputStyleShort, "Hours played").
				WithRequired(false).
				WithPlaceholder("e.g. 40"))
	case enum.MediaKindMusic:
		builder.AddActionRow(
			discord.NewTextInput(constants.ReviewReplayInputCustomID, discord.TextInputStyleShort, "Replayability").
				WithRequired(false).
				WithPlaceholder("LOW, MEDIUM or HIGH"))
	case enum.MediaKindMovie, enum.MediaKindSeries:
	}

	return builder.Build()
}
