package review

import (
	"fmt"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/utils"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/disgoorg/disgo/discord"
)

// Builder creates the visual layout for a review broadcast message.
type Builder struct {
	review *types.Review
	media  *content.Media
	counts *types.DerivationCounts
}

// NewBuilder creates a new review message builder.
func NewBuilder(review *types.Review, media *content.Media, counts *types.DerivationCounts) *Builder {
	return &Builder{
		review: review,
		media:  media,
		counts: counts,
	}
}

// Embed creates the review embed with score, comment, attribution and
// derivation counters.
func (b *Builder) Embed() discord.Embed {
	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("%s %s reviewed %s", b.review.MediaKind.Emoji(), b.review.Username, b.media.Title)).
		SetDescription(utils.FormatStars(b.review.Score, "")).
		SetColor(constants.DefaultEmbedColor).
		SetFooter(constants.FooterText, "")

	if b.media.ImageURL != "" {
		embed.SetThumbnail(b.media.ImageURL)
	}

	if comment := b.review.CommentText(); comment != "" {
		embed.AddField("Comment", utils.Truncate(comment, constants.ReviewCommentInputMaxLength), false)
	}

	if b.review.HoursPlayed != nil {
		embed.AddField("Hours Played", fmt.Sprintf("%d", *b.review.HoursPlayed), true)
	}

	if b.review.Replayability != nil {
		embed.AddField("Replayability", string(*b.review.Replayability), true)
	}

	if line := b.attributionLine(); line != "" {
		embed.AddField("Attribution", line, false)
	}

	if b.counts != nil && b.counts.Total() > 0 {
		embed.AddField(EndorsementsFieldName, FormatEndorsements(b.counts), false)
	}

	return embed.Build()
}

// attributionLine renders where a derived review came from. Quotes show
// the snapshotted source comment; shares and co-signs just credit the
// author.
func (b *Builder) attributionLine() string {
	if !b.review.IsDerived() {
		return ""
	}

	author := ""
	if b.review.SharedFromUsername != nil {
		author = *b.review.SharedFromUsername
	}

	if b.review.IsQuote {
		line := fmt.Sprintf("Quoted from **%s**'s review", author)
		if b.review.SharedFromComment != nil {
			line += fmt.Sprintf("\n> %s", utils.Truncate(*b.review.SharedFromComment, 200))
		}
		return line
	}

	return fmt.Sprintf("Shared from **%s**'s review", author)
}

// EndorsementsFieldName titles the derivation counter field on broadcast
// embeds. The counter refresh after a co-sign or quote locates the field
// by this name.
const EndorsementsFieldName = "Endorsements"

// FormatEndorsements renders the co-sign and quote counters shown under a
// broadcast.
func FormatEndorsements(counts *types.DerivationCounts) string {
	return fmt.Sprintf("🤝 %d co-signs · 💬 %d quotes", counts.ShareCount, counts.QuoteCount)
}

// Buttons creates the action row attached to every review broadcast. The
// custom IDs carry the review's media and author so later interactions
// can reconstruct context.
func (b *Builder) Buttons() []discord.InteractiveComponent {
	base := customid.Action{
		Kind:     b.review.MediaKind,
		Element:  customid.ElementButton,
		MediaID:  b.review.MediaID,
		AuthorID: b.review.UserID,
	}

	share := base
	share.Verb = customid.VerbShare

	cosign := base
	cosign.Verb = customid.VerbCosign

	quote := base
	quote.Verb = customid.VerbQuoteButton

	add := base
	add.Verb = customid.VerbAddReview

	return []discord.InteractiveComponent{
		discord.NewPrimaryButton("Share This Review", share.Encode()),
		discord.NewSecondaryButton("Co-sign", cosign.Encode()),
		discord.NewSecondaryButton("Quote", quote.Encode()),
		discord.NewSecondaryButton("Add your own review", add.Encode()),
	}
}

// Build creates the broadcast message for a new or quoted review.
func (b *Builder) Build() *discord.MessageCreateBuilder {
	return discord.NewMessageCreateBuilder().
		SetEmbeds(b.Embed()).
		AddActionRow(b.Buttons()...)
}

// BuildUpdate re-renders the broadcast in place, refreshing counters and
// re-attaching the same action buttons.
func (b *Builder) BuildUpdate() discord.MessageUpdate {
	return discord.NewMessageUpdateBuilder().
		SetEmbeds(b.Embed()).
		SetContainerComponents(discord.NewActionRow(b.Buttons()...)).
		Build()
}
