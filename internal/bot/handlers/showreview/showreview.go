// Package showreview implements the /show-review command: it gathers a
// media item's reviews and lays them out in a thread under a summary
// message, keeping the channel itself uncluttered.
package showreview

import (
	"context"
	"fmt"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/interfaces"
	"github.com/culturebot/culturebot/internal/bot/utils"
	reviewview "github.com/culturebot/culturebot/internal/bot/views/review"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// threadReviewLimit caps how many reviews get posted into the thread.
const threadReviewLimit = 10

// ReviewStore is the slice of the review model the listing needs.
type ReviewStore interface {
	FindByUser(ctx context.Context, kind enum.MediaKind, mediaID string, guildID, userID snowflake.ID) (*types.Review, error)
	FindByMedia(ctx context.Context, kind enum.MediaKind, mediaID string, guildID snowflake.ID) ([]*types.Review, error)
	CountDerivations(ctx context.Context, kind enum.MediaKind, mediaID string, guildID, sourceUserID snowflake.ID) (types.DerivationCounts, error)
}

// MediaResolver routes a media kind to its catalog provider.
type MediaResolver interface {
	For(kind enum.MediaKind) (content.Provider, error)
}

// Handler serves review listings.
type Handler struct {
	store  ReviewStore
	media  MediaResolver
	logger *zap.Logger
}

// New creates the review listing handler.
func New(store ReviewStore, media MediaResolver, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		media:  media,
		logger: logger.Named("showreview_handler"),
	}
}

// HandleSelect posts the review listing for a picked media item: a public
// summary message, a thread hanging off it, and one embed per review
// inside the thread.
func (h *Handler) HandleSelect(event *events.ComponentInteractionCreate, action customid.Action) {
	if err := event.DeferUpdateMessage(); err != nil {
		h.logger.Error("Failed to defer review listing", zap.Error(err))
		return
	}

	guildID := event.GuildID()
	if guildID == nil {
		h.respondText(event, "Reviews only work inside a server.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	provider, err := h.media.For(action.Kind)
	if err != nil {
		h.respondText(event, "That media type isn't supported.")
		return
	}

	media, err := provider.GetByID(ctx, action.MediaID)
	if err != nil {
		h.logger.Error("Failed to look up media",
			zap.String("mediaID", action.MediaID),
			zap.Error(err))
		h.respondText(event, "Couldn't look that one up right now. Please try again.")
		return
	}

	// A reviewer filter on the command narrows the listing to one
	// member's review, shown inline instead of in a thread.
	if action.AuthorID != 0 {
		h.showSingle(ctx, event, action, *guildID, media)
		return
	}

	reviews, err := h.store.FindByMedia(ctx, action.Kind, action.MediaID, *guildID)
	if err != nil {
		h.logger.Error("Failed to load reviews", zap.Error(err))
		h.respondText(event, "Couldn't load reviews right now. Please try again.")
		return
	}
	if len(reviews) == 0 {
		h.respondText(event, fmt.Sprintf("Nobody has reviewed **%s** yet. Be the first!", media.Title))
		return
	}

	rest := event.Client().Rest()

	scores := make([]int, 0, len(reviews))
	for _, entry := range reviews {
		scores = append(scores, entry.Score)
	}

	summary := discord.NewMessageCreateBuilder().
		SetContentf("%s **%s** — %s from %d reviews",
			media.Kind.Emoji(), media.Title, utils.AverageScore(scores), len(reviews)).
		Build()
	summaryMessage, err := rest.CreateMessage(event.ChannelID(), summary)
	if err != nil {
		h.logger.Error("Failed to post review summary", zap.Error(err))
		h.respondText(event, "Couldn't post the review listing. Please try again.")
		return
	}

	thread, err := rest.CreateThreadFromMessage(event.ChannelID(), summaryMessage.ID, discord.ThreadCreateFromMessage{
		Name:                utils.Truncate("Reviews: "+media.Title, constants.ReviewThreadNameMaxLength),
		AutoArchiveDuration: discord.AutoArchiveDuration24h,
	})
	if err != nil {
		h.logger.Warn("Failed to create review thread", zap.Error(err))
		h.respondText(event, fmt.Sprintf("Posted the summary for **%s**.", media.Title))
		return
	}

	posted := 0
	for _, entry := range reviews {
		if posted >= threadReviewLimit {
			break
		}

		counts, err := h.store.CountDerivations(ctx, action.Kind, action.MediaID, *guildID, entry.UserID)
		if err != nil {
			counts = types.DerivationCounts{}
		}

		message := reviewview.NewBuilder(entry, media, &counts).Build().Build()
		if _, err := rest.CreateMessage(thread.ID(), message); err != nil {
			h.logger.Warn("Failed to post review in thread",
				zap.Uint64("threadID", uint64(thread.ID())),
				zap.Error(err))
			break
		}
		posted++
	}

	h.respondText(event, fmt.Sprintf("Posted %d reviews for **%s** in a thread.", posted, media.Title))
}

// showSingle renders one member's review inline on the ephemeral response.
func (h *Handler) showSingle(
	ctx context.Context,
	event *events.ComponentInteractionCreate,
	action customid.Action,
	guildID snowflake.ID,
	media *content.Media,
) {
	entry, err := h.store.FindByUser(ctx, action.Kind, action.MediaID, guildID, action.AuthorID)
	if err != nil {
		h.logger.Error("Failed to load review", zap.Error(err))
		h.respondText(event, "Couldn't load that review right now. Please try again.")
		return
	}
	if entry == nil {
		h.respondText(event, fmt.Sprintf("That member hasn't reviewed **%s**.", media.Title))
		return
	}

	counts, err := h.store.CountDerivations(ctx, action.Kind, action.MediaID, guildID, entry.UserID)
	if err != nil {
		counts = types.DerivationCounts{}
	}

	h.respond(event, discord.NewMessageUpdateBuilder().
		SetContent("").
		SetEmbeds(reviewview.NewBuilder(entry, media, &counts).Embed()).
		ClearContainerComponents().
		Build())
}

func (h *Handler) respond(event interfaces.CommonEvent, update discord.MessageUpdate) {
	_, err := event.Client().Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), update)
	if err != nil {
		h.logger.Error("Failed to update interaction response", zap.Error(err))
	}
}

func (h *Handler) respondText(event interfaces.CommonEvent, text string) {
	h.respond(event, discord.NewMessageUpdateBuilder().
		SetContent(text).
		ClearContainerComponents().
		Build())
}
