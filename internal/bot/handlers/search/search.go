// Package search implements the /search command: free-text lookup against
// the catalog providers and the media overview shown after picking a
// candidate.
package search

import (
	"context"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/interfaces"
	searchview "github.com/culturebot/culturebot/internal/bot/views/search"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// ReviewStore is the slice of the review model the overview needs.
type ReviewStore interface {
	FindByMedia(ctx context.Context, kind enum.MediaKind, mediaID string, guildID snowflake.ID) ([]*types.Review, error)
}

// MediaResolver routes a media kind to its catalog provider.
type MediaResolver interface {
	For(kind enum.MediaKind) (content.Provider, error)
}

// Handler serves catalog searches and media overviews.
type Handler struct {
	store  ReviewStore
	media  MediaResolver
	logger *zap.Logger
}

// New creates the search handler.
func New(store ReviewStore, media MediaResolver, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		media:  media,
		logger: logger.Named("search_handler"),
	}
}

// HandleCommand runs a search slash command. The subcommand names the
// media kind and pickVerb decides what selecting a result does, which
// lets /search, /show-review and /delete-review reuse one picker.
func (h *Handler) HandleCommand(event *events.ApplicationCommandInteractionCreate, pickVerb customid.Verb) {
	if err := event.DeferCreateMessage(true); err != nil {
		h.logger.Error("Failed to defer search", zap.Error(err))
		return
	}

	data := event.SlashCommandInteractionData()

	kind, err := enum.ParseMediaKind(*data.SubCommandName)
	if err != nil {
		h.logger.Warn("Search used unknown subcommand", zap.Stringp("subcommand", data.SubCommandName))
		h.respondText(event, "That media type isn't supported.")
		return
	}

	query := data.String(constants.TitleOptionName)

	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	provider, err := h.media.For(kind)
	if err != nil {
		h.respondText(event, "That media type isn't supported.")
		return
	}

	results, err := provider.Search(ctx, query)
	if err != nil {
		h.logger.Error("Search failed",
			zap.String("kind", string(kind)),
			zap.String("query", query),
			zap.Error(err))
		h.respondText(event, "Search is having a moment. Please try again.")
		return
	}

	builder := searchview.NewResultsBuilder(kind, query, results, pickVerb)
	if reviewer, ok := data.OptSnowflake(constants.ReviewerOptionName); ok {
		builder = builder.WithReviewer(reviewer)
	}

	h.respond(event, builder.Build().Build())
}

// HandleSelect shows the media overview for a picked search result.
func (h *Handler) HandleSelect(event *events.ComponentInteractionCreate, action customid.Action) {
	if err := event.DeferUpdateMessage(); err != nil {
		h.logger.Error("Failed to defer overview", zap.Error(err))
		return
	}

	guildID := event.GuildID()
	if guildID == nil {
		h.respondText(event, "Search only works inside a server.")
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

	reviews, err := h.store.FindByMedia(ctx, action.Kind, action.MediaID, *guildID)
	if err != nil {
		h.logger.Warn("Failed to load reviews for overview", zap.Error(err))
		reviews = nil
	}

	h.respond(event, searchview.NewOverviewBuilder(media, reviews).Build().Build())
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
