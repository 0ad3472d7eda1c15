// Package review implements the review submission flow: score selection,
// the detail modal and the public broadcast of the finished review.
package review

import (
	"context"
	"strconv"
	"strings"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/interfaces"
	"github.com/culturebot/culturebot/internal/bot/sync"
	reviewview "github.com/culturebot/culturebot/internal/bot/views/review"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// ReviewStore is the slice of the review model the submission flow needs.
type ReviewStore interface {
	Upsert(ctx context.Context, review *types.Review) (*types.Review, bool, error)
}

// MediaResolver routes a media kind to its catalog provider.
type MediaResolver interface {
	For(kind enum.MediaKind) (content.Provider, error)
}

// Broadcaster posts the finished review to the channel.
type Broadcaster interface {
	BroadcastNew(ctx context.Context, gateway sync.MessageGateway, channelID snowflake.ID, record *types.Review, media *content.Media) error
}

// Handler drives the review submission flow.
type Handler struct {
	store  ReviewStore
	media  MediaResolver
	sync   Broadcaster
	logger *zap.Logger
}

// New creates the review submission handler.
func New(store ReviewStore, media MediaResolver, broadcaster Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		media:  media,
		sync:   broadcaster,
		logger: logger.Named("review_handler"),
	}
}

// HandleStartReview shows the score picker. Reached from the media
// overview's "Write a review" button and from the "Add your own review"
// button on any broadcast.
func (h *Handler) HandleStartReview(event *events.ComponentInteractionCreate, action customid.Action) {
	if err := event.DeferCreateMessage(true); err != nil {
		h.logger.Error("Failed to defer score picker", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	media, err := h.lookupMedia(ctx, action.Kind, action.MediaID)
	if err != nil {
		h.respondText(event, "Couldn't look that one up right now. Please try again.")
		return
	}

	h.respond(event, reviewview.NewScoreSelectBuilder(media).Build().Build())
}

// HandleScoreSelect opens the detail modal once a score is picked. Modals
// must be the immediate response, so the media lookup happens first.
func (h *Handler) HandleScoreSelect(event *events.ComponentInteractionCreate, action customid.Action) {
	values := event.StringSelectMenuInteractionData().Values
	if len(values) == 0 {
		return
	}

	score, err := strconv.Atoi(values[0])
	if err != nil || score < constants.ScoreMin || score > constants.ScoreMax {
		h.logger.Warn("Score select carried invalid value", zap.String("value", values[0]))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	media, err := h.lookupMedia(ctx, action.Kind, action.MediaID)
	if err != nil {
		media = fallbackMedia(action.Kind, action.MediaID)
	}

	if err := event.Modal(reviewview.NewSubmitModalBuilder(media, score).Build()); err != nil {
		h.logger.Error("Failed to open review modal", zap.Error(err))
	}
}

// HandleSubmitModal persists the review and broadcasts it. The chosen
// score rides in the modal's custom ID; comment and kind-specific inputs
// come from the modal fields.
func (h *Handler) HandleSubmitModal(event *events.ModalSubmitInteractionCreate, action customid.Action) {
	if err := event.DeferCreateMessage(true); err != nil {
		h.logger.Error("Failed to defer review submission", zap.Error(err))
		return
	}

	guildID := event.GuildID()
	if guildID == nil {
		h.respondText(event, "Reviews only work inside a server.")
		return
	}

	score, err := strconv.Atoi(action.Mode)
	if err != nil || score < constants.ScoreMin || score > constants.ScoreMax {
		h.logger.Warn("Review modal carried invalid score", zap.String("score", action.Mode))
		return
	}

	record := &types.Review{
		GuildID:   *guildID,
		UserID:    event.User().ID,
		Username:  event.User().Username,
		MediaKind: action.Kind,
		MediaID:   action.MediaID,
		Score:     score,
	}

	if comment := strings.TrimSpace(event.Data.Text(constants.ReviewCommentInputCustomID)); comment != "" {
		record.Comment = &comment
	}

	switch action.Kind {
	case enum.MediaKindGame:
		if hours, err := strconv.Atoi(strings.TrimSpace(event.Data.Text(constants.ReviewHoursInputCustomID))); err == nil && hours >= 0 {
			record.HoursPlayed = &hours
		}
	case enum.MediaKindMusic:
		if replayability, ok := enum.ParseReplayability(event.Data.Text(constants.ReviewReplayInputCustomID)); ok {
			record.Replayability = &replayability
		}
	case enum.MediaKindMovie, enum.MediaKindSeries:
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	stored, created, err := h.store.Upsert(ctx, record)
	if err != nil {
		h.logger.Error("Failed to persist review", zap.Error(err))
		h.respondText(event, "Something went wrong saving your review. Please try again.")
		return
	}

	media, err := h.lookupMedia(ctx, action.Kind, action.MediaID)
	if err != nil {
		media = fallbackMedia(action.Kind, action.MediaID)
	}

	if err := h.sync.BroadcastNew(ctx, event.Client().Rest(), event.ChannelID(), stored, media); err != nil {
		h.logger.Warn("Failed to broadcast review", zap.Error(err))
	}

	if created {
		h.respondText(event, "Your review has been posted.")
	} else {
		h.respondText(event, "Your review has been updated.")
	}
}

func (h *Handler) lookupMedia(ctx context.Context, kind enum.MediaKind, mediaID string) (*content.Media, error) {
	provider, err := h.media.For(kind)
	if err != nil {
		return nil, err
	}

	media, err := provider.GetByID(ctx, mediaID)
	if err != nil {
		h.logger.Warn("Failed to look up media",
			zap.String("kind", string(kind)),
			zap.String("mediaID", mediaID),
			zap.Error(err))
		return nil, err
	}

	return media, nil
}

func fallbackMedia(kind enum.MediaKind, mediaID string) *content.Media {
	return &content.Media{
		ID:    mediaID,
		Kind:  kind,
		Title: "this " + kind.DisplayNoun(),
	}
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
