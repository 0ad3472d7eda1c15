// Package delete implements the /delete-review command. Members can only
// remove their own review; derived records others created from it are
// left alone, keeping their snapshots intact.
package delete

import (
	"context"
	"fmt"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/interfaces"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// ReviewStore is the slice of the review model deletion needs.
type ReviewStore interface {
	Delete(ctx context.Context, kind enum.MediaKind, mediaID string, guildID, userID snowflake.ID) (bool, error)
}

// Handler serves review deletion.
type Handler struct {
	store  ReviewStore
	logger *zap.Logger
}

// New creates the deletion handler.
func New(store ReviewStore, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.Named("delete_handler"),
	}
}

// HandleSelect deletes the acting member's review of the picked media item.
func (h *Handler) HandleSelect(event *events.ComponentInteractionCreate, action customid.Action) {
	if err := event.DeferUpdateMessage(); err != nil {
		h.logger.Error("Failed to defer deletion", zap.Error(err))
		return
	}

	guildID := event.GuildID()
	if guildID == nil {
		h.respondText(event, "Reviews only work inside a server.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	deleted, err := h.store.Delete(ctx, action.Kind, action.MediaID, *guildID, event.User().ID)
	if err != nil {
		h.logger.Error("Failed to delete review", zap.Error(err))
		h.respondText(event, "Something went wrong deleting your review. Please try again.")
		return
	}

	if !deleted {
		h.respondText(event, fmt.Sprintf("You don't have a review for that %s.", action.Kind.DisplayNoun()))
		return
	}

	h.respondText(event, "Your review has been deleted.")
}

func (h *Handler) respondText(event interfaces.CommonEvent, text string) {
	update := discord.NewMessageUpdateBuilder().
		SetContent(text).
		ClearContainerComponents().
		Build()

	_, err := event.Client().Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), update)
	if err != nil {
		h.logger.Error("Failed to update interaction response", zap.Error(err))
	}
}
