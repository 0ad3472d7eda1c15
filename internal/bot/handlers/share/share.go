// Package share implements the multi-step flow for sharing, quoting and
// co-signing another member's review. The flow spans several independent
// interaction events with no server-side session; every step's context
// travels inside the component custom IDs.
package share

import (
	"context"
	"errors"
	"fmt"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/interfaces"
	"github.com/culturebot/culturebot/internal/bot/sync"
	reviewview "github.com/culturebot/culturebot/internal/bot/views/review"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/culturebot/culturebot/internal/review"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

const (
	msgOriginalGone   = "That review doesn't exist anymore."
	msgOwnReview      = "You can't share your own review, but we love the enthusiasm."
	msgStoreFailed    = "Something went wrong saving your review. Please try again."
	msgGuildOnly      = "Reviews only work inside a server."
	msgEmptyComment   = "Your quote comment can't be empty. Press the Quote button to try again."
	msgCancelled      = "Cancelled. Your review is untouched."
	msgQuotePosted    = "Your quote has been posted."
	msgShareComplete  = "Review shared. Your review now carries **%s**'s score."
	msgCosignComplete = "You co-signed **%s**'s review."
)

// ReviewStore is the slice of the review model the flow needs.
type ReviewStore interface {
	FindByUser(ctx context.Context, kind enum.MediaKind, mediaID string, guildID, userID snowflake.ID) (*types.Review, error)
	Upsert(ctx context.Context, review *types.Review) (*types.Review, bool, error)
}

// MediaResolver routes a media kind to its catalog provider.
type MediaResolver interface {
	For(kind enum.MediaKind) (content.Provider, error)
}

// Broadcaster delivers the post-persist message updates.
type Broadcaster interface {
	BroadcastNew(ctx context.Context, gateway sync.MessageGateway, channelID snowflake.ID, record *types.Review, media *content.Media) error
	AnnounceOnOriginal(ctx context.Context, gateway sync.MessageGateway, channelID snowflake.ID, original, derived *types.Review, cosign bool) error
}

// Handler drives the share/quote/co-sign state machine.
type Handler struct {
	store  ReviewStore
	media  MediaResolver
	sync   Broadcaster
	logger *zap.Logger
}

// New creates the derivation flow handler.
func New(store ReviewStore, media MediaResolver, broadcaster Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		media:  media,
		sync:   broadcaster,
		logger: logger.Named("share_handler"),
	}
}

// HandleShareButton starts the flow from a Share button: it validates the
// original review and offers the share-or-quote mode choice.
func (h *Handler) HandleShareButton(event *events.ComponentInteractionCreate, action customid.Action) {
	if err := event.DeferCreateMessage(true); err != nil {
		h.logger.Error("Failed to defer share prompt", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	original, ok := h.loadOriginal(ctx, event, action)
	if !ok {
		return
	}

	h.respond(event, reviewview.NewModeSelectBuilder(original).Build().Build())
}

// HandleCosignButton runs a co-sign from the button on a review
// broadcast. Co-signs skip the mode choice entirely.
func (h *Handler) HandleCosignButton(event *events.ComponentInteractionCreate, action customid.Action) {
	if err := event.DeferCreateMessage(true); err != nil {
		h.logger.Error("Failed to defer co-sign", zap.Error(err))
		return
	}

	h.advance(event, action, review.ModeCosign, nil, false)
}

// HandleQuoteButton opens the quote comment modal. Modals must be the
// immediate interaction response, so this step does its store reads
// before responding instead of deferring.
func (h *Handler) HandleQuoteButton(event *events.ComponentInteractionCreate, action customid.Action) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	guildID := event.GuildID()
	if guildID == nil {
		h.replyEphemeral(event, msgGuildOnly)
		return
	}

	original, err := h.store.FindByUser(ctx, action.Kind, action.MediaID, *guildID, action.AuthorID)
	if err != nil {
		h.logger.Error("Failed to load original review", zap.Error(err))
		h.replyEphemeral(event, msgStoreFailed)
		return
	}

	request := review.Request{
		Mode:      review.ModeQuote,
		Requester: h.identity(event, *guildID),
	}

	existing, err := h.store.FindByUser(ctx, action.Kind, action.MediaID, *guildID, event.User().ID)
	if err != nil {
		h.logger.Error("Failed to load existing review", zap.Error(err))
		h.replyEphemeral(event, msgStoreFailed)
		return
	}

	plan, err := review.PlanDerivation(original, existing, request)
	if err != nil {
		h.replyEphemeral(event, flowErrorMessage(err))
		return
	}

	modal := reviewview.NewQuoteModalBuilder(original, plan.CommentPrefill).Build()
	if err := event.Modal(modal); err != nil {
		h.logger.Error("Failed to open quote modal", zap.Error(err))
	}
}

// HandleModeSelect resumes the flow after the user picks share or quote.
func (h *Handler) HandleModeSelect(event *events.ComponentInteractionCreate, action customid.Action) {
	values := event.StringSelectMenuInteractionData().Values
	if len(values) == 0 {
		return
	}

	mode, err := review.ParseMode(values[0])
	if err != nil {
		h.logger.Warn("Mode select carried unknown mode", zap.String("value", values[0]))
		return
	}

	if mode == review.ModeQuote {
		h.HandleQuoteButton(event, action)
		return
	}

	// Replace the ephemeral mode prompt rather than stacking messages.
	if err := event.DeferUpdateMessage(); err != nil {
		h.logger.Error("Failed to defer mode selection", zap.Error(err))
		return
	}

	h.advance(event, action, mode, nil, false)
}

// HandleConfirm completes a share or co-sign after the user approved
// replacing their existing review. The chosen mode rides in the custom ID.
func (h *Handler) HandleConfirm(event *events.ComponentInteractionCreate, action customid.Action) {
	mode, err := review.ParseMode(action.Mode)
	if err != nil {
		h.logger.Warn("Confirmation carried unknown mode", zap.String("mode", action.Mode))
		return
	}

	if err := event.DeferUpdateMessage(); err != nil {
		h.logger.Error("Failed to defer confirmation", zap.Error(err))
		return
	}

	h.advance(event, action, mode, nil, true)
}

// HandleCancel aborts at the confirmation step. Nothing was written, so
// the only effect is reverting the ephemeral prompt.
func (h *Handler) HandleCancel(event *events.ComponentInteractionCreate, _ customid.Action) {
	update := discord.NewMessageUpdateBuilder().
		SetContent(msgCancelled).
		ClearContainerComponents().
		Build()
	if err := event.UpdateMessage(update); err != nil {
		h.logger.Error("Failed to revert cancelled prompt", zap.Error(err))
	}
}

// HandleQuoteModal persists a quote once its comment arrives.
func (h *Handler) HandleQuoteModal(event *events.ModalSubmitInteractionCreate, action customid.Action) {
	if err := event.DeferCreateMessage(true); err != nil {
		h.logger.Error("Failed to defer quote submission", zap.Error(err))
		return
	}

	comment := event.Data.Text(constants.QuoteCommentInputCustomID)
	h.advanceModal(event, action, review.ModeQuote, &comment)
}

// session carries the interaction-independent context for the persist
// tail, so the flow runs identically from component and modal events and
// tests can drive it without a live gateway connection.
type session struct {
	actor     review.Identity
	guildID   *snowflake.ID
	channelID snowflake.ID
	gateway   sync.MessageGateway
	respond   func(discord.MessageUpdate)
}

func (s *session) respondText(text string) {
	s.respond(discord.NewMessageUpdateBuilder().
		SetContent(text).
		ClearContainerComponents().
		Build())
}

func (h *Handler) sessionFor(event interfaces.CommonEvent, channelID snowflake.ID) session {
	sess := session{
		guildID:   event.GuildID(),
		channelID: channelID,
		gateway:   event.Client().Rest(),
		respond: func(update discord.MessageUpdate) {
			h.respond(event, update)
		},
	}
	if sess.guildID != nil {
		sess.actor = h.identity(event, *sess.guildID)
	}

	return sess
}

// advance runs the shared persist-then-synchronize tail of the flow for
// component interactions.
func (h *Handler) advance(
	event *events.ComponentInteractionCreate,
	action customid.Action,
	mode review.Mode,
	comment *string,
	confirmed bool,
) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	h.run(ctx, h.sessionFor(event, event.ChannelID()), action, mode, comment, confirmed)
}

func (h *Handler) advanceModal(
	event *events.ModalSubmitInteractionCreate,
	action customid.Action,
	mode review.Mode,
	comment *string,
) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.HandlerTimeout)
	defer cancel()

	h.run(ctx, h.sessionFor(event, event.ChannelID()), action, mode, comment, false)
}

// run is the state machine core: validate, plan, persist, synchronize,
// then acknowledge. Side effects are strictly ordered; nothing is posted
// or edited before the upsert succeeds, and the ephemeral acknowledgment
// comes last so synchronization problems can still surface there.
func (h *Handler) run(
	ctx context.Context,
	sess session,
	action customid.Action,
	mode review.Mode,
	comment *string,
	confirmed bool,
) {
	if sess.guildID == nil {
		sess.respondText(msgGuildOnly)
		return
	}
	guildID := *sess.guildID

	original, err := h.store.FindByUser(ctx, action.Kind, action.MediaID, guildID, action.AuthorID)
	if err != nil {
		h.logger.Error("Failed to load original review", zap.Error(err))
		sess.respondText(msgStoreFailed)
		return
	}

	existing, err := h.store.FindByUser(ctx, action.Kind, action.MediaID, guildID, sess.actor.UserID)
	if err != nil {
		h.logger.Error("Failed to load existing review", zap.Error(err))
		sess.respondText(msgStoreFailed)
		return
	}

	plan, err := review.PlanDerivation(original, existing, review.Request{
		Mode:      mode,
		Requester: sess.actor,
		Comment:   comment,
		Confirmed: confirmed,
	})
	if err != nil {
		sess.respondText(flowErrorMessage(err))
		return
	}

	if plan.RequiresConfirmation {
		sess.respond(reviewview.NewConfirmBuilder(original, plan, mode).Build().Build())
		return
	}

	// A quote can only reach this point through the comment modal, but a
	// stale component could still deliver one without its comment.
	if plan.RequiresComment {
		sess.respondText(msgEmptyComment)
		return
	}

	record, _, err := h.store.Upsert(ctx, plan.Review)
	if err != nil {
		h.logger.Error("Failed to persist derived review", zap.Error(err))
		sess.respondText(msgStoreFailed)
		return
	}

	if plan.Sync == review.SyncNewBroadcast {
		media := h.lookupMedia(ctx, action.Kind, action.MediaID)
		if err := h.sync.BroadcastNew(ctx, sess.gateway, sess.channelID, record, media); err != nil {
			h.logger.Warn("Failed to broadcast quote", zap.Error(err))
		}
		sess.respondText(msgQuotePosted)
		return
	}

	cosign := mode == review.ModeCosign
	if err := h.sync.AnnounceOnOriginal(ctx, sess.gateway, sess.channelID, original, record, cosign); err != nil {
		h.logger.Warn("Failed to announce on original broadcast", zap.Error(err))
	}

	if cosign {
		sess.respondText(fmt.Sprintf(msgCosignComplete, original.Username))
	} else {
		sess.respondText(fmt.Sprintf(msgShareComplete, original.Username))
	}
}

// loadOriginal fetches and validates the source review for entry steps,
// reporting failures on the deferred response.
func (h *Handler) loadOriginal(
	ctx context.Context,
	event *events.ComponentInteractionCreate,
	action customid.Action,
) (*types.Review, bool) {
	guildID := event.GuildID()
	if guildID == nil {
		h.respondText(event, msgGuildOnly)
		return nil, false
	}

	original, err := h.store.FindByUser(ctx, action.Kind, action.MediaID, *guildID, action.AuthorID)
	if err != nil {
		h.logger.Error("Failed to load original review", zap.Error(err))
		h.respondText(event, msgStoreFailed)
		return nil, false
	}
	if original == nil {
		h.respondText(event, msgOriginalGone)
		return nil, false
	}
	if original.UserID == event.User().ID {
		h.respondText(event, msgOwnReview)
		return nil, false
	}

	return original, true
}

// lookupMedia fetches catalog metadata for display. Lookup failures are
// cosmetic at this point, so a minimal record stands in.
func (h *Handler) lookupMedia(ctx context.Context, kind enum.MediaKind, mediaID string) *content.Media {
	provider, err := h.media.For(kind)
	if err == nil {
		media, lookupErr := provider.GetByID(ctx, mediaID)
		if lookupErr == nil {
			return media
		}
		err = lookupErr
	}

	h.logger.Warn("Failed to look up media for display",
		zap.String("kind", string(kind)),
		zap.String("mediaID", mediaID),
		zap.Error(err))

	return &content.Media{
		ID:    mediaID,
		Kind:  kind,
		Title: "this " + kind.DisplayNoun(),
	}
}

func (h *Handler) identity(event interfaces.CommonEvent, guildID snowflake.ID) review.Identity {
	return review.Identity{
		UserID:   event.User().ID,
		Username: event.User().Username,
		GuildID:  guildID,
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

// replyEphemeral responds directly without a prior defer, used on the
// modal path where deferring is not allowed.
func (h *Handler) replyEphemeral(event *events.ComponentInteractionCreate, text string) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(text).
		SetEphemeral(true).
		Build())
	if err != nil {
		h.logger.Error("Failed to send ephemeral reply", zap.Error(err))
	}
}

// flowErrorMessage maps engine sentinels to user-facing text.
func flowErrorMessage(err error) string {
	switch {
	case errors.Is(err, review.ErrOriginalNotFound):
		return msgOriginalGone
	case errors.Is(err, review.ErrSelfDerivation):
		return msgOwnReview
	case errors.Is(err, review.ErrEmptyComment):
		return msgEmptyComment
	default:
		return msgStoreFailed
	}
}
