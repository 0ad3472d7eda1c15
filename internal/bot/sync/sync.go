// Package sync keeps Discord messages consistent with the review store
// after a derivation persists. Quotes get a brand-new broadcast; shares
// and co-signs instead announce on the original review's message and
// refresh its derivation counters in place.
package sync

import (
	"context"
	"fmt"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	reviewview "github.com/culturebot/culturebot/internal/bot/views/review"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// MessageGateway is the slice of Discord's REST API the synchronizer
// needs. rest.Rest satisfies it; tests substitute a fake.
type MessageGateway interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
	UpdateMessage(channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, opts ...rest.RequestOpt) (*discord.Message, error)
	GetMessages(channelID snowflake.ID, around snowflake.ID, before snowflake.ID, after snowflake.ID, limit int, opts ...rest.RequestOpt) ([]discord.Message, error)
}

var _ MessageGateway = (rest.Rest)(nil)

// DerivationCounter recomputes share/quote counters from the store.
// Satisfied by the review model; tests substitute a fake.
type DerivationCounter interface {
	CountDerivations(ctx context.Context, kind enum.MediaKind, mediaID string, guildID, sourceUserID snowflake.ID) (types.DerivationCounts, error)
}

// Synchronizer updates review broadcast messages after a persist.
type Synchronizer struct {
	reviews DerivationCounter
	logger  *zap.Logger
}

// New creates a message synchronizer.
func New(reviews DerivationCounter, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		reviews: reviews,
		logger:  logger.Named("sync"),
	}
}

// BroadcastNew posts a full review message to the channel. Used for
// fresh reviews and for quotes, which always get their own broadcast.
func (s *Synchronizer) BroadcastNew(
	ctx context.Context,
	gateway MessageGateway,
	channelID snowflake.ID,
	record *types.Review,
	media *content.Media,
) error {
	counts, err := s.reviews.CountDerivations(ctx, record.MediaKind, record.MediaID, record.GuildID, record.UserID)
	if err != nil {
		s.logger.Warn("Failed to count derivations for broadcast",
			zap.String("mediaID", record.MediaID),
			zap.Error(err))
		counts = types.DerivationCounts{}
	}

	message := reviewview.NewBuilder(record, media, &counts).Build().Build()
	if _, err := gateway.CreateMessage(channelID, message); err != nil {
		return fmt.Errorf("failed to broadcast review: %w", err)
	}

	return nil
}

// AnnounceOnOriginal handles shares and co-signs: it locates the original
// review's broadcast message, replies to it announcing the endorsement,
// and refreshes the endorsement counters on its embed. Everything else on
// the broadcast stays untouched, so a degraded media lookup elsewhere in
// the flow can never clobber the rendered title or thumbnail. A missing
// broadcast message is a cosmetic gap, not a failure: the persist already
// succeeded, so the method logs and reports success.
func (s *Synchronizer) AnnounceOnOriginal(
	ctx context.Context,
	gateway MessageGateway,
	channelID snowflake.ID,
	original *types.Review,
	derived *types.Review,
	cosign bool,
) error {
	originalMessage, err := s.findBroadcast(gateway, channelID, original)
	if err != nil {
		s.logger.Warn("Failed to scan for original broadcast",
			zap.String("mediaID", original.MediaID),
			zap.Error(err))
		return nil
	}
	if originalMessage == nil {
		s.logger.Debug("Original broadcast not found, skipping announcement",
			zap.String("mediaID", original.MediaID),
			zap.Uint64("authorID", uint64(original.UserID)))
		return nil
	}

	counts, err := s.reviews.CountDerivations(ctx, original.MediaKind, original.MediaID, original.GuildID, original.UserID)
	if err != nil {
		s.logger.Warn("Failed to recount derivations",
			zap.String("mediaID", original.MediaID),
			zap.Error(err))
	} else if update := refreshCounters(originalMessage, &counts); update != nil {
		if _, err := gateway.UpdateMessage(channelID, originalMessage.ID, *update); err != nil {
			s.logger.Warn("Failed to refresh original broadcast",
				zap.Uint64("messageID", uint64(originalMessage.ID)),
				zap.Error(err))
		}
	}

	reply := discord.NewMessageCreateBuilder().
		SetContent(announcement(original, derived, cosign)).
		SetMessageReferenceByID(originalMessage.ID).
		Build()
	if _, err := gateway.CreateMessage(channelID, reply); err != nil {
		s.logger.Warn("Failed to post endorsement reply",
			zap.Uint64("messageID", uint64(originalMessage.ID)),
			zap.Error(err))
	}

	return nil
}

// refreshCounters rebuilds the broadcast's embed with the endorsement
// counter field replaced, preserving every other part of the rendered
// message. Returns nil when the message carries no embed to refresh.
func refreshCounters(message *discord.Message, counts *types.DerivationCounts) *discord.MessageUpdate {
	if len(message.Embeds) == 0 {
		return nil
	}

	embed := message.Embeds[0]
	fields := make([]discord.EmbedField, 0, len(embed.Fields)+1)
	for _, field := range embed.Fields {
		if field.Name != reviewview.EndorsementsFieldName {
			fields = append(fields, field)
		}
	}
	if counts.Total() > 0 {
		inline := false
		fields = append(fields, discord.EmbedField{
			Name:   reviewview.EndorsementsFieldName,
			Value:  reviewview.FormatEndorsements(counts),
			Inline: &inline,
		})
	}
	embed.Fields = fields

	update := discord.NewMessageUpdateBuilder().SetEmbeds(embed).Build()
	return &update
}

func announcement(original, derived *types.Review, cosign bool) string {
	verb := "shared"
	if cosign {
		verb = "co-signed"
	}

	return fmt.Sprintf("🤝 **%s** %s **%s**'s review of this %s",
		derived.Username, verb, original.Username, original.MediaKind.DisplayNoun())
}

// findBroadcast scans recent channel messages for the broadcast carrying
// the original review's co-sign button. The button's custom ID encodes
// the media and author, which makes it a reliable fingerprint.
func (s *Synchronizer) findBroadcast(
	gateway MessageGateway,
	channelID snowflake.ID,
	original *types.Review,
) (*discord.Message, error) {
	target := customid.Action{
		Verb:     customid.VerbCosign,
		Kind:     original.MediaKind,
		Element:  customid.ElementButton,
		MediaID:  original.MediaID,
		AuthorID: original.UserID,
	}.Encode()

	messages, err := gateway.GetMessages(channelID, 0, 0, 0, constants.MessageScanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent messages: %w", err)
	}

	for i := range messages {
		if messageHasButton(&messages[i], target) {
			return &messages[i], nil
		}
	}

	return nil, nil
}

func messageHasButton(message *discord.Message, target string) bool {
	for _, row := range message.Components {
		actionRow, ok := row.(discord.ActionRowComponent)
		if !ok {
			continue
		}
		for _, component := range actionRow {
			button, ok := component.(discord.ButtonComponent)
			if !ok {
				continue
			}
			if button.CustomID == target {
				return true
			}
		}
	}

	return false
}
