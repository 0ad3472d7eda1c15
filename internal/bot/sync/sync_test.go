package sync_test

import (
	"context"
	"errors"
	"testing"

	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/sync"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const channelID = snowflake.ID(555)

type fakeGateway struct {
	messages []discord.Message

	created []discord.MessageCreate
	updated map[snowflake.ID]discord.MessageUpdate
	fetchEr error
}

func newFakeGateway(messages ...discord.Message) *fakeGateway {
	return &fakeGateway{
		messages: messages,
		updated:  make(map[snowflake.ID]discord.MessageUpdate),
	}
}

func (f *fakeGateway) CreateMessage(_ snowflake.ID, messageCreate discord.MessageCreate, _ ...rest.RequestOpt) (*discord.Message, error) {
	f.created = append(f.created, messageCreate)
	return &discord.Message{ID: snowflake.ID(len(f.created))}, nil
}

func (f *fakeGateway) UpdateMessage(_ snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, _ ...rest.RequestOpt) (*discord.Message, error) {
	f.updated[messageID] = messageUpdate
	return &discord.Message{ID: messageID}, nil
}

func (f *fakeGateway) GetMessages(_ snowflake.ID, _ snowflake.ID, _ snowflake.ID, _ snowflake.ID, _ int, _ ...rest.RequestOpt) ([]discord.Message, error) {
	if f.fetchEr != nil {
		return nil, f.fetchEr
	}
	return f.messages, nil
}

type fakeCounter struct {
	counts types.DerivationCounts
	err    error
	calls  int
}

func (f *fakeCounter) CountDerivations(_ context.Context, _ enum.MediaKind, _ string, _, _ snowflake.ID) (types.DerivationCounts, error) {
	f.calls++
	return f.counts, f.err
}

func original() *types.Review {
	return &types.Review{
		GuildID:   snowflake.ID(1),
		UserID:    snowflake.ID(10),
		Username:  "alice",
		MediaKind: enum.MediaKindMovie,
		MediaID:   "550",
		Score:     5,
	}
}

func derived() *types.Review {
	sourceID := snowflake.ID(10)
	return &types.Review{
		GuildID:          snowflake.ID(1),
		UserID:           snowflake.ID(20),
		Username:         "bob",
		MediaKind:        enum.MediaKindMovie,
		MediaID:          "550",
		Score:            5,
		SharedFromUserID: &sourceID,
	}
}

func fightClub() *content.Media {
	return &content.Media{
		ID:    "550",
		Kind:  enum.MediaKindMovie,
		Title: "Fight Club",
	}
}

// broadcastMessage builds a channel message carrying the co-sign button
// that fingerprints a review broadcast, with the embed a real broadcast
// would have rendered.
func broadcastMessage(id snowflake.ID, review *types.Review) discord.Message {
	buttonID := customid.Action{
		Verb:     customid.VerbCosign,
		Kind:     review.MediaKind,
		Element:  customid.ElementButton,
		MediaID:  review.MediaID,
		AuthorID: review.UserID,
	}.Encode()

	embed := discord.NewEmbedBuilder().
		SetTitle("🎬 alice reviewed Fight Club").
		SetThumbnail("https://image.tmdb.org/t/p/w500/fight-club.jpg").
		AddField("Comment", "I am Jack's complete lack of surprise.", false).
		AddField("Endorsements", "🤝 1 co-signs · 💬 0 quotes", false).
		Build()

	return discord.Message{
		ID:     id,
		Embeds: []discord.Embed{embed},
		Components: []discord.ContainerComponent{
			discord.ActionRowComponent{
				discord.NewPrimaryButton("Co-sign", buttonID),
			},
		},
	}
}

func TestBroadcastNew(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	counter := &fakeCounter{}
	synchronizer := sync.New(counter, zap.NewNop())

	err := synchronizer.BroadcastNew(context.Background(), gateway, channelID, derived(), fightClub())
	require.NoError(t, err)
	require.Len(t, gateway.created, 1)
	require.NotEmpty(t, gateway.created[0].Embeds)
	assert.Contains(t, gateway.created[0].Embeds[0].Title, "Fight Club")
}

func TestAnnounceOnOriginal(t *testing.T) {
	t.Parallel()

	t.Run("edits original and replies", func(t *testing.T) {
		t.Parallel()

		messageID := snowflake.ID(900)
		gateway := newFakeGateway(
			discord.Message{ID: snowflake.ID(899)},
			broadcastMessage(messageID, original()),
		)
		counter := &fakeCounter{counts: types.DerivationCounts{ShareCount: 2, QuoteCount: 1}}
		synchronizer := sync.New(counter, zap.NewNop())

		err := synchronizer.AnnounceOnOriginal(
			context.Background(), gateway, channelID, original(), derived(), true)
		require.NoError(t, err)

		// The original broadcast got its counters refreshed in place,
		// replacing the stale counter field without duplicating it.
		update, ok := gateway.updated[messageID]
		require.True(t, ok)
		require.NotNil(t, update.Embeds)

		var endorsements []string
		for _, field := range (*update.Embeds)[0].Fields {
			if field.Name == "Endorsements" {
				endorsements = append(endorsements, field.Value)
			}
		}
		require.Len(t, endorsements, 1)
		assert.Contains(t, endorsements[0], "2 co-signs")
		assert.Contains(t, endorsements[0], "1 quotes")

		// The rest of the rendered broadcast survives the refresh.
		refreshed := (*update.Embeds)[0]
		assert.Equal(t, "🎬 alice reviewed Fight Club", refreshed.Title)
		require.NotNil(t, refreshed.Thumbnail)
		assert.Contains(t, refreshed.Thumbnail.URL, "fight-club")
		assert.Equal(t, "Comment", refreshed.Fields[0].Name)

		// The announcement is threaded to the original message.
		require.Len(t, gateway.created, 1)
		reply := gateway.created[0]
		require.NotNil(t, reply.MessageReference)
		assert.Equal(t, messageID, *reply.MessageReference.MessageID)
		assert.Contains(t, reply.Content, "co-signed")
		assert.Contains(t, reply.Content, "bob")
	})

	t.Run("share announcement wording", func(t *testing.T) {
		t.Parallel()

		gateway := newFakeGateway(broadcastMessage(snowflake.ID(900), original()))
		synchronizer := sync.New(&fakeCounter{}, zap.NewNop())

		err := synchronizer.AnnounceOnOriginal(
			context.Background(), gateway, channelID, original(), derived(), false)
		require.NoError(t, err)
		require.Len(t, gateway.created, 1)
		assert.Contains(t, gateway.created[0].Content, "shared")
	})

	t.Run("embed-less broadcast still gets the reply", func(t *testing.T) {
		t.Parallel()

		messageID := snowflake.ID(900)
		bare := broadcastMessage(messageID, original())
		bare.Embeds = nil
		gateway := newFakeGateway(bare)
		synchronizer := sync.New(&fakeCounter{counts: types.DerivationCounts{ShareCount: 1}}, zap.NewNop())

		err := synchronizer.AnnounceOnOriginal(
			context.Background(), gateway, channelID, original(), derived(), true)
		require.NoError(t, err)
		assert.Empty(t, gateway.updated)
		require.Len(t, gateway.created, 1)
	})

	t.Run("missing broadcast skips silently", func(t *testing.T) {
		t.Parallel()

		gateway := newFakeGateway(discord.Message{ID: snowflake.ID(1)})
		counter := &fakeCounter{}
		synchronizer := sync.New(counter, zap.NewNop())

		err := synchronizer.AnnounceOnOriginal(
			context.Background(), gateway, channelID, original(), derived(), true)
		require.NoError(t, err)
		assert.Empty(t, gateway.created)
		assert.Empty(t, gateway.updated)
		assert.Zero(t, counter.calls)
	})

	t.Run("fetch failure still reports success", func(t *testing.T) {
		t.Parallel()

		gateway := newFakeGateway()
		gateway.fetchEr = errors.New("channel gone")
		synchronizer := sync.New(&fakeCounter{}, zap.NewNop())

		err := synchronizer.AnnounceOnOriginal(
			context.Background(), gateway, channelID, original(), derived(), true)
		require.NoError(t, err)
		assert.Empty(t, gateway.created)
	})
}
