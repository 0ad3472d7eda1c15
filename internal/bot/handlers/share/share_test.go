package share

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/sync"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/culturebot/culturebot/internal/review"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testGuildID   = snowflake.ID(1)
	testChannelID = snowflake.ID(555)
	aliceID       = snowflake.ID(10)
	bobID         = snowflake.ID(20)
)

type fakeStore struct {
	reviews   map[snowflake.ID]*types.Review
	findErr   error
	upsertErr error
	upserted  []*types.Review
}

func (f *fakeStore) FindByUser(_ context.Context, _ enum.MediaKind, _ string, _ snowflake.ID, userID snowflake.ID) (*types.Review, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.reviews[userID], nil
}

func (f *fakeStore) Upsert(_ context.Context, record *types.Review) (*types.Review, bool, error) {
	if f.upsertErr != nil {
		return nil, false, f.upsertErr
	}
	f.upserted = append(f.upserted, record)
	return record, true, nil
}

type stubProvider struct {
	media *content.Media
}

func (s *stubProvider) Search(context.Context, string) ([]content.Result, error) {
	return nil, nil
}

func (s *stubProvider) GetByID(context.Context, string) (*content.Media, error) {
	return s.media, nil
}

type stubResolver struct {
	provider content.Provider
}

func (s *stubResolver) For(enum.MediaKind) (content.Provider, error) {
	if s.provider == nil {
		return nil, errors.New("no provider configured")
	}
	return s.provider, nil
}

type announceCall struct {
	original *types.Review
	derived  *types.Review
	cosign   bool
}

type fakeBroadcaster struct {
	broadcasts []*types.Review
	announces  []announceCall
}

func (f *fakeBroadcaster) BroadcastNew(_ context.Context, _ sync.MessageGateway, _ snowflake.ID, record *types.Review, _ *content.Media) error {
	f.broadcasts = append(f.broadcasts, record)
	return nil
}

func (f *fakeBroadcaster) AnnounceOnOriginal(_ context.Context, _ sync.MessageGateway, _ snowflake.ID, original, derived *types.Review, cosign bool) error {
	f.announces = append(f.announces, announceCall{original: original, derived: derived, cosign: cosign})
	return nil
}

func aliceReview() *types.Review {
	comment := "I am Jack's complete lack of surprise."
	return &types.Review{
		GuildID:   testGuildID,
		UserID:    aliceID,
		Username:  "alice",
		MediaKind: enum.MediaKindMovie,
		MediaID:   "550",
		Score:     5,
		Comment:   &comment,
	}
}

func bobReview() *types.Review {
	return &types.Review{
		GuildID:   testGuildID,
		UserID:    bobID,
		Username:  "bob",
		MediaKind: enum.MediaKindMovie,
		MediaID:   "550",
		Score:     3,
	}
}

func cosignAction() customid.Action {
	return customid.Action{
		Verb:     customid.VerbCosign,
		Kind:     enum.MediaKindMovie,
		Element:  customid.ElementButton,
		MediaID:  "550",
		AuthorID: aliceID,
	}
}

// fixture wires the handler against fakes and captures every ephemeral
// response the flow sends.
type fixture struct {
	handler     *Handler
	store       *fakeStore
	broadcaster *fakeBroadcaster
	responses   []discord.MessageUpdate
}

func newFixture(reviews ...*types.Review) *fixture {
	store := &fakeStore{reviews: make(map[snowflake.ID]*types.Review)}
	for _, r := range reviews {
		store.reviews[r.UserID] = r
	}

	broadcaster := &fakeBroadcaster{}
	resolver := &stubResolver{provider: &stubProvider{media: &content.Media{
		ID:    "550",
		Kind:  enum.MediaKindMovie,
		Title: "Fight Club",
	}}}

	return &fixture{
		handler:     New(store, resolver, broadcaster, zap.NewNop()),
		store:       store,
		broadcaster: broadcaster,
	}
}

func (f *fixture) session() session {
	guildID := testGuildID
	return session{
		actor: review.Identity{
			UserID:   bobID,
			Username: "bob",
			GuildID:  guildID,
		},
		guildID:   &guildID,
		channelID: testChannelID,
		respond: func(update discord.MessageUpdate) {
			f.responses = append(f.responses, update)
		},
	}
}

func (f *fixture) lastResponse(t *testing.T) discord.MessageUpdate {
	t.Helper()
	require.NotEmpty(t, f.responses)
	return f.responses[len(f.responses)-1]
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("co-sign persists then announces on the original", func(t *testing.T) {
		t.Parallel()

		f := newFixture(aliceReview())
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeCosign, nil, false)

		require.Len(t, f.store.upserted, 1)
		record := f.store.upserted[0]
		assert.Equal(t, bobID, record.UserID)
		assert.Equal(t, 5, record.Score)
		require.NotNil(t, record.SharedFromUserID)
		assert.Equal(t, aliceID, *record.SharedFromUserID)
		assert.False(t, record.IsQuote)

		require.Len(t, f.broadcaster.announces, 1)
		announce := f.broadcaster.announces[0]
		assert.True(t, announce.cosign)
		assert.Same(t, record, announce.derived)
		assert.Equal(t, aliceID, announce.original.UserID)
		assert.Empty(t, f.broadcaster.broadcasts)

		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, fmt.Sprintf(msgCosignComplete, "alice"), *last.Content)
	})

	t.Run("share over an existing review gates on confirmation", func(t *testing.T) {
		t.Parallel()

		f := newFixture(aliceReview(), bobReview())
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeShare, nil, false)

		assert.Empty(t, f.store.upserted)
		assert.Empty(t, f.broadcaster.announces)
		assert.Empty(t, f.broadcaster.broadcasts)

		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Contains(t, *last.Content, "Are you sure?")
	})

	t.Run("confirmed share replaces the existing review", func(t *testing.T) {
		t.Parallel()

		f := newFixture(aliceReview(), bobReview())
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeShare, nil, true)

		require.Len(t, f.store.upserted, 1)
		assert.Equal(t, 5, f.store.upserted[0].Score)

		require.Len(t, f.broadcaster.announces, 1)
		assert.False(t, f.broadcaster.announces[0].cosign)

		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, fmt.Sprintf(msgShareComplete, "alice"), *last.Content)
	})

	t.Run("quote posts a new broadcast", func(t *testing.T) {
		t.Parallel()

		comment := "The twist still lands on a rewatch."
		f := newFixture(aliceReview())
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeQuote, &comment, false)

		require.Len(t, f.store.upserted, 1)
		record := f.store.upserted[0]
		assert.True(t, record.IsQuote)
		require.NotNil(t, record.Comment)
		assert.Equal(t, comment, *record.Comment)

		require.Len(t, f.broadcaster.broadcasts, 1)
		assert.Same(t, record, f.broadcaster.broadcasts[0])
		assert.Empty(t, f.broadcaster.announces)

		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, msgQuotePosted, *last.Content)
	})

	t.Run("blank quote comment writes nothing", func(t *testing.T) {
		t.Parallel()

		comment := "   "
		f := newFixture(aliceReview())
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeQuote, &comment, false)

		assert.Empty(t, f.store.upserted)
		assert.Empty(t, f.broadcaster.broadcasts)

		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, msgEmptyComment, *last.Content)
	})

	t.Run("quote without collected comment writes nothing", func(t *testing.T) {
		t.Parallel()

		f := newFixture(aliceReview())
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeQuote, nil, false)

		assert.Empty(t, f.store.upserted)
		assert.Empty(t, f.broadcaster.broadcasts)

		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, msgEmptyComment, *last.Content)
	})

	t.Run("deriving from own review is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(bobReview())
		action := cosignAction()
		action.AuthorID = bobID
		f.handler.run(context.Background(), f.session(), action, review.ModeCosign, nil, false)

		assert.Empty(t, f.store.upserted)
		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, msgOwnReview, *last.Content)
	})

	t.Run("missing original is reported", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeCosign, nil, false)

		assert.Empty(t, f.store.upserted)
		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, msgOriginalGone, *last.Content)
	})

	t.Run("store read failure aborts the flow", func(t *testing.T) {
		t.Parallel()

		f := newFixture(aliceReview())
		f.store.findErr = errors.New("connection reset")
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeCosign, nil, false)

		assert.Empty(t, f.store.upserted)
		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, msgStoreFailed, *last.Content)
	})

	t.Run("persist failure stops before any message goes out", func(t *testing.T) {
		t.Parallel()

		f := newFixture(aliceReview())
		f.store.upsertErr = errors.New("connection reset")
		f.handler.run(context.Background(), f.session(), cosignAction(), review.ModeCosign, nil, false)

		assert.Empty(t, f.broadcaster.announces)
		assert.Empty(t, f.broadcaster.broadcasts)

		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, msgStoreFailed, *last.Content)
	})

	t.Run("outside a guild nothing runs", func(t *testing.T) {
		t.Parallel()

		f := newFixture(aliceReview())
		sess := f.session()
		sess.guildID = nil
		f.handler.run(context.Background(), sess, cosignAction(), review.ModeCosign, nil, false)

		assert.Empty(t, f.store.upserted)
		last := f.lastResponse(t)
		require.NotNil(t, last.Content)
		assert.Equal(t, msgGuildOnly, *last.Content)
	})
}
