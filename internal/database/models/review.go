package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ReviewModel handles database operations for review rows.
type ReviewModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReview creates a new review model.
func NewReview(db *bun.DB, logger *zap.Logger) *ReviewModel {
	return &ReviewModel{
		db:     db,
		logger: logger.Named("db_review"),
	}
}

// FindByUser retrieves the review a specific member left for a media item in a
// guild. Returns nil without error when the member has not reviewed the item.
func (r *ReviewModel) FindByUser(
	ctx context.Context, kind enum.MediaKind, mediaID string, guildID, userID snowflake.ID,
) (*types.Review, error) {
	review := new(types.Review)

	err := r.db.NewSelect().
		Model(review).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Where("media_kind = ?", kind).
		Where("media_id = ?", mediaID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// FindByMedia retrieves every review of a media item in a guild, newest first.
func (r *ReviewModel) FindByMedia(
	ctx context.Context, kind enum.MediaKind, mediaID string, guildID snowflake.ID,
) ([]*types.Review, error) {
	var reviews []*types.Review

	err := r.db.NewSelect().
		Model(&reviews).
		Where("guild_id = ?", guildID).
		Where("media_kind = ?", kind).
		Where("media_id = ?", mediaID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// Upsert inserts a review or, when the member already reviewed this media item
// in this guild, replaces the previous score, comment and attribution in place.
// The write is a single atomic statement so two quick submissions can never
// produce duplicate rows. Returns the stored row and whether it was newly created.
func (r *ReviewModel) Upsert(ctx context.Context, review *types.Review) (*types.Review, bool, error) {
	// Insert sets both timestamps to the same instant; the conflict branch
	// only advances updated_at. Equality of the returned timestamps is
	// therefore the created/updated signal.
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	err := r.db.NewInsert().
		Model(review).
		On("CONFLICT (guild_id, user_id, media_kind, media_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("score = EXCLUDED.score").
		Set("comment = EXCLUDED.comment").
		Set("hours_played = EXCLUDED.hours_played").
		Set("replayability = EXCLUDED.replayability").
		Set("shared_from_user_id = EXCLUDED.shared_from_user_id").
		Set("shared_from_username = EXCLUDED.shared_from_username").
		Set("shared_from_comment = EXCLUDED.shared_from_comment").
		Set("is_quote = EXCLUDED.is_quote").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert review: %w", err)
	}

	created := review.CreatedAt.Equal(review.UpdatedAt)

	r.logger.Debug("Upserted review",
		zap.Uint64("guild_id", uint64(review.GuildID)),
		zap.Uint64("user_id", uint64(review.UserID)),
		zap.String("media_kind", review.MediaKind.String()),
		zap.String("media_id", review.MediaID),
		zap.Bool("created", created))

	return review, created, nil
}

// CountDerivations counts the reviews derived from one member's review of a
// media item, partitioned into exact shares/co-signs and quotes.
func (r *ReviewModel) CountDerivations(
	ctx context.Context, kind enum.MediaKind, mediaID string, guildID, sourceUserID snowflake.ID,
) (types.DerivationCounts, error) {
	var counts types.DerivationCounts

	err := r.db.NewSelect().
		Model((*types.Review)(nil)).
		ColumnExpr("count(*) FILTER (WHERE NOT is_quote) AS share_count").
		ColumnExpr("count(*) FILTER (WHERE is_quote) AS quote_count").
		Where("guild_id = ?", guildID).
		Where("media_kind = ?", kind).
		Where("media_id = ?", mediaID).
		Where("shared_from_user_id = ?", sourceUserID).
		Scan(ctx, &counts)
	if err != nil {
		return types.DerivationCounts{}, fmt.Errorf("failed to count derivations: %w", err)
	}

	return counts, nil
}

// Delete removes a member's own review of a media item. Returns false when
// there was nothing to delete.
func (r *ReviewModel) Delete(
	ctx context.Context, kind enum.MediaKind, mediaID string, guildID, userID snowflake.ID,
) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*types.Review)(nil)).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID). // Only allow deleting own reviews
		Where("media_kind = ?", kind).
		Where("media_id = ?", mediaID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete review: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}
