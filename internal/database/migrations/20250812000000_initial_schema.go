package migrations

import (
	"context"
	"fmt"

	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*types.Review)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create reviews table: %w", err)
		}

		// The uniqueness key doubles as the upsert conflict target; the
		// attribution index backs derivation counter queries.
		_, err = db.NewRaw(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_identity
			ON reviews (guild_id, user_id, media_kind, media_id);

			CREATE INDEX IF NOT EXISTS idx_reviews_media
			ON reviews (guild_id, media_kind, media_id);

			CREATE INDEX IF NOT EXISTS idx_reviews_shared_from
			ON reviews (guild_id, media_kind, media_id, shared_from_user_id)
			WHERE shared_from_user_id IS NOT NULL;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create review indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*types.Review)(nil)).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop reviews table: %w", err)
		}

		return nil
	})
}
