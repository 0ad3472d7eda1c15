package types

import (
	"time"

	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// Review is one member's review of one media item in one guild.
// At most one row exists per (guild, user, media kind, media item); a
// re-submission updates the row in place.
//
// A review is "original" when SharedFromUserID is nil. Otherwise it was
// derived from another member's review via share, quote or co-sign, and the
// SharedFrom* fields snapshot the source review at derivation time.
type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ID        int64          `bun:"id,pk,autoincrement" json:"id"`
	GuildID   snowflake.ID   `bun:"guild_id,notnull"    json:"guildId"`
	UserID    snowflake.ID   `bun:"user_id,notnull"     json:"userId"`
	Username  string         `bun:"username,notnull"    json:"username"`
	MediaKind enum.MediaKind `bun:"media_kind,notnull"  json:"mediaKind"`
	MediaID   string         `bun:"media_id,notnull"    json:"mediaId"`

	// Score is always 1-5. On derived reviews it is copied verbatim from
	// the source review.
	Score   int     `bun:"score,notnull" json:"score"`
	Comment *string `bun:"comment"       json:"comment"`

	// Kind-specific optional attributes.
	HoursPlayed   *int                `bun:"hours_played"  json:"hoursPlayed"`   // game only
	Replayability *enum.Replayability `bun:"replayability" json:"replayability"` // music only

	// Attribution fields, set only on derived reviews. SharedFromComment is
	// a point-in-time copy of the source comment; it does not follow later
	// edits of the source review.
	SharedFromUserID   *snowflake.ID `bun:"shared_from_user_id"  json:"sharedFromUserId"`
	SharedFromUsername *string       `bun:"shared_from_username" json:"sharedFromUsername"`
	SharedFromComment  *string       `bun:"shared_from_comment"  json:"sharedFromComment"`
	IsQuote            bool          `bun:"is_quote,notnull"     json:"isQuote"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// IsDerived reports whether this review was produced by a share, quote or co-sign.
func (r *Review) IsDerived() bool {
	return r.SharedFromUserID != nil
}

// CommentText returns the comment or the empty string when none was left.
func (r *Review) CommentText() string {
	if r.Comment == nil {
		return ""
	}

	return *r.Comment
}

// DerivationCounts partitions the derived reviews of one source review into
// exact shares/co-signs and quotes.
type DerivationCounts struct {
	ShareCount int `bun:"share_count" json:"shareCount"`
	QuoteCount int `bun:"quote_count" json:"quoteCount"`
}

// Total returns the combined number of derivations.
func (c DerivationCounts) Total() int {
	return c.ShareCount + c.QuoteCount
}
