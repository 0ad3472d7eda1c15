// Package review contains the decision logic for deriving one user's
// review from another's. The engine is pure: it inspects the original
// review, the requester's existing review and the requested mode, and
// produces a plan describing either the next UI step or the exact row
// to persist. Persistence and message delivery happen elsewhere.
package review

import (
	"fmt"
	"strings"

	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/disgoorg/snowflake/v2"
)

// Mode selects how a review is derived from its original.
type Mode string

const (
	// ModeShare copies the score verbatim with no comment.
	ModeShare Mode = "share"
	// ModeQuote copies the score and attaches a new personal comment.
	ModeQuote Mode = "quote"
	// ModeCosign copies the score like a share but announces on the
	// original broadcast message instead of a new one.
	ModeCosign Mode = "cosign"
)

// ParseMode converts a string carried in a component custom ID back into
// a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeShare, ModeQuote, ModeCosign:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// SyncTarget names which messages the synchronizer touches after a
// successful persist.
type SyncTarget int

const (
	// SyncNewBroadcast posts a full new review message.
	SyncNewBroadcast SyncTarget = iota
	// SyncEditOriginal replies to the original broadcast and refreshes
	// its derivation counters in place.
	SyncEditOriginal
)

// Identity names the user performing a derivation.
type Identity struct {
	UserID   snowflake.ID
	Username string
	GuildID  snowflake.ID
}

// Request carries one derivation attempt. Comment is nil while the quote
// text has not been collected yet; Confirmed is set once the user has
// explicitly approved replacing their existing review.
type Request struct {
	Mode      Mode
	Requester Identity
	Comment   *string
	Confirmed bool
}

// DerivationPlan is the engine's verdict. Exactly one of the three
// outcomes applies: a confirmation gate, a comment gate, or a terminal
// plan carrying the row to upsert.
type DerivationPlan struct {
	// RequiresConfirmation is set when persisting would overwrite the
	// requester's existing review and they have not yet approved it.
	RequiresConfirmation bool
	// ReplacementScore is the score that will replace the existing one,
	// for display in the confirmation prompt.
	ReplacementScore int
	// ExistingScore is the score currently on record for the requester.
	ExistingScore int

	// RequiresComment is set when a quote still needs its text.
	RequiresComment bool
	// CommentPrefill is the requester's current comment, offered as an
	// editable starting point in the text entry.
	CommentPrefill string

	// Review is the exact row to upsert. Set only on terminal plans.
	Review *types.Review
	// Sync names the message synchronization the terminal plan needs.
	Sync SyncTarget
}

// Terminal reports whether the plan is ready to persist.
func (p *DerivationPlan) Terminal() bool {
	return p.Review != nil
}

// PlanDerivation decides the next step for a derivation attempt.
// original is the source review being shared, quoted or co-signed;
// existing is the requester's own review for the same media, or nil.
// Validation failures surface as the package's sentinel errors and imply
// that nothing may be written.
func PlanDerivation(original, existing *types.Review, req Request) (*DerivationPlan, error) {
	if original == nil {
		return nil, ErrOriginalNotFound
	}
	if original.UserID == req.Requester.UserID {
		return nil, ErrSelfDerivation
	}

	switch req.Mode {
	case ModeShare, ModeCosign:
		if existing != nil && !req.Confirmed {
			return &DerivationPlan{
				RequiresConfirmation: true,
				ReplacementScore:     original.Score,
				ExistingScore:        existing.Score,
			}, nil
		}
		return terminalPlan(original, req, nil), nil

	case ModeQuote:
		if req.Comment == nil {
			plan := &DerivationPlan{RequiresComment: true}
			if existing != nil {
				plan.CommentPrefill = existing.CommentText()
			}
			return plan, nil
		}

		comment := strings.TrimSpace(*req.Comment)
		if comment == "" {
			return nil, ErrEmptyComment
		}
		return terminalPlan(original, req, &comment), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
}

// terminalPlan builds the row to persist. The score is always the
// original's, attribution fields snapshot the original at this moment,
// and kind-specific attributes carry over with the score.
func terminalPlan(original *types.Review, req Request, comment *string) *DerivationPlan {
	isQuote := req.Mode == ModeQuote

	sourceID := original.UserID
	record := &types.Review{
		GuildID:          req.Requester.GuildID,
		UserID:           req.Requester.UserID,
		Username:         req.Requester.Username,
		MediaKind:        original.MediaKind,
		MediaID:          original.MediaID,
		Score:            original.Score,
		Comment:          comment,
		HoursPlayed:      original.HoursPlayed,
		Replayability:    original.Replayability,
		SharedFromUserID: &sourceID,
		IsQuote:          isQuote,
	}

	username := original.Username
	record.SharedFromUsername = &username

	if original.Comment != nil {
		snapshot := *original.Comment
		record.SharedFromComment = &snapshot
	}

	sync := SyncEditOriginal
	if isQuote {
		sync = SyncNewBroadcast
	}

	return &DerivationPlan{Review: record, Sync: sync}
}
