// Package customid encodes interaction context into Discord component
// custom IDs. Multi-step flows run across independently-dispatched
// events with no server-side session, so every button, select menu and
// modal carries the full context its handler needs to resume: the action
// verb, the media kind and ID, the original author, and for confirmation
// steps the chosen derivation mode. The encoded string is treated as a
// capability token and validated strictly on decode.
package customid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/snowflake/v2"
)

// ErrMalformed indicates a custom ID that does not match the encoding
// schema. Malformed IDs are rejected outright rather than partially
// interpreted.
var ErrMalformed = errors.New("malformed custom id")

const separator = "_"

// Verb names the handler action a component triggers.
type Verb string

const (
	// Derivation flow.
	VerbShare         Verb = "shareReview"
	VerbCosign        Verb = "cosignReview"
	VerbQuoteButton   Verb = "quoteReviewButton"
	VerbModeSelect    Verb = "shareMode"
	VerbConfirmShare  Verb = "confirmShare"
	VerbConfirmCosign Verb = "confirmCosign"
	VerbCancelShare   Verb = "cancelShare"
	VerbQuoteModal    Verb = "quoteReview"

	// Review submission flow.
	VerbAddReview   Verb = "addNewReview"
	VerbStartReview Verb = "startReview"
	VerbReviewScore Verb = "reviewScore"
	VerbReviewModal Verb = "reviewComment"

	// Search and management.
	VerbSearchSelect Verb = "searchSelect"
	VerbShowReview   Verb = "showReview"
	VerbDeleteReview Verb = "deleteReview"
)

// knownVerbs guards decode: an unknown verb means the ID was not
// produced by this bot.
var knownVerbs = map[Verb]struct{}{
	VerbShare:         {},
	VerbCosign:        {},
	VerbQuoteButton:   {},
	VerbModeSelect:    {},
	VerbConfirmShare:  {},
	VerbConfirmCosign: {},
	VerbCancelShare:   {},
	VerbQuoteModal:    {},
	VerbAddReview:     {},
	VerbStartReview:   {},
	VerbReviewScore:   {},
	VerbReviewModal:   {},
	VerbSearchSelect:  {},
	VerbShowReview:    {},
	VerbDeleteReview:  {},
}

// Element tags which component type carries the ID, keeping IDs unique
// when one flow step renders several components for the same action.
type Element string

const (
	ElementButton Element = "button"
	ElementSelect Element = "select"
	ElementModal  Element = "modal"
)

// Action is the decoded interaction context.
type Action struct {
	Verb    Verb
	Kind    enum.MediaKind
	Element Element
	MediaID string
	// AuthorID identifies the original review's author. Zero when the
	// action has no original author, such as search selections.
	AuthorID snowflake.ID
	// Mode carries the chosen derivation mode through the confirmation
	// step. Empty for all other actions.
	Mode string
}

// Encode serializes the action into a component custom ID.
func (a Action) Encode() string {
	parts := []string{
		string(a.Verb),
		string(a.Kind),
		string(a.Element),
		a.MediaID,
		a.AuthorID.String(),
	}
	if a.Mode != "" {
		parts = append(parts, a.Mode)
	}

	return strings.Join(parts, separator)
}

// Decode parses a component custom ID back into an action. Every field
// is validated; IDs with missing fields, unknown verbs or kinds, or
// non-numeric author IDs are rejected.
func Decode(id string) (Action, error) {
	parts := strings.Split(id, separator)
	if len(parts) != 5 && len(parts) != 6 {
		return Action{}, fmt.Errorf("%w: expected 5 or 6 fields, got %d", ErrMalformed, len(parts))
	}

	verb := Verb(parts[0])
	if _, ok := knownVerbs[verb]; !ok {
		return Action{}, fmt.Errorf("%w: unknown verb %q", ErrMalformed, parts[0])
	}

	kind, err := enum.ParseMediaKind(parts[1])
	if err != nil {
		return Action{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	element := Element(parts[2])
	switch element {
	case ElementButton, ElementSelect, ElementModal:
	default:
		return Action{}, fmt.Errorf("%w: unknown element %q", ErrMalformed, parts[2])
	}

	if parts[3] == "" {
		return Action{}, fmt.Errorf("%w: empty media id", ErrMalformed)
	}

	authorID, err := snowflake.Parse(parts[4])
	if err != nil {
		return Action{}, fmt.Errorf("%w: invalid author id %q", ErrMalformed, parts[4])
	}

	action := Action{
		Verb:     verb,
		Kind:     kind,
		Element:  element,
		MediaID:  parts[3],
		AuthorID: authorID,
	}
	if len(parts) == 6 {
		if parts[5] == "" {
			return Action{}, fmt.Errorf("%w: empty mode", ErrMalformed)
		}
		action.Mode = parts[5]
	}

	return action, nil
}

// Is reports whether the custom ID carries the given verb, without
// decoding the rest of the fields.
func Is(id string, verb Verb) bool {
	return strings.HasPrefix(id, string(verb)+separator)
}
