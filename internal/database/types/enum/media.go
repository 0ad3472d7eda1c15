package enum

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMediaKind = errors.New("unknown media kind")

// MediaKind identifies which content catalog a review belongs to.
// The values are stored verbatim in review rows and inside component
// custom IDs, so they must never contain the custom ID delimiter.
type MediaKind string

const (
	MediaKindMovie  MediaKind = "movie"
	MediaKindSeries MediaKind = "series"
	MediaKindGame   MediaKind = "game"
	MediaKindMusic  MediaKind = "music"
)

// MediaKinds lists all valid kinds in display order.
func MediaKinds() []MediaKind {
	return []MediaKind{MediaKindMovie, MediaKindSeries, MediaKindGame, MediaKindMusic}
}

// ParseMediaKind validates a raw kind string decoded from a custom ID or command.
func ParseMediaKind(s string) (MediaKind, error) {
	switch kind := MediaKind(s); kind {
	case MediaKindMovie, MediaKindSeries, MediaKindGame, MediaKindMusic:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMediaKind, s)
	}
}

func (k MediaKind) String() string {
	return string(k)
}

// DisplayNoun returns the noun used when talking about an item of this kind.
func (k MediaKind) DisplayNoun() string {
	if k == MediaKindMusic {
		return "album/single"
	}

	return string(k)
}

// WithArticle returns the display noun with its indefinite article attached.
func (k MediaKind) WithArticle() string {
	if k == MediaKindMusic {
		return "an album/single"
	}

	return "a " + string(k)
}

// Emoji returns the emoji shown next to search results of this kind.
func (k MediaKind) Emoji() string {
	switch k {
	case MediaKindMovie:
		return "🎬"
	case MediaKindSeries:
		return "📺"
	case MediaKindGame:
		return "🎮"
	case MediaKindMusic:
		return "🎵"
	default:
		return ""
	}
}

// Replayability grades how replayable an album or single is.
type Replayability string

const (
	ReplayabilityLow    Replayability = "LOW"
	ReplayabilityMedium Replayability = "MEDIUM"
	ReplayabilityHigh   Replayability = "HIGH"
)

// ParseReplayability parses free-form modal input into a replayability grade,
// normalizing case and surrounding whitespace. Returns false when the input
// does not name a valid grade.
func ParseReplayability(s string) (Replayability, bool) {
	switch Replayability(strings.ToUpper(strings.TrimSpace(s))) {
	case ReplayabilityLow:
		return ReplayabilityLow, true
	case ReplayabilityMedium:
		return ReplayabilityMedium, true
	case ReplayabilityHigh:
		return ReplayabilityHigh, true
	default:
		return "", false
	}
}

func (r Replayability) String() string {
	return string(r)
}
