package search

import (
	"fmt"
	"strings"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	"github.com/culturebot/culturebot/internal/bot/utils"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database/types"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// ResultsBuilder creates the candidate picker shown after a search.
type ResultsBuilder struct {
	kind     enum.MediaKind
	query    string
	results  []content.Result
	verb     customid.Verb
	reviewer snowflake.ID
}

// NewResultsBuilder creates a new search results builder. verb decides
// what picking a candidate does, so the same picker serves searching,
// browsing reviews and deleting.
func NewResultsBuilder(kind enum.MediaKind, query string, results []content.Result, verb customid.Verb) *ResultsBuilder {
	return &ResultsBuilder{
		kind:    kind,
		query:   query,
		results: results,
		verb:    verb,
	}
}

// WithReviewer narrows the pick actions to one member's review, used by
// the reviewer filter on the listing command.
func (b *ResultsBuilder) WithReviewer(reviewer snowflake.ID) *ResultsBuilder {
	b.reviewer = reviewer
	return b
}

// Build creates the search results message.
func (b *ResultsBuilder) Build() *discord.MessageUpdateBuilder {
	if len(b.results) == 0 {
		return discord.NewMessageUpdateBuilder().
			SetContentf("No %s results found for **%s**.", b.kind.DisplayNoun(), b.query)
	}

	options := make([]discord.StringSelectMenuOption, 0, len(b.results))
	for _, result := range b.results {
		id := customid.Action{
			Verb:     b.verb,
			Kind:     b.kind,
			Element:  customid.ElementSelect,
			MediaID:  result.ID,
			AuthorID: b.reviewer,
		}

		option := discord.NewStringSelectMenuOption(utils.Truncate(result.Title, 100), id.Encode())
		if result.Description != "" {
			option = option.WithDescription(utils.Truncate(result.Description, 100))
		}
		options = append(options, option)
	}

	// The select menu itself needs a stable custom ID; each option value
	// carries the full action for the picked candidate.
	menuID := customid.Action{
		Verb:    customid.VerbSearchSelect,
		Kind:    b.kind,
		Element: customid.ElementSelect,
		MediaID: "results",
	}

	return discord.NewMessageUpdateBuilder().
		SetContentf("Results for **%s**:", b.query).
		AddActionRow(discord.NewStringSelectMenu(menuID.Encode(), "Pick "+b.kind.WithArticle(), options...))
}

// OverviewBuilder creates the media detail embed shown after a candidate
// is picked, along with entry points into the review flow.
type OverviewBuilder struct {
	media   *content.Media
	reviews []*types.Review
}

// NewOverviewBuilder creates a new media overview builder.
func NewOverviewBuilder(media *content.Media, reviews []*types.Review) *OverviewBuilder {
	return &OverviewBuilder{
		media:   media,
		reviews: reviews,
	}
}

// Build creates the media overview message.
func (b *OverviewBuilder) Build() *discord.MessageUpdateBuilder {
	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("%s %s", b.media.Kind.Emoji(), b.media.Title)).
		SetColor(constants.DefaultEmbedColor).
		SetFooter(constants.FooterText, "")

	if b.media.Overview != "" {
		embed.SetDescription(utils.Truncate(b.media.Overview, 1024))
	}

	if b.media.ImageURL != "" {
		embed.SetImage(b.media.ImageURL)
	}

	if b.media.ReleaseDate != "" {
		embed.AddField("Released", utils.FormatDate(b.media.ReleaseDate), true)
	}

	if len(b.media.Genres) > 0 {
		embed.AddField("Genres", strings.Join(b.media.Genres, ", "), true)
	}

	b.addKindFields(embed)

	if len(b.reviews) > 0 {
		scores := make([]int, 0, len(b.reviews))
		for _, review := range b.reviews {
			scores = append(scores, review.Score)
		}
		embed.AddField("Server Rating",
			fmt.Sprintf("%s (%d reviews)", utils.AverageScore(scores), len(b.reviews)), true)
	}

	reviewID := customid.Action{
		Verb:    customid.VerbStartReview,
		Kind:    b.media.Kind,
		Element: customid.ElementButton,
		MediaID: b.media.ID,
	}
	showID := customid.Action{
		Verb:    customid.VerbShowReview,
		Kind:    b.media.Kind,
		Element: customid.ElementButton,
		MediaID: b.media.ID,
	}

	return discord.NewMessageUpdateBuilder().
		SetEmbeds(embed.Build()).
		AddActionRow(
			discord.NewPrimaryButton("Write a review", reviewID.Encode()),
			discord.NewSecondaryButton("See reviews", showID.Encode()),
		)
}

func (b *OverviewBuilder) addKindFields(embed *discord.EmbedBuilder) {
	switch b.media.Kind {
	case enum.MediaKindSeries:
		if b.media.Seasons > 0 {
			embed.AddField("Seasons", fmt.Sprintf("%d (%d episodes)", b.media.Seasons, b.media.Episodes), true)
		}
		if b.media.Status != "" {
			embed.AddField("Status", b.media.Status, true)
		}
	case enum.MediaKindGame:
		if len(b.media.Platforms) > 0 {
			embed.AddField("Platforms", strings.Join(b.media.Platforms, ", "), true)
		}
		if b.media.Rating > 0 {
			embed.AddField("Rating", fmt.Sprintf("%.0f%%", b.media.Rating), true)
		}
		if b.media.Developer != "" {
			embed.AddField("Developer", b.media.Developer, true)
		}
		if b.media.Publisher != "" {
			embed.AddField("Publisher", b.media.Publisher, true)
		}
	case enum.MediaKindMusic:
		if b.media.Artist != "" {
			embed.AddField("Artist", b.media.Artist, true)
		}
		if b.media.Tracks > 0 {
			embed.AddField("Tracks", fmt.Sprintf("%d (%s)", b.media.Tracks, b.media.AlbumType), true)
		}
		if b.media.URL != "" {
			embed.AddField("Listen", b.media.URL, false)
		}
	case enum.MediaKindMovie:
	}
}
