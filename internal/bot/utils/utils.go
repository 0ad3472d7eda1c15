package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/culturebot/culturebot/internal/bot/interfaces"
	"github.com/disgoorg/disgo/discord"
)

// FormatStars renders a 1-5 score as a star bar padded with placeholders,
// optionally followed by a label.
func FormatStars(score int, label string) string {
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}

	bar := strings.Repeat("⭐️", score) + strings.Repeat("▪️", 5-score)
	if label == "" {
		return bar
	}

	return bar + "  " + label
}

// FormatDate renders an ISO date string as a readable release date.
// Unparseable or empty input is passed through untouched.
func FormatDate(isoDate string) string {
	if isoDate == "" {
		return ""
	}

	parsed, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}

	return parsed.Format("January 2, 2006")
}

// Truncate shortens text to at most maxLen runes, appending an ellipsis
// when anything was cut.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}

	return strings.TrimSpace(string(runes[:maxLen-1])) + "…"
}

// AverageScore computes the mean of review scores rounded to one decimal,
// rendered for display. Returns "N/A" when there are no scores.
func AverageScore(scores []int) string {
	if len(scores) == 0 {
		return "N/A"
	}

	var sum int
	for _, score := range scores {
		sum += score
	}

	return fmt.Sprintf("%.1f", float64(sum)/float64(len(scores)))
}

// GetTimestampedSubtext returns a timestamped subtext message.
func GetTimestampedSubtext(message string) string {
	if message != "" {
		return fmt.Sprintf("-# `%s` <t:%d:R>", message, time.Now().Unix())
	}
	return ""
}

// RespondWithError replaces the interaction response with an error notice.
func RespondWithError(event interfaces.CommonEvent, message string) {
	messageUpdate := discord.NewMessageUpdateBuilder().
		SetContent(GetTimestampedSubtext("Error: " + message)).
		ClearEmbeds().
		ClearContainerComponents().
		Build()

	_, _ = event.Client().Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), messageUpdate)
}
