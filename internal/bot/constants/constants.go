package constants

import "time"

const (
	// Commands.
	ReviewCommandName       = "review"
	SearchCommandName       = "search"
	ShowReviewCommandName   = "show-review"
	DeleteReviewCommandName = "delete-review"

	// Command options.
	TitleOptionName    = "title"
	ReviewerOptionName = "reviewer"

	// Modal inputs.
	QuoteCommentInputCustomID   = "quote_comment"
	ReviewCommentInputCustomID  = "review_comment"
	ReviewHoursInputCustomID    = "review_hours"
	ReviewReplayInputCustomID   = "review_replayability"
	ReviewThreadNameMaxLength   = 100
	ReviewCommentInputMaxLength = 1000

	// Embeds.
	DefaultEmbedColor = 0x01B4E4
	FooterText        = "Bot of Culture"

	// Limits.
	SearchResultLimit = 5
	ScoreMin          = 1
	ScoreMax          = 5

	// MessageScanLimit bounds how far back the synchronizer looks for a
	// review's original broadcast message.
	MessageScanLimit = 50

	// Interaction handling.
	HandlerTimeout = 30 * time.Second
)
