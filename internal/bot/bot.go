package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/culturebot/culturebot/internal/bot/constants"
	"github.com/culturebot/culturebot/internal/bot/customid"
	deleteHandler "github.com/culturebot/culturebot/internal/bot/handlers/delete"
	reviewHandler "github.com/culturebot/culturebot/internal/bot/handlers/review"
	searchHandler "github.com/culturebot/culturebot/internal/bot/handlers/search"
	shareHandler "github.com/culturebot/culturebot/internal/bot/handlers/share"
	showreviewHandler "github.com/culturebot/culturebot/internal/bot/handlers/showreview"
	"github.com/culturebot/culturebot/internal/bot/sync"
	"github.com/culturebot/culturebot/internal/bot/utils"
	"github.com/culturebot/culturebot/internal/content"
	"github.com/culturebot/culturebot/internal/database"
	"github.com/culturebot/culturebot/internal/database/types/enum"
)

// Bot owns the Discord client and routes interactions to the flow
// handlers. All cross-event state lives in the store or inside component
// custom IDs, so handlers run independently per event.
type Bot struct {
	client bot.Client
	logger *zap.Logger

	share      *shareHandler.Handler
	review     *reviewHandler.Handler
	search     *searchHandler.Handler
	showReview *showreviewHandler.Handler
	delete     *deleteHandler.Handler
}

// New initializes the bot: handlers first, then the Discord client with
// gateway intents and event listeners.
func New(
	token string,
	db database.Client,
	registry *content.Registry,
	logger *zap.Logger,
) (*Bot, error) {
	reviews := db.Model().Review()
	synchronizer := sync.New(reviews, logger)

	b := &Bot{
		logger:     logger.Named("bot"),
		share:      shareHandler.New(reviews, registry, synchronizer, logger),
		review:     reviewHandler.New(reviews, registry, synchronizer, logger),
		search:     searchHandler.New(reviews, registry, logger),
		showReview: showreviewHandler.New(reviews, registry, logger),
		delete:     deleteHandler.New(reviews, logger),
	}

	client, err := disgo.New(token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
			),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
			OnComponentInteraction:          b.handleComponentInteraction,
			OnModalSubmit:                   b.handleModalSubmit,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client

	return b, nil
}

// Start registers the slash commands globally and opens the gateway.
func (b *Bot) Start() error {
	b.logger.Info("Registering commands")

	commands := []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        constants.ReviewCommandName,
			Description: "Review a movie, series, game or album",
			Options:     mediaSubcommands("Review"),
		},
		discord.SlashCommandCreate{
			Name:        constants.SearchCommandName,
			Description: "Search the catalogs",
			Options:     mediaSubcommands("Search for"),
		},
		discord.SlashCommandCreate{
			Name:        constants.ShowReviewCommandName,
			Description: "See this server's reviews of something",
			Options: mediaSubcommands("Show reviews of",
				discord.ApplicationCommandOptionUser{
					Name:        constants.ReviewerOptionName,
					Description: "Only show this member's review",
				}),
		},
		discord.SlashCommandCreate{
			Name:        constants.DeleteReviewCommandName,
			Description: "Delete your own review",
			Options:     mediaSubcommands("Delete your review of"),
		},
	}

	_, err := b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")

	return b.client.OpenGateway(context.Background())
}

// Close gracefully shuts down the gateway connection.
func (b *Bot) Close() {
	b.logger.Info("Closing bot")
	b.client.Close(context.Background())
}

// mediaSubcommands builds one subcommand per media kind, each taking the
// title to search for plus any extra options.
func mediaSubcommands(verb string, extra ...discord.ApplicationCommandOption) []discord.ApplicationCommandOption {
	kinds := enum.MediaKinds()
	options := make([]discord.ApplicationCommandOption, 0, len(kinds))

	for _, kind := range kinds {
		subOptions := append([]discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        constants.TitleOptionName,
				Description: "The title to search for",
				Required:    true,
			},
		}, extra...)

		options = append(options, discord.ApplicationCommandOptionSubCommand{
			Name:        string(kind),
			Description: fmt.Sprintf("%s %s", verb, kind.WithArticle()),
			Options:     subOptions,
		})
	}

	return options
}

// handleApplicationCommandInteraction routes slash commands. Every
// command funnels through the search picker; the pick verb decides what
// selecting a result does.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		commandName := event.SlashCommandInteractionData().CommandName()
		logger := b.logger.With(
			zap.String("requestID", uuid.New().String()),
			zap.String("command", commandName))

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in command handler", zap.Any("panic", r))
				utils.RespondWithError(event, "Internal error. Please try again.")
			}
			logger.Debug("Command handled", zap.Duration("duration", time.Since(start)))
		}()

		switch commandName {
		case constants.ReviewCommandName:
			b.search.HandleCommand(event, customid.VerbStartReview)
		case constants.SearchCommandName:
			b.search.HandleCommand(event, customid.VerbSearchSelect)
		case constants.ShowReviewCommandName:
			b.search.HandleCommand(event, customid.VerbShowReview)
		case constants.DeleteReviewCommandName:
			b.search.HandleCommand(event, customid.VerbDeleteReview)
		default:
			logger.Warn("Unknown command")
		}
	}()
}

// handleComponentInteraction routes button presses and select choices.
// The component's custom ID carries the action; for the search picker the
// picked option's value carries it instead.
func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	go func() {
		logger := b.logger.With(
			zap.String("requestID", uuid.New().String()),
			zap.String("customID", event.Data.CustomID()))

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in component handler", zap.Any("panic", r))
				utils.RespondWithError(event, "Internal error. Please try again.")
			}
			logger.Debug("Component handled", zap.Duration("duration", time.Since(start)))
		}()

		action, err := customid.Decode(event.Data.CustomID())
		if err != nil {
			logger.Debug("Ignoring unrecognized component", zap.Error(err))
			return
		}

		// The picker's own ID only names the flow; the chosen option's
		// value holds the actual media action.
		if action.Verb == customid.VerbSearchSelect && action.Element == customid.ElementSelect {
			if data, ok := event.Data.(discord.StringSelectMenuInteractionData); ok && len(data.Values) > 0 {
				picked, err := customid.Decode(data.Values[0])
				if err != nil {
					logger.Warn("Picker carried malformed value", zap.Error(err))
					return
				}
				action = picked
			}
		}

		switch action.Verb {
		case customid.VerbShare:
			b.share.HandleShareButton(event, action)
		case customid.VerbCosign:
			b.share.HandleCosignButton(event, action)
		case customid.VerbQuoteButton:
			b.share.HandleQuoteButton(event, action)
		case customid.VerbModeSelect:
			b.share.HandleModeSelect(event, action)
		case customid.VerbConfirmShare, customid.VerbConfirmCosign:
			b.share.HandleConfirm(event, action)
		case customid.VerbCancelShare:
			b.share.HandleCancel(event, action)
		case customid.VerbStartReview, customid.VerbAddReview:
			b.review.HandleStartReview(event, action)
		case customid.VerbReviewScore:
			b.review.HandleScoreSelect(event, action)
		case customid.VerbSearchSelect:
			b.search.HandleSelect(event, action)
		case customid.VerbShowReview:
			b.showReview.HandleSelect(event, action)
		case customid.VerbDeleteReview:
			b.delete.HandleSelect(event, action)
		default:
			logger.Warn("No handler for component verb", zap.String("verb", string(action.Verb)))
		}
	}()
}

// handleModalSubmit routes modal submissions.
func (b *Bot) handleModalSubmit(event *events.ModalSubmitInteractionCreate) {
	go func() {
		logger := b.logger.With(
			zap.String("requestID", uuid.New().String()),
			zap.String("customID", event.Data.CustomID))

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in modal handler", zap.Any("panic", r))
				utils.RespondWithError(event, "Internal error. Please try again.")
			}
			logger.Debug("Modal handled", zap.Duration("duration", time.Since(start)))
		}()

		action, err := customid.Decode(event.Data.CustomID)
		if err != nil {
			logger.Debug("Ignoring unrecognized modal", zap.Error(err))
			return
		}

		switch action.Verb {
		case customid.VerbQuoteModal:
			b.share.HandleQuoteModal(event, action)
		case customid.VerbReviewModal:
			b.review.HandleSubmitModal(event, action)
		default:
			logger.Warn("No handler for modal verb", zap.String("verb", string(action.Verb)))
		}
	}()
}
