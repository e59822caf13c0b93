package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"MaturityBoard/internal/config"
	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/scoring"
	"MaturityBoard/internal/utils/logger/sl"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

const maxMessageLength = 4096

// Directory is the read side of the hierarchy the bot browses.
type Directory interface {
	ListOrganisations(ctx context.Context) ([]domain.Organisation, error)
	GetOrganisationByName(ctx context.Context, name string) (*domain.Organisation, error)
	ListTeamsByOrganisationID(ctx context.Context, orgID uuid.UUID) ([]domain.Team, error)
	FindTeamsByName(ctx context.Context, name string) ([]domain.Team, error)
}

type Dashboards interface {
	TeamDashboard(ctx context.Context, teamID uuid.UUID, templateID *uuid.UUID) (*scoring.Dashboard, error)
}

// sender is the part of *bot.Bot used to reply.
type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Bot is the Telegram bot for MaturityBoard. It answers read-only commands
// and pushes a message to subscribed chats for every new assessment.
type Bot struct {
	b           *bot.Bot
	api         sender
	cfg         config.BotConfig
	dir         Directory
	dashboards  Dashboards
	subscribers *subscriberStore
	ctx         context.Context
	cancel      context.CancelFunc
	log         *slog.Logger
}

// New creates a new Bot instance. It returns nil if the token is rejected.
func New(
	logger *slog.Logger,
	cfg config.BotConfig,
	dir Directory,
	dashboards Dashboards,
) *Bot {
	op := "telegram.New()"
	log := logger.With(slog.String("op", op))

	mb := newBot(logger, cfg, dir, dashboards)

	b, err := bot.New(cfg.TgbotApiToken,
		bot.WithDefaultHandler(mb.defaultHandler),
	)
	if err != nil {
		log.Error("error auth telegram bot", sl.Err(err))
		mb.cancel()
		return nil
	}

	mb.b = b
	mb.api = b

	log.Info("telegram bot created")
	return mb
}

func newBot(logger *slog.Logger, cfg config.BotConfig, dir Directory, dashboards Dashboards) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		cfg:         cfg,
		dir:         dir,
		dashboards:  dashboards,
		subscribers: newSubscriberStore(cfg.NotifyChatIDs),
		ctx:         ctx,
		cancel:      cancel,
		log:         logger.With(slog.String("component", "telegram")),
	}
}

// defaultHandler is the single entry point for all updates from go-telegram/bot.
func (mb *Bot) defaultHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	op := "telegram.defaultHandler()"
	log := mb.log.With(slog.String("op", op))

	if update.Message == nil {
		return
	}
	msg := update.Message
	if msg.From != nil {
		log.Info("input message",
			slog.String("user_id", strconv.FormatInt(msg.From.ID, 10)),
			slog.String("user_name", msg.From.Username),
			slog.String("text", msg.Text),
		)
	}

	if !isCommand(msg) {
		return
	}
	if err := mb.commandHandler(ctx, msg); err != nil {
		log.Error("command handler error", sl.Err(err))
	}
}

// isCommand reports whether msg is a bot command.
func isCommand(msg *models.Message) bool {
	if msg == nil || len(msg.Entities) == 0 {
		return false
	}
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			return true
		}
	}
	return false
}

// commandText extracts /command from a message (without @botname suffix).
func commandText(msg *models.Message) string {
	if msg == nil || len(msg.Entities) == 0 {
		return ""
	}
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			runes := []rune(msg.Text)
			end := min(e.Offset+e.Length, len(runes))
			cmd := string(runes[e.Offset:end])
			// strip leading slash
			if len(cmd) > 0 && cmd[0] == '/' {
				cmd = cmd[1:]
			}
			// strip @botname if present
			for i, c := range cmd {
				if c == '@' {
					cmd = cmd[:i]
					break
				}
			}
			return cmd
		}
	}
	return ""
}

// commandArguments returns the text that follows the first /command entity.
func commandArguments(msg *models.Message) string {
	if msg == nil || len(msg.Entities) == 0 {
		return ""
	}
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			end := e.Offset + e.Length
			runes := []rune(msg.Text)
			if end >= len(runes) {
				return ""
			}
			// skip one space after command
			rest := string(runes[end:])
			if len(rest) > 0 && rest[0] == ' ' {
				rest = rest[1:]
			}
			return rest
		}
	}
	return ""
}

// Start begins polling for Telegram updates and blocks until Shutdown.
func (mb *Bot) Start() {
	mb.log.Info("starting telegram bot polling")
	mb.b.Start(mb.ctx)
	mb.log.Info("telegram bot polling stopped")
}

// sendReply sends a plain-text reply, split into message-sized chunks.
func (mb *Bot) sendReply(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitTextIntoChunks(text, maxMessageLength) {
		p := &bot.SendMessageParams{
			ChatID: chatID,
			Text:   chunk,
		}
		if _, err := mb.api.SendMessage(ctx, p); err != nil {
			return fmt.Errorf("sendReply: %w", err)
		}
	}
	return nil
}

// sendMarkdown sends a Markdown-formatted reply to the given chat.
func (mb *Bot) sendMarkdown(ctx context.Context, chatID int64, text string) error {
	p := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	}
	if _, err := mb.api.SendMessage(ctx, p); err != nil {
		return fmt.Errorf("sendMarkdown: %w", err)
	}
	return nil
}

// splitTextIntoChunks splits text into chunks of the specified size.
func splitTextIntoChunks(text string, chunkSize int) []string {
	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); i += chunkSize {
		end := min(i+chunkSize, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// Shutdown gracefully stops the bot.
func (mb *Bot) Shutdown(_ context.Context) error {
	mb.cancel()
	return nil
}
