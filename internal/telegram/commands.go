package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/scoring"

	"github.com/go-telegram/bot/models"
)

const helpText = `📋 *Commands*

/orgs — list organisations
/teams <organisation> — list the teams of an organisation
/maturity <team> — maturity of a team
/subscribe — receive a message for every new assessment
/unsubscribe — stop receiving assessment messages`

// commandHandler dispatches bot commands.
func (mb *Bot) commandHandler(ctx context.Context, msg *models.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(commandArguments(msg))

	switch commandText(msg) {
	case "start":
		return mb.handleStart(ctx, chatID, msg)
	case "help":
		return mb.sendMarkdown(ctx, chatID, helpText)
	case "orgs":
		return mb.handleOrgs(ctx, chatID)
	case "teams":
		return mb.handleTeams(ctx, chatID, args)
	case "maturity":
		return mb.handleMaturity(ctx, chatID, args)
	case "subscribe":
		return mb.handleSubscribe(ctx, chatID, msg)
	case "unsubscribe":
		return mb.handleUnsubscribe(ctx, chatID)
	default:
		return mb.sendReply(ctx, chatID,
			fmt.Sprintf("❓ Unknown command: /%s\nUse /help for the list of commands.", commandText(msg)))
	}
}

func (mb *Bot) handleStart(ctx context.Context, chatID int64, msg *models.Message) error {
	name := "there"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}
	text := fmt.Sprintf("👋 Hi, %s!\n\n"+
		"I report the maturity of your teams and services.\n"+
		"Use /help for the list of commands.", name)
	return mb.sendReply(ctx, chatID, text)
}

func (mb *Bot) handleOrgs(ctx context.Context, chatID int64) error {
	orgs, err := mb.dir.ListOrganisations(ctx)
	if err != nil {
		_ = mb.sendReply(ctx, chatID, "❌ Could not load organisations.")
		return fmt.Errorf("handleOrgs: %w", err)
	}
	if len(orgs) == 0 {
		return mb.sendReply(ctx, chatID, "No organisations yet.")
	}

	var b strings.Builder
	b.WriteString("🏢 *Organisations*\n")
	for _, o := range orgs {
		fmt.Fprintf(&b, "\n• %s", escapeMarkdown(o.Name))
	}
	return mb.sendMarkdown(ctx, chatID, b.String())
}

func (mb *Bot) handleTeams(ctx context.Context, chatID int64, orgName string) error {
	if orgName == "" {
		return mb.sendReply(ctx, chatID, "⚠️ Usage: /teams <organisation>")
	}
	org, err := mb.dir.GetOrganisationByName(ctx, orgName)
	if errors.Is(err, domain.ErrNotFound) {
		return mb.sendReply(ctx, chatID, fmt.Sprintf("❌ Organisation «%s» not found.", orgName))
	}
	if err != nil {
		_ = mb.sendReply(ctx, chatID, "❌ Could not load the organisation.")
		return fmt.Errorf("handleTeams: %w", err)
	}

	teams, err := mb.dir.ListTeamsByOrganisationID(ctx, org.ID)
	if err != nil {
		_ = mb.sendReply(ctx, chatID, "❌ Could not load teams.")
		return fmt.Errorf("handleTeams: %w", err)
	}
	if len(teams) == 0 {
		return mb.sendReply(ctx, chatID, fmt.Sprintf("«%s» has no teams yet.", org.Name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 *Teams of %s*\n", escapeMarkdown(org.Name))
	for _, t := range teams {
		fmt.Fprintf(&b, "\n• %s", escapeMarkdown(t.Name))
	}
	return mb.sendMarkdown(ctx, chatID, b.String())
}

func (mb *Bot) handleMaturity(ctx context.Context, chatID int64, teamName string) error {
	if teamName == "" {
		return mb.sendReply(ctx, chatID, "⚠️ Usage: /maturity <team>")
	}
	teams, err := mb.dir.FindTeamsByName(ctx, teamName)
	if err != nil {
		_ = mb.sendReply(ctx, chatID, "❌ Could not load teams.")
		return fmt.Errorf("handleMaturity: %w", err)
	}
	if len(teams) == 0 {
		return mb.sendReply(ctx, chatID, fmt.Sprintf("❌ Team «%s» not found.", teamName))
	}

	parts := make([]string, 0, len(teams))
	for _, t := range teams {
		d, err := mb.dashboards.TeamDashboard(ctx, t.ID, nil)
		if err != nil {
			_ = mb.sendReply(ctx, chatID, "❌ Could not compute maturity.")
			return fmt.Errorf("handleMaturity: %w", err)
		}
		parts = append(parts, formatDashboard(d))
	}
	return mb.sendMarkdown(ctx, chatID, strings.Join(parts, "\n\n"))
}

func (mb *Bot) handleSubscribe(ctx context.Context, chatID int64, msg *models.Message) error {
	if !mb.isAdmin(msg) {
		return mb.sendReply(ctx, chatID, "⛔ Admins only.")
	}
	if !mb.subscribers.add(chatID) {
		return mb.sendReply(ctx, chatID, "This chat is already subscribed.")
	}
	return mb.sendReply(ctx, chatID, "✅ Subscribed. New assessments will be posted here.")
}

func (mb *Bot) handleUnsubscribe(ctx context.Context, chatID int64) error {
	if mb.subscribers.isStatic(chatID) {
		return mb.sendReply(ctx, chatID, "This chat is subscribed in the configuration and cannot unsubscribe.")
	}
	if !mb.subscribers.remove(chatID) {
		return mb.sendReply(ctx, chatID, "This chat is not subscribed.")
	}
	return mb.sendReply(ctx, chatID, "✅ Unsubscribed.")
}

func formatDashboard(d *scoring.Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s*\n", escapeMarkdown(d.Name))
	fmt.Fprintf(&b, "Services: %d, assessed: %d\n", d.Services, d.Maturity.Assessed)
	if d.Maturity.Assessed == 0 {
		b.WriteString("No assessments yet.")
		return b.String()
	}
	fmt.Fprintf(&b, "Maturity: %.2f / %d\n", d.Maturity.Current, domain.MaxLevel)
	if d.Maturity.HasPrior {
		fmt.Fprintf(&b, "Trend: %s\n", formatChange(d.Maturity.Trend))
	} else {
		b.WriteString("Trend: no earlier assessments\n")
	}
	fmt.Fprintf(&b, "Levels: 🔴 %d  🟡 %d  🟢 %d",
		d.Distribution.Low, d.Distribution.Medium, d.Distribution.High)
	return b.String()
}

func formatChange(v float64) string {
	switch {
	case v > 0:
		return fmt.Sprintf("▲ +%.2f", v)
	case v < 0:
		return fmt.Sprintf("▼ %.2f", v)
	default:
		return "± 0.00"
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown escapes user text for the legacy Markdown parse mode.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
