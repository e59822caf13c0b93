package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/scoring"
)

// AssessmentSubmitted posts a summary of a new assessment to every
// subscribed chat.
func (mb *Bot) AssessmentSubmitted(ctx context.Context, n scoring.SubmittedNotice) error {
	op := "telegram.AssessmentSubmitted"

	chats := mb.subscribers.list()
	if len(chats) == 0 {
		return nil
	}

	text := formatNotice(n)
	var errs []error
	for _, chatID := range chats {
		if err := mb.sendMarkdown(ctx, chatID, text); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	mb.log.Debug("assessment notice sent",
		slog.String("op", op),
		slog.String("assessment_id", n.Report.AssessmentID.String()),
		slog.Int("chats", len(chats)))
	return nil
}

func formatNotice(n scoring.SubmittedNotice) string {
	r := n.Report

	var b strings.Builder
	fmt.Fprintf(&b, "📝 *New assessment* for *%s*\n", escapeMarkdown(n.Service.Name))
	fmt.Fprintf(&b, "Template: %s %s\n", escapeMarkdown(r.TemplateName), r.TemplateVersion)
	if r.AssessedBy != "" {
		fmt.Fprintf(&b, "By: %s\n", escapeMarkdown(r.AssessedBy))
	}
	fmt.Fprintf(&b, "Overall: %.2f / %d", r.OverallScore, domain.MaxLevel)
	if r.Delta.HasPrior {
		fmt.Fprintf(&b, " (%s)", formatChange(r.Delta.Value))
	} else {
		b.WriteString(" (first assessment)")
	}
	b.WriteString("\n")

	for _, fs := range r.FacetScores {
		fmt.Fprintf(&b, "\n• %s: %.0f", escapeMarkdown(fs.Name), fs.Score)
		if r.Delta.HasPrior && fs.PreviousScore != fs.Score {
			fmt.Fprintf(&b, " (was %.0f)", fs.PreviousScore)
		}
	}
	return b.String()
}
