package telegram

import (
	"strings"

	"github.com/go-telegram/bot/models"
)

// isAdmin checks if the message sender is in the admins list. With no admins
// configured everyone is allowed.
func (mb *Bot) isAdmin(msg *models.Message) bool {
	if len(mb.cfg.Admins) == 0 {
		return true
	}
	if msg == nil || msg.From == nil {
		return false
	}
	for _, admin := range mb.cfg.Admins {
		if strings.EqualFold(strings.TrimPrefix(admin, "@"), msg.From.Username) {
			return true
		}
	}
	return false
}
