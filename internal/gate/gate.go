// Package gate enforces the join-our-channel requirement before a request is
// served.
package gate

import (
	"terabox-relay-bot/internal/logger"

	tele "gopkg.in/telebot.v4"
)

// Lookup resolves a user's membership status in a channel. Split out so the
// gate is testable without a live bot.
type Lookup func(channelID, userID int64) (tele.MemberStatus, error)

type Gate struct {
	channelID    int64
	allowOnError bool
	lookup       Lookup
}

// New builds a gate. onLookupError is the configured failure policy, "allow"
// or "deny" (validated by config).
func New(channelID int64, onLookupError string, lookup Lookup) *Gate {
	return &Gate{
		channelID:    channelID,
		allowOnError: onLookupError == "allow",
		lookup:       lookup,
	}
}

// BotLookup adapts a telebot bot into a Lookup.
func BotLookup(bot *tele.Bot) Lookup {
	return func(channelID, userID int64) (tele.MemberStatus, error) {
		member, err := bot.ChatMemberOf(&tele.Chat{ID: channelID}, &tele.User{ID: userID})
		if err != nil {
			return "", err
		}
		return member.Role, nil
	}
}

// Allow reports whether the user may use the bot. Members, administrators,
// and the owner pass; everyone else is denied. A failed lookup follows the
// configured policy.
func (g *Gate) Allow(userID int64) bool {
	role, err := g.lookup(g.channelID, userID)
	if err != nil {
		logger.Error.Printf("membership lookup failed for user %d: %v", userID, err)
		return g.allowOnError
	}

	switch role {
	case tele.Member, tele.Administrator, tele.Creator:
		return true
	default:
		return false
	}
}
