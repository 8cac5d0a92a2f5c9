package gate

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func staticLookup(role tele.MemberStatus, err error) Lookup {
	return func(channelID, userID int64) (tele.MemberStatus, error) {
		return role, err
	}
}

func TestAllow(t *testing.T) {
	tests := []struct {
		name          string
		role          tele.MemberStatus
		err           error
		onLookupError string
		want          bool
	}{
		{"member", tele.Member, nil, "deny", true},
		{"administrator", tele.Administrator, nil, "deny", true},
		{"owner", tele.Creator, nil, "deny", true},
		{"left", tele.Left, nil, "deny", false},
		{"kicked", tele.Kicked, nil, "deny", false},
		{"restricted", tele.Restricted, nil, "deny", false},
		{"lookup failure with deny policy", "", errors.New("chat not found"), "deny", false},
		{"lookup failure with allow policy", "", errors.New("chat not found"), "allow", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(-100123, tt.onLookupError, staticLookup(tt.role, tt.err))
			if got := g.Allow(42); got != tt.want {
				t.Errorf("Allow = %v, want %v", got, tt.want)
			}
		})
	}
}
