package main

import (
	"testing"

	"terabox-relay-bot/internal/gate"
	"terabox-relay-bot/internal/linkcheck"

	tele "gopkg.in/telebot.v4"
)

func staticGate(role tele.MemberStatus) *gate.Gate {
	return gate.New(-100123, "deny", func(channelID, userID int64) (tele.MemberStatus, error) {
		return role, nil
	})
}

func TestScreenChecksMembershipBeforeLinkShape(t *testing.T) {
	nonMember := staticGate(tele.Left)
	member := staticGate(tele.Member)
	cl := linkcheck.NewClassifier(nil)

	// a non-member gets the join prompt no matter what the message looks like
	for _, text := range []string{
		"hello",
		"https://example.com/file.mp4",
		"https://terabox.com/s/1abc",
	} {
		if _, reply := screen(nonMember, cl, 1, text); reply != msgJoinRequired {
			t.Errorf("non-member with %q: reply = %q, want join prompt", text, reply)
		}
	}

	// members get link feedback
	if _, reply := screen(member, cl, 1, "hello"); reply != msgNoURL {
		t.Errorf("no-url reply = %q", reply)
	}
	if _, reply := screen(member, cl, 1, "https://example.com/file.mp4"); reply != msgUnsupported {
		t.Errorf("unsupported-host reply = %q", reply)
	}

	shareURL, reply := screen(member, cl, 1, "https://terabox.com/s/1abc")
	if reply != "" {
		t.Fatalf("supported link rejected: %q", reply)
	}
	if shareURL != "https://terabox.com/s/1abc" {
		t.Errorf("share url = %q", shareURL)
	}
}
