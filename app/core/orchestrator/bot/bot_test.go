package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"warden/app/core/orchestrator/admin"
	"warden/app/core/orchestrator/convo"
	"warden/app/core/orchestrator/engine"
	"warden/app/pkg/types"
)

type fakeStore struct{}

func (fakeStore) RecentMessages(ctx context.Context, channelID string, limit int) ([]types.ChatMessage, error) {
	return nil, errors.New("offline")
}

func (fakeStore) Message(ctx context.Context, channelID, messageID string) (types.ChatMessage, error) {
	return types.ChatMessage{}, errors.New("offline")
}

type fakeModerator struct {
	types.Moderator

	admin bool
	err   error
}

func (f *fakeModerator) IsAdmin(ctx context.Context, guildID, userID string) (bool, error) {
	return f.admin, f.err
}

type fakeCompleter struct {
	output string
}

func (f *fakeCompleter) Complete(ctx context.Context, system string, turns []types.Turn) (string, error) {
	return f.output, nil
}

func newTestBot(output string, mod *fakeModerator) *Bot {
	registry := admin.NewRegistry()
	builder := convo.NewBuilder(fakeStore{}, "bot-1", 15)
	eng := engine.New(&fakeCompleter{output: output}, registry, "Warden")
	return New("Warden", builder, eng, mod, registry)
}

func userMsg(content string) types.ChatMessage {
	return types.ChatMessage{
		ID:        "m1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		Author:    types.UserRef{ID: "u1", Name: "alice"},
		Content:   content,
	}
}

func TestProcessIgnoresBotMessages(t *testing.T) {
	b := newTestBot(`{"reply":"hi"}`, &fakeModerator{})
	msg := userMsg("hello")
	msg.FromBot = true
	if _, ok := b.Process(context.Background(), msg); ok {
		t.Fatal("expected bot messages to be ignored")
	}
}

func TestProcessStaysSilentOnEmptyDecision(t *testing.T) {
	b := newTestBot(`{"reply":""}`, &fakeModerator{})
	if _, ok := b.Process(context.Background(), userMsg("random chatter")); ok {
		t.Fatal("expected silence")
	}
}

func TestProcessRepliesInThread(t *testing.T) {
	b := newTestBot(`{"reply":"hello alice"}`, &fakeModerator{})
	out, ok := b.Process(context.Background(), userMsg("hi bot"))
	if !ok {
		t.Fatal("expected a reply")
	}
	if out.ChannelID != "chan-1" || out.ReplyToID != "m1" {
		t.Fatalf("unexpected addressing %+v", out)
	}
	if out.Control != nil {
		t.Fatal("expected no control on a plain reply")
	}
}

func TestProcessAttachesControlForAdminCommand(t *testing.T) {
	b := newTestBot(`{"reply":"","adminCommand":"createRole","roleName":"Helpers"}`, &fakeModerator{admin: true})
	out, ok := b.Process(context.Background(), userMsg("make a helpers role"))
	if !ok {
		t.Fatal("expected a reply carrying a control")
	}
	if out.Control == nil {
		t.Fatal("expected a control")
	}
	if out.Content == "" {
		t.Fatal("expected a default prompt alongside the control")
	}
	if !strings.HasPrefix(out.Control.Token, "adm|createRole|") {
		t.Fatalf("unexpected token %q", out.Control.Token)
	}
	if out.Control.Label != "Create role Helpers" {
		t.Fatalf("unexpected label %q", out.Control.Label)
	}
}

func TestProcessTreatsAdminCheckFailureAsNonAdmin(t *testing.T) {
	b := newTestBot(`{"reply":"","adminCommand":"banUser"}`, &fakeModerator{err: errors.New("rate limited")})
	if _, ok := b.Process(context.Background(), userMsg("ban bob")); ok {
		t.Fatal("expected silence when the admin check fails")
	}
}
