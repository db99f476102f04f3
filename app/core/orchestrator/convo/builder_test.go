package convo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"warden/app/pkg/types"
)

type fakeStore struct {
	recent    []types.ChatMessage
	recentErr error
	byID      map[string]types.ChatMessage
	fetchErr  error
}

func (f *fakeStore) RecentMessages(ctx context.Context, channelID string, limit int) ([]types.ChatMessage, error) {
	return f.recent, f.recentErr
}

func (f *fakeStore) Message(ctx context.Context, channelID string, messageID string) (types.ChatMessage, error) {
	if f.fetchErr != nil {
		return types.ChatMessage{}, f.fetchErr
	}
	m, ok := f.byID[messageID]
	if !ok {
		return types.ChatMessage{}, errors.New("not found")
	}
	return m, nil
}

func msgAt(id string, author types.UserRef, content string, at time.Time) types.ChatMessage {
	return types.ChatMessage{
		ID:        id,
		ChannelID: "chan-1",
		Author:    author,
		Content:   content,
		Timestamp: at,
	}
}

func TestBuildTrimsAndOrdersWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := types.UserRef{ID: "u1", Name: "alice"}

	// Newest-first history, one more than the window holds.
	var recent []types.ChatMessage
	for i := 16; i >= 1; i-- {
		recent = append(recent, msgAt(fmt.Sprintf("m%d", i), user, fmt.Sprintf("line %d", i), base.Add(time.Duration(i)*time.Second)))
	}

	b := NewBuilder(&fakeStore{recent: recent}, "bot-1", 15)
	window := b.Build(context.Background(), recent[0])

	if len(window.Turns) != 15 {
		t.Fatalf("expected 15 turns, got %d", len(window.Turns))
	}
	if window.Turns[0].Content != "alice: line 2" {
		t.Fatalf("expected oldest surviving turn first, got %q", window.Turns[0].Content)
	}
	if window.Turns[14].Content != "alice: line 16" {
		t.Fatalf("expected newest turn last, got %q", window.Turns[14].Content)
	}
}

func TestBuildAttributesBotMessagesToAssistant(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := []types.ChatMessage{
		msgAt("m2", types.UserRef{ID: "bot-1", Name: "Warden"}, "hello", base.Add(2*time.Second)),
		msgAt("m1", types.UserRef{ID: "u1", Name: "alice"}, "hi bot", base.Add(time.Second)),
	}

	b := NewBuilder(&fakeStore{recent: recent}, "bot-1", 15)
	window := b.Build(context.Background(), recent[0])

	if window.Turns[0].Role != "user" {
		t.Fatalf("expected user role, got %q", window.Turns[0].Role)
	}
	if window.Turns[1].Role != "assistant" {
		t.Fatalf("expected assistant role, got %q", window.Turns[1].Role)
	}
}

func TestBuildUsesPlaceholderForEmptyContent(t *testing.T) {
	latest := msgAt("m1", types.UserRef{ID: "u1", Name: "alice"}, "   ", time.Now())
	b := NewBuilder(&fakeStore{recent: []types.ChatMessage{latest}}, "bot-1", 15)

	window := b.Build(context.Background(), latest)
	if got := window.Turns[0].Content; got != "alice: (no text)" {
		t.Fatalf("expected placeholder content, got %q", got)
	}
}

func TestBuildFallsBackToLatestOnHistoryError(t *testing.T) {
	latest := msgAt("m1", types.UserRef{ID: "u1", Name: "alice"}, "hello", time.Now())
	b := NewBuilder(&fakeStore{recentErr: errors.New("rate limited")}, "bot-1", 15)

	window := b.Build(context.Background(), latest)
	if len(window.Turns) != 1 {
		t.Fatalf("expected only the triggering message, got %d turns", len(window.Turns))
	}
}

func TestDirectReplyDetection(t *testing.T) {
	botMsg := msgAt("m1", types.UserRef{ID: "bot-1", Name: "Warden"}, "earlier reply", time.Now())
	latest := msgAt("m2", types.UserRef{ID: "u1", Name: "alice"}, "thanks", time.Now())
	latest.ReplyToID = "m1"

	store := &fakeStore{
		recent: []types.ChatMessage{latest, botMsg},
		byID:   map[string]types.ChatMessage{"m1": botMsg},
	}
	b := NewBuilder(store, "bot-1", 15)

	if !b.Build(context.Background(), latest).DirectReply {
		t.Fatal("expected a reply to the bot to be flagged as direct")
	}

	// A failed reference fetch means "not a reply", never an error.
	store.fetchErr = errors.New("message deleted")
	if b.Build(context.Background(), latest).DirectReply {
		t.Fatal("expected a failed reference fetch to clear the direct flag")
	}
}
