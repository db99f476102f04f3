package confirm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"warden/app/core/orchestrator/admin"
	"warden/app/pkg/types"
)

type fakeModerator struct {
	types.Moderator

	admins map[string]bool
	err    error
	kicked []string
}

func (f *fakeModerator) IsAdmin(ctx context.Context, guildID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.admins[userID], nil
}

func (f *fakeModerator) Kick(ctx context.Context, guildID, userID string) error {
	f.kicked = append(f.kicked, userID)
	return nil
}

type fakeStore struct {
	origin types.ChatMessage
	err    error
}

func (f *fakeStore) RecentMessages(ctx context.Context, channelID string, limit int) ([]types.ChatMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Message(ctx context.Context, channelID, messageID string) (types.ChatMessage, error) {
	return f.origin, f.err
}

type recordedResponse struct {
	content string
	private bool
}

func activation(token string, actor types.UserRef, acked *bool, responses *[]recordedResponse) types.Activation {
	return types.Activation{
		Token:     token,
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		OriginID:  "origin-1",
		Actor:     actor,
		Ack: func(ctx context.Context) error {
			*acked = true
			return nil
		},
		Respond: func(ctx context.Context, content string, private bool) error {
			*responses = append(*responses, recordedResponse{content: content, private: private})
			return nil
		},
	}
}

func testHandler(mod *fakeModerator, store *fakeStore) *Handler {
	return NewHandler(admin.NewRegistry(), admin.Env{
		Moderator:        mod,
		Store:            store,
		MuteDuration:     5 * time.Minute,
		BulkDeleteLimit:  100,
		BulkDeleteMaxAge: 14 * 24 * time.Hour,
	})
}

func TestActivationExecutesAfterAck(t *testing.T) {
	mod := &fakeModerator{admins: map[string]bool{"admin-1": true}}
	store := &fakeStore{origin: types.ChatMessage{
		ID:        "origin-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		Content:   "kick bob please",
		Mentions:  []types.UserRef{{ID: "u2", Name: "bob"}},
	}}
	h := testHandler(mod, store)

	acked := false
	var responses []recordedResponse
	token := EncodeToken(admin.CmdKickUser, admin.Params{})
	h.HandleActivation(context.Background(), activation(token, types.UserRef{ID: "admin-1", Name: "alice"}, &acked, &responses))

	if !acked {
		t.Fatal("expected the interaction to be acknowledged")
	}
	if len(mod.kicked) != 1 || mod.kicked[0] != "u2" {
		t.Fatalf("unexpected kicks %v", mod.kicked)
	}
	if len(responses) != 1 || responses[0].private {
		t.Fatalf("expected one public outcome, got %+v", responses)
	}
	if !strings.Contains(responses[0].content, "bob") {
		t.Fatalf("unexpected outcome %q", responses[0].content)
	}
}

func TestActivationRejectsNonAdminPrivately(t *testing.T) {
	mod := &fakeModerator{admins: map[string]bool{}}
	h := testHandler(mod, &fakeStore{})

	acked := false
	var responses []recordedResponse
	token := EncodeToken(admin.CmdKickUser, admin.Params{})
	h.HandleActivation(context.Background(), activation(token, types.UserRef{ID: "u5", Name: "mallory"}, &acked, &responses))

	if acked {
		t.Fatal("expected no acknowledgement for a rejected activation")
	}
	if len(mod.kicked) != 0 {
		t.Fatal("expected no execution for a non-admin")
	}
	if len(responses) != 1 || !responses[0].private {
		t.Fatalf("expected one private rejection, got %+v", responses)
	}
	if !strings.Contains(responses[0].content, "permission") {
		t.Fatalf("unexpected rejection %q", responses[0].content)
	}
}

func TestActivationTreatsFailedAdminCheckAsRejection(t *testing.T) {
	mod := &fakeModerator{err: errors.New("rate limited")}
	h := testHandler(mod, &fakeStore{})

	acked := false
	var responses []recordedResponse
	token := EncodeToken(admin.CmdBanUser, admin.Params{})
	h.HandleActivation(context.Background(), activation(token, types.UserRef{ID: "admin-1", Name: "alice"}, &acked, &responses))

	if len(responses) != 1 || !responses[0].private {
		t.Fatalf("expected a private rejection, got %+v", responses)
	}
}

func TestActivationReportsMissingOrigin(t *testing.T) {
	mod := &fakeModerator{admins: map[string]bool{"admin-1": true}}
	h := testHandler(mod, &fakeStore{err: errors.New("deleted")})

	acked := false
	var responses []recordedResponse
	token := EncodeToken(admin.CmdKickUser, admin.Params{})
	h.HandleActivation(context.Background(), activation(token, types.UserRef{ID: "admin-1", Name: "alice"}, &acked, &responses))

	if !acked {
		t.Fatal("expected the interaction to be acknowledged before the origin fetch")
	}
	if len(responses) != 1 || !strings.Contains(responses[0].content, "original request") {
		t.Fatalf("unexpected responses %+v", responses)
	}
}

func TestActivationIgnoresForeignToken(t *testing.T) {
	mod := &fakeModerator{admins: map[string]bool{"admin-1": true}}
	h := testHandler(mod, &fakeStore{})

	acked := false
	var responses []recordedResponse
	h.HandleActivation(context.Background(), activation("poll-vote-1", types.UserRef{ID: "admin-1", Name: "alice"}, &acked, &responses))

	if acked || len(responses) != 0 {
		t.Fatalf("expected a foreign token to be ignored, acked=%v responses=%+v", acked, responses)
	}
}

func TestBuildLabelPrefersTargetedLabel(t *testing.T) {
	registry := admin.NewRegistry()
	kick, _ := registry.Lookup(string(admin.CmdKickUser))

	msg := types.ChatMessage{Mentions: []types.UserRef{{ID: "u2", Name: "bob"}}}
	if got := BuildLabel(kick, msg, admin.Params{}); got != "Kick bob" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := BuildLabel(kick, types.ChatMessage{}, admin.Params{}); got != "Kick user" {
		t.Fatalf("expected generic fallback, got %q", got)
	}

	long := strings.Repeat("y", 120)
	create, _ := registry.Lookup(string(admin.CmdCreateRole))
	label := BuildLabel(create, types.ChatMessage{}, admin.Params{RoleName: long})
	if got := len([]rune(label)); got != 80 {
		t.Fatalf("expected 80-rune label, got %d", got)
	}
}
