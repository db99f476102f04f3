package convo

import (
	"context"
	"log"
	"sort"
	"strings"

	"warden/app/pkg/types"
)

const emptyTextPlaceholder = "(no text)"

// Context is the bounded conversation window handed to the decision engine.
// Turns are ordered oldest first.
type Context struct {
	Turns       []types.Turn
	DirectReply bool
	IsAdmin     bool
}

type Builder struct {
	store types.MessageStore
	botID string
	limit int
}

func NewBuilder(store types.MessageStore, botID string, limit int) *Builder {
	if limit <= 0 {
		limit = 15
	}
	return &Builder{
		store: store,
		botID: botID,
		limit: limit,
	}
}

func (b *Builder) Build(ctx context.Context, latest types.ChatMessage) Context {
	history, err := b.store.RecentMessages(ctx, latest.ChannelID, b.limit)
	if err != nil {
		log.Printf("[Convo] Failed to fetch history for channel %s: %v", latest.ChannelID, err)
		history = nil
	}
	if len(history) == 0 {
		history = []types.ChatMessage{latest}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})
	if len(history) > b.limit {
		history = history[len(history)-b.limit:]
	}

	turns := make([]types.Turn, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Author.ID == b.botID {
			role = "assistant"
		}
		turns = append(turns, types.Turn{Role: role, Content: formatTurn(m)})
	}

	return Context{
		Turns:       turns,
		DirectReply: b.isDirectReplyToBot(ctx, latest),
	}
}

func formatTurn(m types.ChatMessage) string {
	name := strings.TrimSpace(m.Author.Name)
	if name == "" {
		name = m.Author.ID
	}
	text := strings.TrimSpace(m.Content)
	if text == "" {
		text = emptyTextPlaceholder
	}
	return name + ": " + text
}

// isDirectReplyToBot resolves the newest message's reply reference. Any fetch
// failure (deleted message, missing permission) is treated as "not a reply".
func (b *Builder) isDirectReplyToBot(ctx context.Context, latest types.ChatMessage) bool {
	if strings.TrimSpace(latest.ReplyToID) == "" {
		return false
	}
	ref, err := b.store.Message(ctx, latest.ChannelID, latest.ReplyToID)
	if err != nil {
		return false
	}
	return ref.Author.ID == b.botID
}
