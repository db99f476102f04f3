package bot

import (
	"context"
	"log"

	"warden/app/core/orchestrator/admin"
	"warden/app/core/orchestrator/confirm"
	"warden/app/core/orchestrator/convo"
	"warden/app/core/orchestrator/engine"
	"warden/app/pkg/types"
)

// Bot reacts to one incoming message at a time: build the conversation
// window, ask the engine for a decision, and turn that decision into an
// outgoing reply. Privileged commands are never executed here; they become a
// confirmation control that round-trips through the platform first.
type Bot struct {
	name     string
	builder  *convo.Builder
	engine   *engine.Engine
	mod      types.Moderator
	registry *admin.Registry
}

func New(name string, builder *convo.Builder, eng *engine.Engine, mod types.Moderator, registry *admin.Registry) *Bot {
	return &Bot{
		name:     name,
		builder:  builder,
		engine:   eng,
		mod:      mod,
		registry: registry,
	}
}

func (b *Bot) Name() string {
	return b.name
}

func (b *Bot) Process(ctx context.Context, msg types.ChatMessage) (types.Outgoing, bool) {
	if msg.FromBot {
		return types.Outgoing{}, false
	}

	window := b.builder.Build(ctx, msg)
	window.IsAdmin = b.isAdmin(ctx, msg)

	decision := b.engine.Decide(ctx, window)
	if decision.Silent() {
		return types.Outgoing{}, false
	}

	out := types.Outgoing{
		ChannelID: msg.ChannelID,
		ReplyToID: msg.ID,
		Content:   decision.Reply,
	}
	if decision.Command != "" {
		cmd, ok := b.registry.Lookup(string(decision.Command))
		if !ok {
			return out, out.Content != ""
		}
		if out.Content == "" {
			out.Content = "Confirm below to proceed."
		}
		out.Control = &types.Control{
			Token: confirm.EncodeToken(cmd.ID, decision.Params),
			Label: confirm.BuildLabel(cmd, msg, decision.Params),
		}
	}
	return out, true
}

func (b *Bot) isAdmin(ctx context.Context, msg types.ChatMessage) bool {
	if msg.GuildID == "" {
		return false
	}
	isAdmin, err := b.mod.IsAdmin(ctx, msg.GuildID, msg.Author.ID)
	if err != nil {
		log.Printf("[Bot] Admin check failed for %s: %v", msg.Author.ID, err)
		return false
	}
	return isAdmin
}
