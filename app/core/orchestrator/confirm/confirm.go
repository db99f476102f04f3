package confirm

import (
	"context"
	"log"

	"warden/app/core/orchestrator/admin"
	"warden/app/pkg/types"
)

const rejectionNotice = "You don't have permission to confirm this action."

// Handler drives the confirmation protocol: a control activation is
// re-authorized against the platform at the moment it fires, acknowledged,
// and only then executed against the original triggering message.
type Handler struct {
	registry *admin.Registry
	env      admin.Env
}

func NewHandler(registry *admin.Registry, env admin.Env) *Handler {
	return &Handler{registry: registry, env: env}
}

func (h *Handler) HandleActivation(ctx context.Context, act types.Activation) {
	id, params, ok := DecodeToken(act.Token)
	if !ok {
		log.Printf("[Confirm] Ignoring activation with foreign token %q", act.Token)
		return
	}
	cmd, known := h.registry.Lookup(string(id))
	if !known {
		log.Printf("[Confirm] Ignoring activation for unknown command %q", id)
		return
	}

	// Admin status may have changed since the button was rendered, so the
	// actor is checked again here. A failed check counts as not-admin.
	isAdmin, err := h.env.Moderator.IsAdmin(ctx, act.GuildID, act.Actor.ID)
	if err != nil {
		log.Printf("[Confirm] Admin check failed for %s: %v", act.Actor.ID, err)
	}
	if !isAdmin {
		if err := act.Respond(ctx, rejectionNotice, true); err != nil {
			log.Printf("[Confirm] Rejection notice failed: %v", err)
		}
		return
	}

	// Acknowledge before the executor runs; platform interactions time out
	// in seconds while a bulk delete or mass move can take longer.
	if err := act.Ack(ctx); err != nil {
		log.Printf("[Confirm] Ack failed for %s: %v", id, err)
		return
	}

	origin, err := h.env.Store.Message(ctx, act.ChannelID, act.OriginID)
	if err != nil {
		log.Printf("[Confirm] Origin message %s is gone: %v", act.OriginID, err)
		h.respond(ctx, act, "I couldn't find the original request message.")
		return
	}

	outcome := cmd.Execute(ctx, h.env, origin, params)
	h.respond(ctx, act, outcome)
}

func (h *Handler) respond(ctx context.Context, act types.Activation, content string) {
	if err := act.Respond(ctx, content, false); err != nil {
		log.Printf("[Confirm] Outcome delivery failed: %v", err)
	}
}
