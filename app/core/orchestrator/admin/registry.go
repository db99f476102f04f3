package admin

import (
	"context"
	"strings"
	"time"

	"warden/app/pkg/types"
)

type CommandID string

const (
	CmdClearMessages      CommandID = "clearMessages"
	CmdKickUser           CommandID = "kickUser"
	CmdBanUser            CommandID = "banUser"
	CmdMuteUser           CommandID = "muteUser"
	CmdCreateRole         CommandID = "createRole"
	CmdDeleteRole         CommandID = "deleteRole"
	CmdRenameRole         CommandID = "renameRole"
	CmdAddToRole          CommandID = "addToRole"
	CmdRemoveFromRole     CommandID = "removeFromRole"
	CmdDisconnectUser     CommandID = "disconnectUser"
	CmdMoveUser           CommandID = "moveUser"
	CmdMoveAllUsers       CommandID = "moveAllUsers"
	CmdDisconnectAllUsers CommandID = "disconnectAllUsers"
)

// Params carries the model-proposed parameters for role commands. All other
// targets are resolved from the original triggering message.
type Params struct {
	RoleName    string
	NewRoleName string
}

// Env bundles the platform surfaces and limits an executor needs.
type Env struct {
	Moderator        types.Moderator
	Store            types.MessageStore
	MuteDuration     time.Duration
	BulkDeleteLimit  int
	BulkDeleteMaxAge time.Duration
}

// Command is one entry of the fixed privileged-operation catalog.
// Execute resolves its targets from the original triggering message and
// always returns a user-facing outcome string; platform errors never escape.
type Command struct {
	ID           CommandID
	ConfirmLabel string
	// Eligibility is the natural-language clause fed into the decision
	// engine's system prompt.
	Eligibility      string
	NeedsRoleName    bool
	NeedsNewRoleName bool
	// Label builds a target-specific confirmation label; empty means the
	// generic ConfirmLabel should be used.
	Label   func(msg types.ChatMessage, p Params) string
	Execute func(ctx context.Context, env Env, msg types.ChatMessage, p Params) string
}

// Registry is the immutable command catalog, built once at process start.
type Registry struct {
	order    []CommandID
	commands map[CommandID]Command
}

func NewRegistry() *Registry {
	r := &Registry{commands: map[CommandID]Command{}}
	for _, c := range catalog() {
		r.order = append(r.order, c.ID)
		r.commands[c.ID] = c
	}
	return r
}

func (r *Registry) Lookup(id string) (Command, bool) {
	c, ok := r.commands[CommandID(strings.TrimSpace(id))]
	return c, ok
}

// List returns the catalog in its declaration order.
func (r *Registry) List() []Command {
	out := make([]Command, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.commands[id])
	}
	return out
}
