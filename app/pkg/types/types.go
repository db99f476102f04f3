package types

import (
	"context"
	"time"
)

// UserRef identifies a platform user together with its display name.
type UserRef struct {
	ID   string
	Name string
}

// RoleRef identifies a guild role. Managed roles belong to integrations and
// cannot be deleted or renamed.
type RoleRef struct {
	ID      string
	Name    string
	Managed bool
}

// ChannelRef identifies a guild channel.
type ChannelRef struct {
	ID    string
	Name  string
	Voice bool
}

// VoiceState maps a connected user to the voice channel it occupies.
type VoiceState struct {
	UserID    string
	ChannelID string
}

// ChatMessage is the platform-independent view of one chat message.
type ChatMessage struct {
	ID           string
	ChannelID    string
	GuildID      string
	Author       UserRef
	FromBot      bool
	Content      string
	Timestamp    time.Time
	ReplyToID    string
	Mentions     []UserRef
	RoleMentions []string
}

// Turn is one conversational line handed to the completion service.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Control is a confirmation button rendered under an outgoing reply.
type Control struct {
	Token string
	Label string
}

// Outgoing is a reply produced by the bot, optionally carrying a control.
type Outgoing struct {
	ChannelID string
	ReplyToID string
	Content   string
	Control   *Control
}

// Activation is delivered when a user triggers a rendered control.
// Ack must be called before long-running work so the platform does not time
// out the interaction; Respond reports the outcome (private hides it from
// the channel).
type Activation struct {
	Token     string
	GuildID   string
	ChannelID string
	OriginID  string // back-reference to the message that proposed the action
	Actor     UserRef
	Ack       func(ctx context.Context) error
	Respond   func(ctx context.Context, content string, private bool) error
}

// MessageStore provides read-only access to the platform's message history.
type MessageStore interface {
	RecentMessages(ctx context.Context, channelID string, limit int) ([]ChatMessage, error)
	Message(ctx context.Context, channelID string, messageID string) (ChatMessage, error)
}

// Moderator is the privileged action surface of the platform.
type Moderator interface {
	IsAdmin(ctx context.Context, guildID string, userID string) (bool, error)
	BulkDelete(ctx context.Context, channelID string, messageIDs []string) error
	Kick(ctx context.Context, guildID string, userID string) error
	Ban(ctx context.Context, guildID string, userID string) error
	Timeout(ctx context.Context, guildID string, userID string, until time.Time) error
	Roles(ctx context.Context, guildID string) ([]RoleRef, error)
	CreateRole(ctx context.Context, guildID string, name string) (RoleRef, error)
	DeleteRole(ctx context.Context, guildID string, roleID string) error
	RenameRole(ctx context.Context, guildID string, roleID string, name string) error
	GrantRole(ctx context.Context, guildID string, userID string, roleID string) error
	RevokeRole(ctx context.Context, guildID string, userID string, roleID string) error
	MemberRoleIDs(ctx context.Context, guildID string, userID string) ([]string, error)
	VoiceChannels(ctx context.Context, guildID string) ([]ChannelRef, error)
	VoiceStates(ctx context.Context, guildID string) ([]VoiceState, error)
	// MoveVoice with an empty channel id disconnects the user.
	MoveVoice(ctx context.Context, guildID string, userID string, channelID string) error
}

// Completer wraps a single text-completion call.
type Completer interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}

// Bot decides how to react to one incoming message. The boolean result is
// false when the bot stays silent.
type Bot interface {
	Process(ctx context.Context, msg ChatMessage) (Outgoing, bool)
	Name() string
}

// Channel is an input/output interface to the chat platform.
type Channel interface {
	Start(ctx context.Context, onMessage func(ChatMessage), onActivation func(Activation)) error
	Send(ctx context.Context, out Outgoing) error
	ID() string
}
