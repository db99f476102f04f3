package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"warden/app/pkg/types"
)

const channelID = "discord"

type Config struct {
	BotToken string
}

// Channel adapts a Discord gateway session to the platform-independent
// surfaces the core works against: message input/output, the message store,
// and the moderation API. One Channel owns one websocket session.
type Channel struct {
	session *discordgo.Session
	botUser types.UserRef
}

func NewChannel(cfg Config) (*Channel, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildVoiceStates |
		discordgo.IntentMessageContent
	session.StateEnabled = true

	return &Channel{session: session}, nil
}

// Connect opens the websocket session and resolves the bot's own identity,
// which the conversation builder needs for role attribution.
func (c *Channel) Connect() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	self := c.session.State.User
	if self == nil {
		var err error
		self, err = c.session.User("@me")
		if err != nil {
			return fmt.Errorf("resolve bot user: %w", err)
		}
	}
	c.botUser = types.UserRef{ID: self.ID, Name: displayName(self)}
	log.Printf("[Discord] Connected as %s (%s)", c.botUser.Name, c.botUser.ID)
	return nil
}

func (c *Channel) BotUser() types.UserRef {
	return c.botUser
}

func (c *Channel) ID() string {
	return channelID
}

// Start registers the event handlers and blocks until ctx is canceled.
func (c *Channel) Start(ctx context.Context, onMessage func(types.ChatMessage), onActivation func(types.Activation)) error {
	removeMessage := c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.ID == c.botUser.ID {
			return
		}
		onMessage(toChatMessage(m.Message))
	})
	defer removeMessage()

	removeInteraction := c.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionMessageComponent {
			return
		}
		act, ok := c.toActivation(i.Interaction)
		if !ok {
			return
		}
		onActivation(act)
	})
	defer removeInteraction()

	<-ctx.Done()
	if err := c.session.Close(); err != nil {
		log.Printf("[Discord] Session close failed: %v", err)
	}
	return nil
}

func (c *Channel) Send(ctx context.Context, out types.Outgoing) error {
	send := &discordgo.MessageSend{Content: out.Content}
	if out.ReplyToID != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: out.ReplyToID,
			ChannelID: out.ChannelID,
		}
	}
	if out.Control != nil {
		send.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    out.Control.Label,
						Style:    discordgo.DangerButton,
						CustomID: out.Control.Token,
					},
				},
			},
		}
	}
	_, err := c.session.ChannelMessageSendComplex(out.ChannelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// toActivation wraps a component interaction. Ack defers the interaction so
// the executor can take longer than Discord's response window; Respond picks
// the follow-up or initial-response path depending on whether Ack ran.
func (c *Channel) toActivation(i *discordgo.Interaction) (types.Activation, bool) {
	user := i.User
	if i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return types.Activation{}, false
	}

	originID := ""
	if i.Message != nil && i.Message.MessageReference != nil {
		originID = i.Message.MessageReference.MessageID
	}

	acked := false
	return types.Activation{
		Token:     i.MessageComponentData().CustomID,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		OriginID:  originID,
		Actor:     types.UserRef{ID: user.ID, Name: displayName(user)},
		Ack: func(ctx context.Context) error {
			err := c.session.InteractionRespond(i, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			}, discordgo.WithContext(ctx))
			if err == nil {
				acked = true
			}
			return err
		},
		Respond: func(ctx context.Context, content string, private bool) error {
			if acked {
				params := &discordgo.WebhookParams{Content: content}
				if private {
					params.Flags = discordgo.MessageFlagsEphemeral
				}
				_, err := c.session.FollowupMessageCreate(i, true, params, discordgo.WithContext(ctx))
				return err
			}
			data := &discordgo.InteractionResponseData{Content: content}
			if private {
				data.Flags = discordgo.MessageFlagsEphemeral
			}
			return c.session.InteractionRespond(i, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: data,
			}, discordgo.WithContext(ctx))
		},
	}, true
}

// --- MessageStore ---

func (c *Channel) RecentMessages(ctx context.Context, channel string, limit int) ([]types.ChatMessage, error) {
	raw, err := c.session.ChannelMessages(channel, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	out := make([]types.ChatMessage, 0, len(raw))
	for _, m := range raw {
		out = append(out, toChatMessage(m))
	}
	return out, nil
}

func (c *Channel) Message(ctx context.Context, channel string, messageID string) (types.ChatMessage, error) {
	m, err := c.session.ChannelMessage(channel, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return types.ChatMessage{}, fmt.Errorf("fetch message: %w", err)
	}
	return toChatMessage(m), nil
}

// --- Moderator ---

func (c *Channel) IsAdmin(ctx context.Context, guildID string, userID string) (bool, error) {
	guild, err := c.guild(ctx, guildID)
	if err != nil {
		return false, err
	}
	if guild.OwnerID == userID {
		return true, nil
	}

	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("fetch member: %w", err)
	}
	for _, roleID := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID == roleID && role.Permissions&discordgo.PermissionAdministrator != 0 {
				return true, nil
			}
		}
	}
	return false, nil
}

func (c *Channel) BulkDelete(ctx context.Context, channel string, messageIDs []string) error {
	return c.session.ChannelMessagesBulkDelete(channel, messageIDs, discordgo.WithContext(ctx))
}

func (c *Channel) Kick(ctx context.Context, guildID string, userID string) error {
	return c.session.GuildMemberDelete(guildID, userID, discordgo.WithContext(ctx))
}

func (c *Channel) Ban(ctx context.Context, guildID string, userID string) error {
	return c.session.GuildBanCreate(guildID, userID, 0, discordgo.WithContext(ctx))
}

func (c *Channel) Timeout(ctx context.Context, guildID string, userID string, until time.Time) error {
	return c.session.GuildMemberTimeout(guildID, userID, &until, discordgo.WithContext(ctx))
}

func (c *Channel) Roles(ctx context.Context, guildID string) ([]types.RoleRef, error) {
	raw, err := c.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch roles: %w", err)
	}
	out := make([]types.RoleRef, 0, len(raw))
	for _, r := range raw {
		out = append(out, types.RoleRef{ID: r.ID, Name: r.Name, Managed: r.Managed})
	}
	return out, nil
}

func (c *Channel) CreateRole(ctx context.Context, guildID string, name string) (types.RoleRef, error) {
	role, err := c.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name}, discordgo.WithContext(ctx))
	if err != nil {
		return types.RoleRef{}, fmt.Errorf("create role: %w", err)
	}
	return types.RoleRef{ID: role.ID, Name: role.Name, Managed: role.Managed}, nil
}

func (c *Channel) DeleteRole(ctx context.Context, guildID string, roleID string) error {
	return c.session.GuildRoleDelete(guildID, roleID, discordgo.WithContext(ctx))
}

func (c *Channel) RenameRole(ctx context.Context, guildID string, roleID string, name string) error {
	_, err := c.session.GuildRoleEdit(guildID, roleID, &discordgo.RoleParams{Name: name}, discordgo.WithContext(ctx))
	return err
}

func (c *Channel) GrantRole(ctx context.Context, guildID string, userID string, roleID string) error {
	return c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (c *Channel) RevokeRole(ctx context.Context, guildID string, userID string, roleID string) error {
	return c.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (c *Channel) MemberRoleIDs(ctx context.Context, guildID string, userID string) ([]string, error) {
	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch member: %w", err)
	}
	return member.Roles, nil
}

func (c *Channel) VoiceChannels(ctx context.Context, guildID string) ([]types.ChannelRef, error) {
	raw, err := c.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch channels: %w", err)
	}
	out := make([]types.ChannelRef, 0, len(raw))
	for _, ch := range raw {
		if ch.Type != discordgo.ChannelTypeGuildVoice {
			continue
		}
		out = append(out, types.ChannelRef{ID: ch.ID, Name: ch.Name, Voice: true})
	}
	return out, nil
}

// VoiceStates reads from the session cache; the REST API exposes no
// guild-wide voice state endpoint.
func (c *Channel) VoiceStates(ctx context.Context, guildID string) ([]types.VoiceState, error) {
	guild, err := c.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("guild not in state cache: %w", err)
	}
	out := make([]types.VoiceState, 0, len(guild.VoiceStates))
	for _, vs := range guild.VoiceStates {
		out = append(out, types.VoiceState{UserID: vs.UserID, ChannelID: vs.ChannelID})
	}
	return out, nil
}

func (c *Channel) MoveVoice(ctx context.Context, guildID string, userID string, channel string) error {
	var target *string
	if channel != "" {
		target = &channel
	}
	return c.session.GuildMemberMove(guildID, userID, target, discordgo.WithContext(ctx))
}

func (c *Channel) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if guild, err := c.session.State.Guild(guildID); err == nil {
		return guild, nil
	}
	guild, err := c.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch guild: %w", err)
	}
	return guild, nil
}

func toChatMessage(m *discordgo.Message) types.ChatMessage {
	msg := types.ChatMessage{
		ID:           m.ID,
		ChannelID:    m.ChannelID,
		GuildID:      m.GuildID,
		Content:      m.Content,
		Timestamp:    m.Timestamp,
		RoleMentions: m.MentionRoles,
	}
	if m.Author != nil {
		msg.Author = types.UserRef{ID: m.Author.ID, Name: displayName(m.Author)}
		msg.FromBot = m.Author.Bot
	}
	if m.MessageReference != nil {
		msg.ReplyToID = m.MessageReference.MessageID
	}
	for _, u := range m.Mentions {
		msg.Mentions = append(msg.Mentions, types.UserRef{ID: u.ID, Name: displayName(u)})
	}
	return msg
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
