package admin

import (
	"context"
	"fmt"
	"log"
	"time"

	"warden/app/pkg/types"
)

func catalog() []Command {
	return []Command{
		{
			ID:           CmdClearMessages,
			ConfirmLabel: "Clear recent messages",
			Eligibility:  "bulk-delete up to 100 recent messages in the current channel",
			Execute:      executeClearMessages,
		},
		{
			ID:           CmdKickUser,
			ConfirmLabel: "Kick user",
			Eligibility:  "kick the mentioned user from the server",
			Label:        userLabel("Kick"),
			Execute:      executeKickUser,
		},
		{
			ID:           CmdBanUser,
			ConfirmLabel: "Ban user",
			Eligibility:  "ban the mentioned user from the server",
			Label:        userLabel("Ban"),
			Execute:      executeBanUser,
		},
		{
			ID:           CmdMuteUser,
			ConfirmLabel: "Mute user",
			Eligibility:  "time the mentioned user out for five minutes",
			Label:        userLabel("Mute"),
			Execute:      executeMuteUser,
		},
		{
			ID:            CmdCreateRole,
			ConfirmLabel:  "Create role",
			Eligibility:   "create a new role; requires roleName",
			NeedsRoleName: true,
			Label: func(msg types.ChatMessage, p Params) string {
				if p.RoleName == "" {
					return ""
				}
				return "Create role " + p.RoleName
			},
			Execute: executeCreateRole,
		},
		{
			ID:            CmdDeleteRole,
			ConfirmLabel:  "Delete role",
			Eligibility:   "delete the mentioned role, or the role named in roleName",
			NeedsRoleName: true,
			Label: func(msg types.ChatMessage, p Params) string {
				if p.RoleName == "" {
					return ""
				}
				return "Delete role " + p.RoleName
			},
			Execute: executeDeleteRole,
		},
		{
			ID:               CmdRenameRole,
			ConfirmLabel:     "Rename role",
			Eligibility:      "rename a role; requires roleName and newRoleName",
			NeedsRoleName:    true,
			NeedsNewRoleName: true,
			Label: func(msg types.ChatMessage, p Params) string {
				if p.RoleName == "" || p.NewRoleName == "" {
					return ""
				}
				return "Rename " + p.RoleName + " to " + p.NewRoleName
			},
			Execute: executeRenameRole,
		},
		{
			ID:            CmdAddToRole,
			ConfirmLabel:  "Add users to role",
			Eligibility:   "grant a role to every mentioned user; requires roleName unless the role is mentioned",
			NeedsRoleName: true,
			Label: func(msg types.ChatMessage, p Params) string {
				if p.RoleName == "" || len(msg.Mentions) == 0 {
					return ""
				}
				return fmt.Sprintf("Add %d user(s) to %s", len(msg.Mentions), p.RoleName)
			},
			Execute: executeAddToRole,
		},
		{
			ID:            CmdRemoveFromRole,
			ConfirmLabel:  "Remove users from role",
			Eligibility:   "revoke a role from every mentioned user; requires roleName unless the role is mentioned",
			NeedsRoleName: true,
			Label: func(msg types.ChatMessage, p Params) string {
				if p.RoleName == "" || len(msg.Mentions) == 0 {
					return ""
				}
				return fmt.Sprintf("Remove %d user(s) from %s", len(msg.Mentions), p.RoleName)
			},
			Execute: executeRemoveFromRole,
		},
		{
			ID:           CmdDisconnectUser,
			ConfirmLabel: "Disconnect user from voice",
			Eligibility:  "disconnect the mentioned user from voice",
			Label:        userLabel("Disconnect"),
			Execute:      executeDisconnectUser,
		},
		{
			ID:           CmdMoveUser,
			ConfirmLabel: "Move user to voice channel",
			Eligibility:  "move the mentioned user to the voice channel named in the message",
			Label:        userLabel("Move"),
			Execute:      executeMoveUser,
		},
		{
			ID:           CmdMoveAllUsers,
			ConfirmLabel: "Move all users between voice channels",
			Eligibility:  "move everyone from one voice channel to another, both named in the message",
			Execute:      executeMoveAllUsers,
		},
		{
			ID:           CmdDisconnectAllUsers,
			ConfirmLabel: "Disconnect all users from voice channel",
			Eligibility:  "disconnect everyone in the voice channel named in the message",
			Execute:      executeDisconnectAllUsers,
		},
	}
}

func userLabel(verb string) func(msg types.ChatMessage, p Params) string {
	return func(msg types.ChatMessage, p Params) string {
		target, ok := firstMention(msg)
		if !ok {
			return ""
		}
		return verb + " " + target.Name
	}
}

func executeClearMessages(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	limit := env.BulkDeleteLimit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	recent, err := env.Store.RecentMessages(ctx, msg.ChannelID, limit)
	if err != nil {
		log.Printf("[Admin] Failed to fetch messages for bulk delete: %v", err)
		return "I couldn't read the channel history."
	}

	maxAge := env.BulkDeleteMaxAge
	if maxAge <= 0 {
		maxAge = 14 * 24 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge)
	ids := make([]string, 0, len(recent))
	for _, m := range recent {
		if m.Timestamp.After(cutoff) {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return "There are no recent messages I can bulk-delete here."
	}

	if err := env.Moderator.BulkDelete(ctx, msg.ChannelID, ids); err != nil {
		log.Printf("[Admin] Bulk delete failed in channel %s: %v", msg.ChannelID, err)
		return "This channel doesn't support bulk deletion."
	}
	return fmt.Sprintf("Deleted %d message(s).", len(ids))
}

func executeKickUser(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	target, ok := firstMention(msg)
	if !ok {
		return "Mention the user you want me to kick."
	}
	if err := env.Moderator.Kick(ctx, msg.GuildID, target.ID); err != nil {
		log.Printf("[Admin] Kick failed for %s: %v", target.ID, err)
		return fmt.Sprintf("I can't kick %s — check the role hierarchy.", target.Name)
	}
	return fmt.Sprintf("Kicked %s.", target.Name)
}

func executeBanUser(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	target, ok := firstMention(msg)
	if !ok {
		return "Mention the user you want me to ban."
	}
	if err := env.Moderator.Ban(ctx, msg.GuildID, target.ID); err != nil {
		log.Printf("[Admin] Ban failed for %s: %v", target.ID, err)
		return fmt.Sprintf("I can't ban %s — check the role hierarchy.", target.Name)
	}
	return fmt.Sprintf("Banned %s.", target.Name)
}

func executeMuteUser(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	target, ok := firstMention(msg)
	if !ok {
		return "Mention the user you want me to mute."
	}
	duration := env.MuteDuration
	if duration <= 0 {
		duration = 5 * time.Minute
	}
	until := time.Now().Add(duration)
	if err := env.Moderator.Timeout(ctx, msg.GuildID, target.ID, until); err != nil {
		log.Printf("[Admin] Timeout failed for %s: %v", target.ID, err)
		return fmt.Sprintf("I can't mute %s — check the role hierarchy.", target.Name)
	}
	return fmt.Sprintf("Muted %s for %d minute(s).", target.Name, int(duration.Minutes()))
}

func executeCreateRole(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	if p.RoleName == "" {
		return "Tell me the name of the role to create."
	}
	role, err := env.Moderator.CreateRole(ctx, msg.GuildID, p.RoleName)
	if err != nil {
		log.Printf("[Admin] Create role %q failed: %v", p.RoleName, err)
		return fmt.Sprintf("I couldn't create the role %q.", p.RoleName)
	}
	return fmt.Sprintf("Created role %s.", role.Name)
}

func executeDeleteRole(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	role, outcome := lookupRole(ctx, env, msg, p.RoleName)
	if outcome != "" {
		return outcome
	}
	if role.Managed {
		return fmt.Sprintf("The role %s is managed by an integration and can't be deleted.", role.Name)
	}
	if err := env.Moderator.DeleteRole(ctx, msg.GuildID, role.ID); err != nil {
		log.Printf("[Admin] Delete role %s failed: %v", role.ID, err)
		return fmt.Sprintf("I couldn't delete the role %s.", role.Name)
	}
	return fmt.Sprintf("Deleted role %s.", role.Name)
}

func executeRenameRole(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	role, outcome := lookupRole(ctx, env, msg, p.RoleName)
	if outcome != "" {
		return outcome
	}
	if p.NewRoleName == "" {
		return "Tell me the new name for the role."
	}
	if role.Managed {
		return fmt.Sprintf("The role %s is managed by an integration and can't be renamed.", role.Name)
	}
	if err := env.Moderator.RenameRole(ctx, msg.GuildID, role.ID, p.NewRoleName); err != nil {
		log.Printf("[Admin] Rename role %s failed: %v", role.ID, err)
		return fmt.Sprintf("I couldn't rename the role %s.", role.Name)
	}
	return fmt.Sprintf("Renamed role %s to %s.", role.Name, p.NewRoleName)
}

func executeAddToRole(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	role, outcome := lookupRole(ctx, env, msg, p.RoleName)
	if outcome != "" {
		return outcome
	}
	if len(msg.Mentions) == 0 {
		return "Mention the users you want me to add to the role."
	}

	added := 0
	for _, user := range msg.Mentions {
		held, err := env.Moderator.MemberRoleIDs(ctx, msg.GuildID, user.ID)
		if err != nil {
			log.Printf("[Admin] Role lookup failed for %s: %v", user.ID, err)
			continue
		}
		if containsID(held, role.ID) {
			continue
		}
		if err := env.Moderator.GrantRole(ctx, msg.GuildID, user.ID, role.ID); err != nil {
			log.Printf("[Admin] Grant role %s to %s failed: %v", role.ID, user.ID, err)
			continue
		}
		added++
	}
	return fmt.Sprintf("Added %d of %d mentioned user(s) to %s.", added, len(msg.Mentions), role.Name)
}

func executeRemoveFromRole(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	role, outcome := lookupRole(ctx, env, msg, p.RoleName)
	if outcome != "" {
		return outcome
	}
	if len(msg.Mentions) == 0 {
		return "Mention the users you want me to remove from the role."
	}

	removed := 0
	for _, user := range msg.Mentions {
		held, err := env.Moderator.MemberRoleIDs(ctx, msg.GuildID, user.ID)
		if err != nil {
			log.Printf("[Admin] Role lookup failed for %s: %v", user.ID, err)
			continue
		}
		if !containsID(held, role.ID) {
			continue
		}
		if err := env.Moderator.RevokeRole(ctx, msg.GuildID, user.ID, role.ID); err != nil {
			log.Printf("[Admin] Revoke role %s from %s failed: %v", role.ID, user.ID, err)
			continue
		}
		removed++
	}
	return fmt.Sprintf("Removed %d of %d mentioned user(s) from %s.", removed, len(msg.Mentions), role.Name)
}

func executeDisconnectUser(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	target, ok := firstMention(msg)
	if !ok {
		return "Mention the user you want me to disconnect."
	}
	states, err := env.Moderator.VoiceStates(ctx, msg.GuildID)
	if err != nil {
		log.Printf("[Admin] Voice state lookup failed: %v", err)
		return "I couldn't read the voice states."
	}
	if !inVoice(states, target.ID) {
		return fmt.Sprintf("%s isn't in a voice channel.", target.Name)
	}
	if err := env.Moderator.MoveVoice(ctx, msg.GuildID, target.ID, ""); err != nil {
		log.Printf("[Admin] Disconnect failed for %s: %v", target.ID, err)
		return fmt.Sprintf("I couldn't disconnect %s.", target.Name)
	}
	return fmt.Sprintf("Disconnected %s from voice.", target.Name)
}

func executeMoveUser(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	target, ok := firstMention(msg)
	if !ok {
		return "Mention the user you want me to move."
	}
	channels, err := env.Moderator.VoiceChannels(ctx, msg.GuildID)
	if err != nil {
		log.Printf("[Admin] Channel lookup failed: %v", err)
		return "I couldn't read the voice channels."
	}
	mentions := channelMentionIDs(msg.Content)
	dest, ok := resolveVoiceChannel(channels, mentions, 0, parseChannelName(msg.Content, "to", "in"))
	if !ok {
		return "I couldn't work out which voice channel you mean."
	}
	if err := env.Moderator.MoveVoice(ctx, msg.GuildID, target.ID, dest.ID); err != nil {
		log.Printf("[Admin] Move failed for %s: %v", target.ID, err)
		return fmt.Sprintf("I couldn't move %s to %s.", target.Name, dest.Name)
	}
	return fmt.Sprintf("Moved %s to %s.", target.Name, dest.Name)
}

func executeMoveAllUsers(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	channels, err := env.Moderator.VoiceChannels(ctx, msg.GuildID)
	if err != nil {
		log.Printf("[Admin] Channel lookup failed: %v", err)
		return "I couldn't read the voice channels."
	}
	mentions := channelMentionIDs(msg.Content)
	source, ok := resolveVoiceChannel(channels, mentions, 0, parseChannelName(msg.Content, "from"))
	if !ok {
		return "I couldn't work out which voice channel to move people from."
	}
	dest, ok := resolveVoiceChannel(channels, mentions, 1, parseChannelName(msg.Content, "to"))
	if !ok || dest.ID == source.ID {
		return "I couldn't work out which voice channel to move people to."
	}

	states, err := env.Moderator.VoiceStates(ctx, msg.GuildID)
	if err != nil {
		log.Printf("[Admin] Voice state lookup failed: %v", err)
		return "I couldn't read the voice states."
	}
	total, moved := 0, 0
	for _, s := range states {
		if s.ChannelID != source.ID {
			continue
		}
		total++
		if err := env.Moderator.MoveVoice(ctx, msg.GuildID, s.UserID, dest.ID); err != nil {
			log.Printf("[Admin] Move failed for %s: %v", s.UserID, err)
			continue
		}
		moved++
	}
	if total == 0 {
		return fmt.Sprintf("Nobody is connected to %s.", source.Name)
	}
	return fmt.Sprintf("Moved %d of %d user(s) from %s to %s.", moved, total, source.Name, dest.Name)
}

func executeDisconnectAllUsers(ctx context.Context, env Env, msg types.ChatMessage, p Params) string {
	channels, err := env.Moderator.VoiceChannels(ctx, msg.GuildID)
	if err != nil {
		log.Printf("[Admin] Channel lookup failed: %v", err)
		return "I couldn't read the voice channels."
	}
	mentions := channelMentionIDs(msg.Content)
	source, ok := resolveVoiceChannel(channels, mentions, 0, parseChannelName(msg.Content, "from", "in"))
	if !ok {
		return "I couldn't work out which voice channel you mean."
	}

	states, err := env.Moderator.VoiceStates(ctx, msg.GuildID)
	if err != nil {
		log.Printf("[Admin] Voice state lookup failed: %v", err)
		return "I couldn't read the voice states."
	}
	total, disconnected := 0, 0
	for _, s := range states {
		if s.ChannelID != source.ID {
			continue
		}
		total++
		if err := env.Moderator.MoveVoice(ctx, msg.GuildID, s.UserID, ""); err != nil {
			log.Printf("[Admin] Disconnect failed for %s: %v", s.UserID, err)
			continue
		}
		disconnected++
	}
	if total == 0 {
		return fmt.Sprintf("Nobody is connected to %s.", source.Name)
	}
	return fmt.Sprintf("Disconnected %d of %d user(s) from %s.", disconnected, total, source.Name)
}

// lookupRole resolves the target role from the message's role mentions or the
// supplied name. A non-empty outcome means resolution failed.
func lookupRole(ctx context.Context, env Env, msg types.ChatMessage, name string) (types.RoleRef, string) {
	roles, err := env.Moderator.Roles(ctx, msg.GuildID)
	if err != nil {
		log.Printf("[Admin] Role list failed: %v", err)
		return types.RoleRef{}, "I couldn't read the server's roles."
	}
	role, ok := resolveRole(roles, msg.RoleMentions, name)
	if !ok {
		return types.RoleRef{}, "I couldn't find that role."
	}
	return role, ""
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func inVoice(states []types.VoiceState, userID string) bool {
	for _, s := range states {
		if s.UserID == userID && s.ChannelID != "" {
			return true
		}
	}
	return false
}
