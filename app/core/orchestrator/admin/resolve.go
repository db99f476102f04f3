package admin

import (
	"regexp"
	"strings"

	"warden/app/pkg/types"
)

// Pure target-resolution helpers. They work on the original triggering
// message only, never on the confirmation interaction.

var channelMentionRe = regexp.MustCompile(`<#(\d+)>`)

func firstMention(msg types.ChatMessage) (types.UserRef, bool) {
	if len(msg.Mentions) == 0 {
		return types.UserRef{}, false
	}
	return msg.Mentions[0], true
}

// channelMentionIDs extracts channel mention ids from raw message text in
// order of appearance.
func channelMentionIDs(text string) []string {
	matches := channelMentionRe.FindAllStringSubmatch(text, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}

var channelNameStopRe = regexp.MustCompile(`(?i) to | from | in |[.,!?]|\n`)

// parseChannelName returns the free-text channel name following the first of
// the given keywords, cut at the next keyword or sentence punctuation.
// Matching is case-insensitive on the original text; lowercasing a copy would
// shift byte offsets for characters whose case pair differs in UTF-8 length.
func parseChannelName(text string, keywords ...string) string {
	for _, kw := range keywords {
		re := regexp.MustCompile(`(?i)\b` + kw + `\s+`)
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		rest := text[loc[1]:]
		cut := len(rest)
		if stop := channelNameStopRe.FindStringIndex(rest); stop != nil {
			cut = stop[0]
		}
		name := strings.TrimSpace(rest[:cut])
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}
	return ""
}

// resolveRole prefers the first role mention; otherwise it matches the
// supplied name case-insensitively, exact match before substring.
func resolveRole(roles []types.RoleRef, mentionedIDs []string, name string) (types.RoleRef, bool) {
	if len(mentionedIDs) > 0 {
		for _, r := range roles {
			if r.ID == mentionedIDs[0] {
				return r, true
			}
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.RoleRef{}, false
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	lowered := strings.ToLower(name)
	for _, r := range roles {
		if strings.Contains(strings.ToLower(r.Name), lowered) {
			return r, true
		}
	}
	return types.RoleRef{}, false
}

// resolveVoiceChannel prefers the index-th channel mention; otherwise it
// matches the parsed name case-insensitively by substring.
func resolveVoiceChannel(channels []types.ChannelRef, mentionedIDs []string, index int, name string) (types.ChannelRef, bool) {
	if index >= 0 && index < len(mentionedIDs) {
		for _, ch := range channels {
			if ch.ID == mentionedIDs[index] && ch.Voice {
				return ch, true
			}
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ChannelRef{}, false
	}
	lowered := strings.ToLower(name)
	for _, ch := range channels {
		if ch.Voice && strings.Contains(strings.ToLower(ch.Name), lowered) {
			return ch, true
		}
	}
	return types.ChannelRef{}, false
}
