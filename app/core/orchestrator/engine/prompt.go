package engine

import (
	"fmt"
	"strings"

	"github.com/tidwall/sjson"

	"warden/app/core/orchestrator/admin"
	"warden/app/core/orchestrator/convo"
)

// responseContract renders the exact JSON shape the model must answer with.
func responseContract() string {
	contract := "{}"
	contract, _ = sjson.Set(contract, "reply", "what you say in the channel, or an empty string to stay silent")
	contract, _ = sjson.Set(contract, "adminCommand", "one of the command ids below, or omit the key")
	contract, _ = sjson.Set(contract, "roleName", "role name when the command needs one")
	contract, _ = sjson.Set(contract, "newRoleName", "new role name, renameRole only")
	return contract
}

func buildSystemPrompt(botName string, registry *admin.Registry, window convo.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a moderation assistant in a chat server.\n", botName)
	b.WriteString("You read the recent conversation and decide whether to speak and whether a privileged moderation command was requested.\n\n")

	b.WriteString("Respond with a single JSON object and nothing else:\n")
	b.WriteString(responseContract())
	b.WriteString("\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Reply only when addressed or when you have something genuinely useful to add; otherwise set reply to an empty string.\n")
	b.WriteString("- Keep replies short and to the point.\n")
	if window.DirectReply {
		b.WriteString("- The newest message is a direct reply to you; answer it.\n")
	}

	if window.IsAdmin {
		b.WriteString("\nThe author of the newest message is a server admin. If that message asks for one of these actions, set adminCommand accordingly:\n")
		for _, cmd := range registry.List() {
			fmt.Fprintf(&b, "- %s: %s\n", cmd.ID, cmd.Eligibility)
		}
		b.WriteString("Only propose a command the newest message explicitly asks for. When in doubt, propose nothing.\n")
	} else {
		b.WriteString("\nThe author of the newest message is not an admin. Never set adminCommand.\n")
	}

	return b.String()
}
