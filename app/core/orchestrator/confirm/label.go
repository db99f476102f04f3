package confirm

import (
	"warden/app/core/orchestrator/admin"
	"warden/app/pkg/types"
)

// Button labels are capped by the platform at 80 characters.
const maxLabelRunes = 80

// BuildLabel renders the confirmation button text for a command, preferring
// the command's target-specific label over its generic one.
func BuildLabel(cmd admin.Command, msg types.ChatMessage, p admin.Params) string {
	label := ""
	if cmd.Label != nil {
		label = cmd.Label(msg, p)
	}
	if label == "" {
		label = cmd.ConfirmLabel
	}
	if r := []rune(label); len(r) > maxLabelRunes {
		label = string(r[:maxLabelRunes-1]) + "…"
	}
	return label
}
