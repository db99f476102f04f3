package engine

import (
	"context"
	"log"
	"strings"

	"github.com/tidwall/gjson"

	"warden/app/core/orchestrator/admin"
	"warden/app/core/orchestrator/convo"
	"warden/app/pkg/types"
)

const maxParamLen = 100

// Decision is the engine's verdict for one incoming message. An empty Reply
// with an empty Command means the bot stays silent.
type Decision struct {
	Reply   string
	Command admin.CommandID
	Params  admin.Params
}

func (d Decision) Silent() bool {
	return d.Reply == "" && d.Command == ""
}

// Engine turns a conversation window into a Decision through a single
// completion call. Every failure mode, from transport errors to garbage model
// output, degrades to a silent Decision; the engine never returns an error to
// its caller.
type Engine struct {
	completer types.Completer
	registry  *admin.Registry
	botName   string
}

func New(completer types.Completer, registry *admin.Registry, botName string) *Engine {
	return &Engine{
		completer: completer,
		registry:  registry,
		botName:   botName,
	}
}

func (e *Engine) Decide(ctx context.Context, window convo.Context) Decision {
	if e.completer == nil {
		return Decision{}
	}

	system := buildSystemPrompt(e.botName, e.registry, window)
	raw, err := e.completer.Complete(ctx, system, window.Turns)
	if err != nil {
		log.Printf("[Engine] Completion failed: %v", err)
		return Decision{}
	}
	return e.parse(raw, window.IsAdmin)
}

// parse extracts the decision object from raw model output. The model is
// asked for bare JSON but routinely wraps it in prose or code fences, and
// sometimes emits literal newlines inside the reply string; both are
// tolerated here.
func (e *Engine) parse(raw string, isAdmin bool) Decision {
	obj, ok := extractJSONObject(raw)
	if !ok {
		log.Printf("[Engine] No JSON object in model output (%d bytes)", len(raw))
		return Decision{}
	}
	obj = repairReplyControlChars(obj)
	if !gjson.Valid(obj) {
		log.Printf("[Engine] Model output is not valid JSON after repair")
		return Decision{}
	}

	parsed := gjson.Parse(obj)
	var d Decision
	// The model is untrusted input: a field of the wrong JSON type is treated
	// as absent, never coerced to its textual form.
	if reply := parsed.Get("reply"); reply.Type == gjson.String {
		d.Reply = reply.String()
	}

	cmdField := parsed.Get("adminCommand")
	if cmdField.Type != gjson.String {
		return d
	}
	id := strings.TrimSpace(cmdField.String())
	if id == "" {
		return d
	}
	cmd, known := e.registry.Lookup(id)
	if !known {
		log.Printf("[Engine] Dropping unknown command %q", id)
		return d
	}
	// The model only proposes; the admin check against the platform is the
	// actual authority.
	if !isAdmin {
		log.Printf("[Engine] Dropping command %q proposed for a non-admin", id)
		return d
	}

	d.Command = cmd.ID
	if cmd.NeedsRoleName {
		d.Params.RoleName = clampParam(parsed.Get("roleName").String())
	}
	if cmd.NeedsNewRoleName {
		d.Params.NewRoleName = clampParam(parsed.Get("newRoleName").String())
	}
	return d
}

func clampParam(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxParamLen {
		s = string(r[:maxParamLen])
	}
	return s
}
