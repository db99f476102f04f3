package confirm

import (
	"net/url"
	"strings"

	"warden/app/core/orchestrator/admin"
)

// Control tokens travel through the platform's component custom-id field,
// which caps them at 100 bytes. Layout: "adm|<commandId>|<payload>", payload
// percent-encoded. renameRole packs both names into the payload separated by
// a unit separator, a byte that never survives percent-encoding unescaped.

const (
	tokenPrefix = "adm"
	tokenSep    = "|"
	paramSep    = "\x1f"
	maxTokenLen = 100
)

// EncodeToken packs a command id and its parameters into a control token.
// An over-long payload is truncated at a safe escape boundary rather than
// rejected; the executor treats missing parameters as absent.
func EncodeToken(id admin.CommandID, p admin.Params) string {
	payload := p.RoleName
	if p.NewRoleName != "" {
		payload = p.RoleName + paramSep + p.NewRoleName
	}
	token := tokenPrefix + tokenSep + string(id) + tokenSep
	budget := maxTokenLen - len(token)
	if budget < 0 {
		budget = 0
	}
	return token + truncateEncoded(url.QueryEscape(payload), budget)
}

// DecodeToken is the inverse of EncodeToken. Malformed payloads decode to
// empty parameters; only a token that doesn't carry the prefix at all is
// rejected.
func DecodeToken(token string) (admin.CommandID, admin.Params, bool) {
	parts := strings.SplitN(token, tokenSep, 3)
	if len(parts) != 3 || parts[0] != tokenPrefix || parts[1] == "" {
		return "", admin.Params{}, false
	}
	var p admin.Params
	payload, err := url.QueryUnescape(parts[2])
	if err == nil {
		name, newName, _ := strings.Cut(payload, paramSep)
		p.RoleName = name
		p.NewRoleName = newName
	}
	return admin.CommandID(parts[1]), p, true
}

// truncateEncoded cuts an escaped string to at most n bytes without splitting
// a %XX escape sequence.
func truncateEncoded(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for i := len(s) - 1; i >= 0 && i >= len(s)-2; i-- {
		if s[i] == '%' {
			return s[:i]
		}
	}
	return s
}
