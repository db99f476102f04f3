package engine

import "strings"

// extractJSONObject returns the first balanced top-level JSON object in s.
// The brace scan is quote- and escape-aware so braces inside string values
// don't unbalance it.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// repairReplyControlChars escapes literal control characters the model left
// inside the "reply" string value, which would otherwise make the object
// unparseable. Only the reply value is touched; structural whitespace stays.
func repairReplyControlChars(obj string) string {
	start, ok := findReplyValueStart(obj)
	if !ok {
		return obj
	}

	var b strings.Builder
	b.WriteString(obj[:start])
	escaped := false
	i := start
	for ; i < len(obj); i++ {
		c := obj[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			b.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			// closing quote of the reply value
			break
		}
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString(obj[i:])
	return b.String()
}

// findReplyValueStart locates the first byte of the string value of the
// top-level "reply" key, i.e. the position just past its opening quote.
func findReplyValueStart(obj string) (int, bool) {
	key := `"reply"`
	from := 0
	for {
		k := strings.Index(obj[from:], key)
		if k < 0 {
			return 0, false
		}
		i := from + k + len(key)
		for i < len(obj) && (obj[i] == ' ' || obj[i] == '\t' || obj[i] == '\n' || obj[i] == '\r') {
			i++
		}
		if i < len(obj) && obj[i] == ':' {
			i++
			for i < len(obj) && (obj[i] == ' ' || obj[i] == '\t' || obj[i] == '\n' || obj[i] == '\r') {
				i++
			}
			if i < len(obj) && obj[i] == '"' {
				return i + 1, true
			}
			return 0, false
		}
		from += k + len(key)
	}
}
