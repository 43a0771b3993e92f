package script

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Structured-data literals are parsed in two passes: valid strict JSON
// first, then a relaxed fallback. The relaxed grammar accepts exactly
// three extensions over JSON: unquoted identifier keys, single-quoted
// strings, and trailing commas. Bare words in value position are read as
// strings. Anything else is a parse error.

// parseObject parses a {...} literal.
func parseObject(tok string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(tok), &obj); err == nil {
		return obj, nil
	}
	v, rest, err := looseValue(tok)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("trailing data after object literal")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("not an object literal")
	}
	return m, nil
}

// parseList parses a [...] literal.
func parseList(tok string) ([]any, error) {
	var list []any
	if err := json.Unmarshal([]byte(tok), &list); err == nil {
		return list, nil
	}
	v, rest, err := looseValue(tok)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("trailing data after list literal")
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("not a list literal")
	}
	return l, nil
}

// looseValue parses one relaxed value from the front of s and returns the
// remainder.
func looseValue(s string) (any, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", fmt.Errorf("unexpected end of literal")
	}
	switch s[0] {
	case '{':
		return looseObject(s)
	case '[':
		return looseList(s)
	case '"', '\'':
		return looseString(s)
	}
	return looseBare(s)
}

// looseObject parses {key: value, ...} with optional trailing comma.
func looseObject(s string) (any, string, error) {
	out := make(map[string]any)
	s = s[1:] // consume '{'
	for {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, "", fmt.Errorf("unterminated object literal")
		}
		if s[0] == '}' {
			return out, s[1:], nil
		}
		key, rest, err := looseKey(s)
		if err != nil {
			return nil, "", err
		}
		rest = strings.TrimSpace(rest)
		if rest == "" || rest[0] != ':' {
			return nil, "", fmt.Errorf("expected ':' after key %q", key)
		}
		val, rest, err := looseValue(rest[1:])
		if err != nil {
			return nil, "", err
		}
		out[key] = val
		s = strings.TrimSpace(rest)
		if strings.HasPrefix(s, ",") {
			s = s[1:]
		} else if !strings.HasPrefix(s, "}") {
			return nil, "", fmt.Errorf("expected ',' or '}' after value for %q", key)
		}
	}
}

// looseList parses [value, ...] with optional trailing comma.
func looseList(s string) (any, string, error) {
	out := make([]any, 0)
	s = s[1:] // consume '['
	for {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, "", fmt.Errorf("unterminated list literal")
		}
		if s[0] == ']' {
			return out, s[1:], nil
		}
		val, rest, err := looseValue(s)
		if err != nil {
			return nil, "", err
		}
		out = append(out, val)
		s = strings.TrimSpace(rest)
		if strings.HasPrefix(s, ",") {
			s = s[1:]
		} else if !strings.HasPrefix(s, "]") {
			return nil, "", fmt.Errorf("expected ',' or ']' in list literal")
		}
	}
}

// looseKey reads a quoted or bare identifier key.
func looseKey(s string) (string, string, error) {
	if s[0] == '"' || s[0] == '\'' {
		v, rest, err := looseString(s)
		if err != nil {
			return "", "", err
		}
		return v.(string), rest, nil
	}
	end := 0
	for end < len(s) && isIdentByte(s[end]) {
		end++
	}
	if end == 0 {
		return "", "", fmt.Errorf("expected object key at %q", clip(s))
	}
	return s[:end], s[end:], nil
}

// looseString reads a single- or double-quoted string with escapes.
func looseString(s string) (any, string, error) {
	quote := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			i++
			if i >= len(s) {
				return nil, "", fmt.Errorf("dangling escape in string literal")
			}
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[i])
			}
		case quote:
			return b.String(), s[i+1:], nil
		default:
			b.WriteByte(c)
		}
	}
	return nil, "", fmt.Errorf("unterminated string literal")
}

// looseBare reads an unquoted scalar up to the next delimiter and
// interprets numbers, booleans, and null; everything else is a string.
func looseBare(s string) (any, string, error) {
	end := 0
	for end < len(s) && !strings.ContainsRune(",}]", rune(s[end])) {
		end++
	}
	word := strings.TrimSpace(s[:end])
	rest := s[end:]
	switch word {
	case "":
		return nil, "", fmt.Errorf("expected value at %q", clip(s))
	case "true":
		return true, rest, nil
	case "false":
		return false, rest, nil
	case "null":
		return nil, rest, nil
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return n, rest, nil
	}
	return word, rest, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func clip(s string) string {
	if len(s) > 20 {
		return s[:20] + "…"
	}
	return s
}
