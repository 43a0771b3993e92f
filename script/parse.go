package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// headPattern matches the start of a call line: an optional binding prefix
// followed by a single-letter opcode and the opening paren.
var headPattern = regexp.MustCompile(`^(?:([A-Za-z_][A-Za-z0-9_]*)\s*=\s*)?([A-Z])\s*\(`)

var (
	numberPattern = regexp.MustCompile(`^[+-]?[0-9]+(?:\.[0-9]+)?$`)
	concatPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\+\s*("(?:[^"\\]|\\.)*")$`)
	refPattern    = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*(?:/[A-Za-z0-9_.\-]+)*$`)
)

// Parse turns a multi-line script into an ordered operation list.
// Blank lines and lines starting with "//" or "#" are skipped. Any
// malformed line fails the whole parse; nothing is executed on error.
func Parse(text string) ([]Op, error) {
	var ops []Op
	for i, rawLine := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		op, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
		if len(ops) > MaxOps {
			return nil, fmt.Errorf("line %d: %w (max %d)", lineNo, ErrTooManyOps, MaxOps)
		}
	}
	if len(ops) == 0 {
		return nil, ErrEmptyScript
	}
	return ops, nil
}

// parseLine parses one `[ident=] OPCODE(args)` line.
func parseLine(line string, lineNo int) (*Op, error) {
	m := headPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("line %d: malformed call syntax", lineNo)
	}
	code := Opcode(m[2][0])
	if !code.Valid() {
		return nil, fmt.Errorf("line %d: unknown opcode %q", lineNo, m[2])
	}

	open := len(m[0]) - 1
	close, err := scanBalanced(line, open)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo, err)
	}
	trailing := strings.TrimSpace(line[close+1:])
	if trailing != "" && !strings.HasPrefix(trailing, "//") && !strings.HasPrefix(trailing, "#") {
		return nil, fmt.Errorf("line %d: unexpected trailing input %q", lineNo, trailing)
	}

	op := &Op{Line: lineNo, Binding: m[1], Code: code}
	for _, tok := range splitTopLevel(line[open+1 : close]) {
		arg, err := classify(tok, lineNo)
		if err != nil {
			return nil, err
		}
		op.Args = append(op.Args, arg)
	}
	return op, nil
}

// scanBalanced walks the line from the opening paren at start, tracking
// nested (), {}, [] and quoted-string state with escape handling, and
// returns the index of the matching close paren.
func scanBalanced(s string, start int) (int, error) {
	var stack []byte
	inStr := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '(', '{', '[':
			stack = append(stack, c)
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != opener(c) {
				return 0, fmt.Errorf("%w: unexpected %q at column %d", ErrUnbalanced, string(c), i+1)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, nil
			}
		}
	}
	if inStr {
		return 0, fmt.Errorf("%w: unterminated string", ErrUnbalanced)
	}
	return 0, fmt.Errorf("%w: missing close paren", ErrUnbalanced)
}

func opener(close byte) byte {
	switch close {
	case ')':
		return '('
	case '}':
		return '{'
	default:
		return '['
	}
}

// splitTopLevel splits a raw argument list on commas that sit outside any
// nesting or quoted string.
func splitTopLevel(raw string) []string {
	var out []string
	depth := 0
	inStr := false
	escaped := false
	start := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(raw[start:i]))
				start = i + 1
			}
		}
	}
	last := strings.TrimSpace(raw[start:])
	if last != "" || len(out) > 0 {
		out = append(out, last)
	}
	return out
}

// classify turns one trimmed token into exactly one argument kind.
func classify(tok string, lineNo int) (Arg, error) {
	if tok == "" {
		return Arg{}, fmt.Errorf("line %d: %w: empty argument", lineNo, ErrBadArgument)
	}

	switch tok[0] {
	case '"':
		s, err := decodeString(tok)
		if err != nil {
			return Arg{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		return Arg{Kind: ArgString, Str: s}, nil
	case '{':
		obj, err := parseObject(tok)
		if err != nil {
			return Arg{}, fmt.Errorf("line %d: %w: %v", lineNo, ErrBadArgument, err)
		}
		return Arg{Kind: ArgObject, Obj: obj}, nil
	case '[':
		list, err := parseList(tok)
		if err != nil {
			return Arg{}, fmt.Errorf("line %d: %w: %v", lineNo, ErrBadArgument, err)
		}
		return Arg{Kind: ArgList, List: list}, nil
	}

	if numberPattern.MatchString(tok) {
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Arg{}, fmt.Errorf("line %d: %w: %q", lineNo, ErrBadArgument, tok)
		}
		return Arg{Kind: ArgNumber, Num: n}, nil
	}

	switch tok {
	case "true":
		return Arg{Kind: ArgBool, Bool: true}, nil
	case "false":
		return Arg{Kind: ArgBool, Bool: false}, nil
	case "null", "undefined":
		return Arg{Kind: ArgNull}, nil
	}

	if m := concatPattern.FindStringSubmatch(tok); m != nil {
		suffix, err := decodeString(m[2])
		if err != nil {
			return Arg{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		return Arg{Kind: ArgConcat, Ref: m[1], Suffix: suffix}, nil
	}

	if refPattern.MatchString(tok) {
		return Arg{Kind: ArgRef, Ref: tok}, nil
	}

	return Arg{}, fmt.Errorf("line %d: %w: %q", lineNo, ErrBadArgument, tok)
}

// entityReplacer unescapes the small set of HTML entities that show up in
// scripts authored by chat agents.
var entityReplacer = strings.NewReplacer(
	"&quot;", "\"",
	"&apos;", "'",
	"&#39;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

// decodeString decodes a double-quoted string literal: backslash escapes
// first, then HTML entities.
func decodeString(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("%w: malformed string %q", ErrBadArgument, tok)
	}
	var b strings.Builder
	body := tok[1 : len(tok)-1]
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			if c == '"' {
				return "", fmt.Errorf("%w: unescaped quote in %q", ErrBadArgument, tok)
			}
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("%w: dangling escape in %q", ErrBadArgument, tok)
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"', '\\', '/':
			b.WriteByte(body[i])
		default:
			// Unknown escape: keep it verbatim.
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return entityReplacer.Replace(b.String()), nil
}
