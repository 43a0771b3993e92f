// Package theme resolves design-variable references to concrete values.
// The mutation engine stores both the reference and a resolved snapshot;
// this package only answers lookups, it never owns document state.
package theme

import "strings"

// Resolver resolves a variable token to a concrete value for a theme.
// Tokens are either "$name" references or "{variableId}" bindings.
type Resolver interface {
	Resolve(token, activeTheme string) (string, bool)
}

// IsBinding reports whether a raw property value is a variable reference
// rather than a literal value.
func IsBinding(value string) bool {
	if strings.HasPrefix(value, "$") {
		return len(value) > 1
	}
	return strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") && len(value) > 2
}

// Key strips the reference syntax from a binding token.
func Key(token string) string {
	if strings.HasPrefix(token, "$") {
		return token[1:]
	}
	return strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
}

// Static is a map-backed Resolver keyed by theme name then variable name.
// Used by tests and the CLI; the editor plugs in its own resolver.
type Static struct {
	Themes  map[string]map[string]string
	Default string
}

// NewStatic creates a Static resolver with a single default theme.
func NewStatic(vars map[string]string) *Static {
	return &Static{
		Themes:  map[string]map[string]string{"default": vars},
		Default: "default",
	}
}

// Resolve looks the token up in the active theme, falling back to the
// default theme when the active one lacks the variable.
func (s *Static) Resolve(token, activeTheme string) (string, bool) {
	key := Key(token)
	if activeTheme == "" {
		activeTheme = s.Default
	}
	if vars, ok := s.Themes[activeTheme]; ok {
		if v, ok := vars[key]; ok {
			return v, true
		}
	}
	if activeTheme != s.Default {
		if v, ok := s.Themes[s.Default][key]; ok {
			return v, true
		}
	}
	return "", false
}
