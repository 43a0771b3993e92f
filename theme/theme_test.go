package theme_test

import (
	"testing"

	"github.com/sketchflow-xyz/go-sketchflow/theme"
)

func TestIsBinding(t *testing.T) {
	for _, tc := range []struct {
		value string
		want  bool
	}{
		{"$primary", true},
		{"{var-12}", true},
		{"#ff0000", false},
		{"$", false},
		{"{}", false},
		{"", false},
		{"plain", false},
	} {
		if got := theme.IsBinding(tc.value); got != tc.want {
			t.Errorf("IsBinding(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestKey(t *testing.T) {
	if theme.Key("$primary") != "primary" || theme.Key("{var-12}") != "var-12" {
		t.Error("binding syntax not stripped")
	}
}

func TestStaticResolve(t *testing.T) {
	r := theme.NewStatic(map[string]string{"primary": "#00f", "bg": "#fff"})
	r.Themes["dark"] = map[string]string{"bg": "#111"}

	t.Run("DefaultTheme", func(t *testing.T) {
		v, ok := r.Resolve("$primary", "")
		if !ok || v != "#00f" {
			t.Errorf("got %q/%v", v, ok)
		}
	})

	t.Run("ActiveThemeWins", func(t *testing.T) {
		v, ok := r.Resolve("$bg", "dark")
		if !ok || v != "#111" {
			t.Errorf("got %q/%v", v, ok)
		}
	})

	t.Run("FallbackToDefault", func(t *testing.T) {
		v, ok := r.Resolve("$primary", "dark")
		if !ok || v != "#00f" {
			t.Errorf("got %q/%v", v, ok)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if _, ok := r.Resolve("$nope", ""); ok {
			t.Error("expected miss for unknown variable")
		}
	})
}
