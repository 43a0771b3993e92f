package scene_test

import (
	"testing"

	"github.com/sketchflow-xyz/go-sketchflow/scene"
)

func TestViewDepth(t *testing.T) {
	s := scene.NewStore()
	doc := map[string]any{
		"id": "f1", "type": "frame", "width": 100,
		"children": []any{
			map[string]any{"id": "g1", "type": "group", "children": []any{
				map[string]any{"id": "r1", "type": "rect", "width": 5},
			}},
		},
	}
	if err := s.Insert(mustTree(t, doc), ""); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	t.Run("TruncationMarker", func(t *testing.T) {
		v := s.View("f1", 1)
		kids, ok := v["children"].([]any)
		if !ok || len(kids) != 1 {
			t.Fatalf("expected one serialized child, got %v", v["children"])
		}
		g := kids[0].(map[string]any)
		if g["children"] != "…" {
			t.Errorf("expected truncation marker at cutoff, got %v", g["children"])
		}
	})

	t.Run("DeeperDepthOnlyAddsChildren", func(t *testing.T) {
		shallow := s.View("f1", 0)
		deep := s.View("f1", -1)
		for k, v := range shallow {
			if k == "children" {
				continue
			}
			if deep[k] != v {
				t.Errorf("field %q changed with depth: %v vs %v", k, v, deep[k])
			}
		}
		g := deep["children"].([]any)[0].(map[string]any)
		r := g["children"].([]any)[0].(map[string]any)
		if r["id"] != "r1" {
			t.Errorf("expected r1 at full depth, got %v", r["id"])
		}
	})

	t.Run("DanglingID", func(t *testing.T) {
		if v := s.View("nope", -1); v != nil {
			t.Errorf("expected nil view for unknown id, got %v", v)
		}
	})

	t.Run("EmptyContainerStaysEmpty", func(t *testing.T) {
		s2 := scene.NewStore()
		if err := s2.Insert(mustTree(t, map[string]any{"id": "e", "type": "frame"}), ""); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if _, ok := s2.View("e", 0)["children"]; ok {
			t.Error("empty container must not carry a truncation marker")
		}
	})
}

func TestJSONRoundTrip(t *testing.T) {
	s := scene.NewStore()
	doc := map[string]any{
		"id": "f1", "type": "frame", "width": 100, "fill": "#222",
		"children": []any{
			map[string]any{"id": "t1", "type": "text", "content": "hello", "fontSize": 12},
			map[string]any{
				"id": "i1", "type": "ref", "componentId": "f1",
				"descendants": map[string]any{"t1": map[string]any{"content": "bye"}},
			},
		},
	}
	if err := s.Insert(mustTree(t, doc), ""); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	data, err := s.ToJSON()
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	back, err := scene.FromJSON(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !scene.Equal(s, back) {
		t.Error("document changed across a serialize/parse cycle")
	}
	ov := back.Get("i1").Overrides["t1"]
	if ov == nil || ov.Props["content"] != "bye" {
		t.Errorf("instance override lost in round trip: %+v", ov)
	}
}

func TestFromJSONErrors(t *testing.T) {
	if _, err := scene.FromJSON([]byte("{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := scene.FromJSON([]byte(`{"roots": 3}`)); err == nil {
		t.Error("expected error for non-array roots")
	}
	s, err := scene.FromJSON([]byte(`{}`))
	if err != nil || len(s.Roots) != 0 {
		t.Errorf("expected empty document for empty object, got %v / %v", s, err)
	}
}
