package provider

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"ap-scivis-web/internal/schema"
)

func mustMock(t *testing.T) *MockSource {
	t.Helper()
	s, err := NewMockSource()
	if err != nil {
		t.Fatalf("NewMockSource failed: %v", err)
	}
	return s
}

func fetchDocument(t *testing.T, s *MockSource, question string) (*schema.Envelope, *schema.AnimationInstructions) {
	t.Helper()
	raw, err := s.Fetch(context.Background(), question)
	if err != nil {
		t.Fatalf("Fetch(%q) failed: %v", question, err)
	}
	env, err := schema.DecodeEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("mock reply is not a valid envelope: %v", err)
	}
	doc, err := schema.DecodeDocument(env.Instructions)
	if err != nil {
		t.Fatalf("mock reply document rejected: %v", err)
	}
	return env, doc
}

func TestMockAnswersSeasonsQuestion(t *testing.T) {
	s := mustMock(t)
	env, doc := fetchDocument(t, s, "Why do we have seasons on Earth?")

	if doc.Scene != schema.SceneSolarSystem {
		t.Fatalf("scene = %q, want solar_system", doc.Scene)
	}
	if !strings.Contains(env.Text, "axial tilt") {
		t.Errorf("seasons explanation should mention the axial tilt: %q", env.Text)
	}

	var earth *schema.Actor
	for i := range doc.Actors {
		if doc.Actors[i].ID == "earth" {
			earth = &doc.Actors[i]
		}
	}
	if earth == nil {
		t.Fatalf("solar system scene must include an earth actor")
	}
	if earth.Tilt == nil || *earth.Tilt != 23.5 {
		t.Errorf("earth tilt = %v, want 23.5", earth.Tilt)
	}
}

func TestMockKeywordMatchingIsCaseInsensitive(t *testing.T) {
	s := mustMock(t)

	_, doc := fetchDocument(t, s, "EXPLAIN PHOTOSYNTHESIS PLEASE")
	if doc.Scene != schema.ScenePhotosynthesis {
		t.Errorf("scene = %q, want photosynthesis", doc.Scene)
	}
}

func TestMockSceneSelection(t *testing.T) {
	cases := []struct {
		question string
		scene    schema.SceneType
	}{
		{"How does an electric circuit work?", schema.SceneCircuit},
		{"What is wave interference?", schema.SceneWaveInterference},
		{"Describe a water molecule", schema.SceneMolecular},
	}

	s := mustMock(t)
	for _, tc := range cases {
		t.Run(string(tc.scene), func(t *testing.T) {
			_, doc := fetchDocument(t, s, tc.question)
			if doc.Scene != tc.scene {
				t.Errorf("scene = %q, want %q", doc.Scene, tc.scene)
			}
		})
	}
}

func TestMockFallsBackToCustomScene(t *testing.T) {
	s := mustMock(t)
	env, doc := fetchDocument(t, s, "Tell me about continental drift")

	if doc.Scene != schema.SceneCustom {
		t.Fatalf("scene = %q, want custom fallback", doc.Scene)
	}
	if len(doc.Actors) == 0 {
		t.Errorf("fallback scene should still carry an actor")
	}
	if !strings.Contains(env.Text, "continental drift") {
		t.Errorf("fallback text should echo the question: %q", env.Text)
	}
}

// すべての組み込み規則のドキュメントがデコード・検証を無傷で通過すること。
func TestMockRuleSetIsClean(t *testing.T) {
	s := mustMock(t)

	for _, rule := range s.rules {
		t.Run(rule.Name, func(t *testing.T) {
			raw, err := json.Marshal(rule.Document)
			if err != nil {
				t.Fatalf("rule document does not serialize: %v", err)
			}
			doc, err := schema.DecodeDocument(raw)
			if err != nil {
				t.Fatalf("rule document rejected: %v", err)
			}
			if violations := schema.Validate(doc); len(violations) > 0 {
				t.Errorf("rule document has violations: %v", violations)
			}
		})
	}
}

func TestMockRuleOrderFirstMatchWins(t *testing.T) {
	rules := []byte(`
- name: first
  keywords: [light]
  text: first
  document:
    scene: custom
    actors: [{id: a, kind: sphere}]
- name: second
  keywords: [light]
  text: second
  document:
    scene: custom
    actors: [{id: b, kind: sphere}]
- name: fallback
  keywords: []
  text: fallback
  document:
    scene: custom
    actors: [{id: c, kind: sphere}]
`)

	s, err := NewMockSourceFromRules(rules)
	if err != nil {
		t.Fatalf("NewMockSourceFromRules failed: %v", err)
	}

	raw, err := s.Fetch(context.Background(), "speed of light")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	env, err := schema.DecodeEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if env.Text != "first" {
		t.Errorf("text = %q, first matching rule must win", env.Text)
	}
}
