package schema

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDecodeDocumentAppliesDefaults(t *testing.T) {
	raw := []byte(`{"scene":"custom","actors":[{"id":"ball","kind":"sphere"}]}`)

	doc, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("DecodeDocument failed: %v", err)
	}

	if doc.Duration != DefaultSceneDuration {
		t.Errorf("duration = %v, want %v", doc.Duration, DefaultSceneDuration)
	}
	if !doc.Loop {
		t.Errorf("loop should default to true")
	}

	a := doc.Actors[0]
	if a.Color != DefaultColor {
		t.Errorf("color = %q, want %q", a.Color, DefaultColor)
	}
	if a.Opacity != DefaultOpacity {
		t.Errorf("opacity = %v, want %v", a.Opacity, DefaultOpacity)
	}
	if !reflect.DeepEqual(a.Position, []float64{0, 0, 0}) {
		t.Errorf("position = %v, want origin", a.Position)
	}
	if !reflect.DeepEqual(a.Scale, []float64{1, 1, 1}) {
		t.Errorf("scale = %v, want unit", a.Scale)
	}
}

func TestDecodeDocumentEventAndAnnotationDefaults(t *testing.T) {
	raw := []byte(`{
		"scene": "custom",
		"actors": [{"id": "ball", "kind": "sphere"}],
		"timeline": [{"time": 1.0, "actor_id": "ball"}],
		"annotations": [{"time": 2.0, "text": "hello"}]
	}`)

	doc, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("DecodeDocument failed: %v", err)
	}

	ev := doc.Timeline[0]
	if ev.Duration != DefaultEventDuration {
		t.Errorf("event duration = %v, want %v", ev.Duration, DefaultEventDuration)
	}
	if ev.Easing != EasingLinear {
		t.Errorf("event easing = %q, want linear", ev.Easing)
	}
	if ev.Properties == nil {
		t.Errorf("missing properties should decode to an empty map, got nil")
	}

	if got := doc.Annotations[0].Duration; got != DefaultAnnotationDuration {
		t.Errorf("annotation duration = %v, want %v", got, DefaultAnnotationDuration)
	}
}

func TestDecodeDocumentAcceptsLegacyActorType(t *testing.T) {
	raw := []byte(`{"scene":"circuit","actors":[{"id":"battery","type":"cube"}]}`)

	doc, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("DecodeDocument failed: %v", err)
	}
	if doc.Actors[0].Kind != ActorCube {
		t.Errorf("kind = %q, want cube", doc.Actors[0].Kind)
	}
}

func TestDecodeDocumentReportsFirstInvalidField(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "missing scene",
			raw:   `{"actors":[{"id":"a","kind":"sphere"}]}`,
			field: "scene",
		},
		{
			name:  "unknown scene type",
			raw:   `{"scene":"plasma","actors":[]}`,
			field: "scene",
		},
		{
			name:  "actor without id",
			raw:   `{"scene":"custom","actors":[{"kind":"sphere"}]}`,
			field: "actors[0].id",
		},
		{
			name:  "unknown actor kind",
			raw:   `{"scene":"custom","actors":[{"id":"a","kind":"dodecahedron"}]}`,
			field: "actors[0].kind",
		},
		{
			name:  "event without time",
			raw:   `{"scene":"custom","actors":[{"id":"a","kind":"sphere"}],"timeline":[{"actor_id":"a"}]}`,
			field: "timeline[0].time",
		},
		{
			name:  "annotation without text",
			raw:   `{"scene":"custom","actors":[{"id":"a","kind":"sphere"}],"annotations":[{"time":1}]}`,
			field: "annotations[0].text",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(tc.raw))
			if err == nil {
				t.Fatalf("expected decode error, got none")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T: %v", err, err)
			}
			if decodeErr.Field != tc.field {
				t.Errorf("field = %q, want %q", decodeErr.Field, tc.field)
			}
		})
	}
}

func TestDecodeEnvelopeStripsCodeFence(t *testing.T) {
	raw := []byte("```json\n{\"text\":\"hi\",\"animation_instructions\":{\"scene\":\"custom\",\"actors\":[]}}\n```")

	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if env.Text != "hi" {
		t.Errorf("text = %q, want %q", env.Text, "hi")
	}
	if len(env.Instructions) == 0 {
		t.Errorf("instructions should survive the fence stripping")
	}
}

func TestDecodeEnvelopeRejectsNonObject(t *testing.T) {
	if _, err := DecodeEnvelope([]byte("The answer is 42.")); err == nil {
		t.Fatalf("plain prose should not decode as an envelope")
	}
	if _, err := DecodeEnvelope([]byte(`{}`)); err == nil {
		t.Fatalf("empty object should be rejected")
	}
}

// デコード → 再シリアライズ → 再デコードで結果が変化しないこと。
func TestDecodeDocumentRoundTripStable(t *testing.T) {
	raw := []byte(`{
		"scene": "solar_system",
		"duration": 12,
		"actors": [
			{"id": "sun", "kind": "sphere", "radius": 1, "color": "#ffdd00", "emissive": "#ffaa00"},
			{"id": "earth", "kind": "sphere", "radius": 0.3, "tilt": 23.5, "orbit_radius": 3, "position": [3, 0, 0]}
		],
		"timeline": [{"time": 0, "actor_id": "earth", "duration": 3, "easing": "ease-in-out", "properties": {"position": [0, 0, 3]}}],
		"annotations": [{"time": 0, "text": "start"}],
		"camera": {"position": [0, 5, 8], "fov": 60}
	}`)

	first, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("first decode failed: %v", err)
	}
	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	second, err := DecodeDocument(encoded)
	if err != nil {
		t.Fatalf("second decode failed: %v", err)
	}

	reencoded, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("re-marshal failed: %v", err)
	}
	if string(encoded) != string(reencoded) {
		t.Errorf("round trip is not stable:\nfirst:  %s\nsecond: %s", encoded, reencoded)
	}
}
