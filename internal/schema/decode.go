package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ドキュメント全体のデフォルト値（spec 上の既定値）。
const (
	DefaultColor              = "#ffffff"
	DefaultOpacity            = 1.0
	DefaultEventDuration      = 1.0
	DefaultAnnotationDuration = 3.0
	DefaultSceneDuration      = 10.0
	DefaultCameraFOV          = 75.0
)

// DecodeError は構造的に不正な最初のフィールドを特定するデコードエラーです。
// 意味的な違反（ID 参照切れ等）はデコードエラーではなく Validate が報告します。
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Envelope はプロバイダ応答の外枠です。
type Envelope struct {
	Text         string          `json:"text"`
	Instructions json.RawMessage `json:"animation_instructions"`
}

// DecodeEnvelope はプロバイダの生テキストを応答エンベロープとして解釈します。
// LLM がコードフェンスで JSON を囲む場合があるため、先にフェンスを剥がします。
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	trimmed := stripCodeFence(raw)

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, wrapJSONError(err)
	}
	if env.Text == "" && len(env.Instructions) == 0 {
		return nil, &DecodeError{Field: "text", Reason: "missing required key"}
	}
	return &env, nil
}

// DecodeDocument は生の JSON を正規化済みの AnimationInstructions へ変換します。
// すべての既定値はここで適用され、以降の検証・コンパイルは既定値込みの値を前提にできます。
func DecodeDocument(raw []byte) (*AnimationInstructions, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, &DecodeError{Field: "animation_instructions", Reason: "missing required key"}
	}

	var w wireDocument
	if err := json.Unmarshal(stripCodeFence(raw), &w); err != nil {
		return nil, wrapJSONError(err)
	}
	return w.canonicalize()
}

// --- ワイヤ形式（存在有無を区別するためポインタを多用します） ---

type wireDocument struct {
	Scene       *SceneType       `json:"scene"`
	Actors      []wireActor      `json:"actors"`
	Timeline    []wireEvent      `json:"timeline"`
	Annotations []wireAnnotation `json:"annotations"`
	Camera      *wireCamera      `json:"camera"`
	Duration    *float64         `json:"duration"`
	Loop        *bool            `json:"loop"`
}

type wireActor struct {
	ID   *string    `json:"id"`
	Kind *ActorKind `json:"kind"`
	// 旧形式ドキュメントは kind を "type" キーで運びます。
	LegacyType *ActorKind `json:"type"`

	Radius      *float64  `json:"radius"`
	Color       *string   `json:"color"`
	Position    []float64 `json:"position"`
	Rotation    []float64 `json:"rotation"`
	Scale       []float64 `json:"scale"`
	Emissive    *string   `json:"emissive"`
	Opacity     *float64  `json:"opacity"`
	Mass        *float64  `json:"mass"`
	Velocity    []float64 `json:"velocity"`
	Tilt        *float64  `json:"tilt"`
	OrbitRadius *float64  `json:"orbit_radius"`
	TextContent *string   `json:"text_content"`
	FontSize    *float64  `json:"font_size"`
}

type wireEvent struct {
	Time       *float64       `json:"time"`
	ActorID    *string        `json:"actor_id"`
	Properties map[string]any `json:"properties"`
	Duration   *float64       `json:"duration"`
	Easing     *EasingKind    `json:"easing"`
}

type wireAnnotation struct {
	Time     *float64          `json:"time"`
	Text     *string           `json:"text"`
	Position []float64         `json:"position"`
	Duration *float64          `json:"duration"`
	Style    map[string]string `json:"style"`
}

type wireCamera struct {
	Position    []float64 `json:"position"`
	Target      []float64 `json:"target"`
	FOV         *float64  `json:"fov"`
	FollowActor *string   `json:"follow_actor"`
}

func (w *wireDocument) canonicalize() (*AnimationInstructions, error) {
	if w.Scene == nil {
		return nil, &DecodeError{Field: "scene", Reason: "missing required key"}
	}
	if !w.Scene.Valid() {
		return nil, &DecodeError{Field: "scene", Reason: fmt.Sprintf("unrecognized scene type %q", *w.Scene)}
	}

	doc := &AnimationInstructions{
		Scene:    *w.Scene,
		Duration: floatOr(w.Duration, DefaultSceneDuration),
		Loop:     boolOr(w.Loop, true),
	}

	doc.Actors = make([]Actor, 0, len(w.Actors))
	for i, wa := range w.Actors {
		a, err := wa.canonicalize(i)
		if err != nil {
			return nil, err
		}
		doc.Actors = append(doc.Actors, a)
	}

	doc.Timeline = make([]TimelineEvent, 0, len(w.Timeline))
	for i, we := range w.Timeline {
		if we.Time == nil {
			return nil, &DecodeError{Field: fmt.Sprintf("timeline[%d].time", i), Reason: "missing required key"}
		}
		props := we.Properties
		if props == nil {
			props = map[string]any{}
		}
		doc.Timeline = append(doc.Timeline, TimelineEvent{
			Time:       *we.Time,
			ActorID:    stringOr(we.ActorID, ""),
			Properties: props,
			Duration:   floatOr(we.Duration, DefaultEventDuration),
			Easing:     easingOr(we.Easing),
		})
	}

	doc.Annotations = make([]Annotation, 0, len(w.Annotations))
	for i, wn := range w.Annotations {
		if wn.Time == nil {
			return nil, &DecodeError{Field: fmt.Sprintf("annotations[%d].time", i), Reason: "missing required key"}
		}
		if wn.Text == nil {
			return nil, &DecodeError{Field: fmt.Sprintf("annotations[%d].text", i), Reason: "missing required key"}
		}
		doc.Annotations = append(doc.Annotations, Annotation{
			Time:     *wn.Time,
			Text:     *wn.Text,
			Position: wn.Position,
			Duration: floatOr(wn.Duration, DefaultAnnotationDuration),
			Style:    wn.Style,
		})
	}

	if w.Camera != nil {
		doc.Camera = &CameraSettings{
			Position:    vecOr(w.Camera.Position, []float64{0, 0, 10}),
			Target:      vecOr(w.Camera.Target, []float64{0, 0, 0}),
			FOV:         floatOr(w.Camera.FOV, DefaultCameraFOV),
			FollowActor: stringOr(w.Camera.FollowActor, ""),
		}
	}

	return doc, nil
}

func (wa *wireActor) canonicalize(index int) (Actor, error) {
	if wa.ID == nil || *wa.ID == "" {
		return Actor{}, &DecodeError{Field: fmt.Sprintf("actors[%d].id", index), Reason: "missing required key"}
	}

	kind := wa.Kind
	if kind == nil {
		kind = wa.LegacyType
	}
	if kind == nil {
		return Actor{}, &DecodeError{Field: fmt.Sprintf("actors[%d].kind", index), Reason: "missing required key"}
	}
	if !kind.Valid() {
		return Actor{}, &DecodeError{
			Field:  fmt.Sprintf("actors[%d].kind", index),
			Reason: fmt.Sprintf("unrecognized actor kind %q", *kind),
		}
	}

	return Actor{
		ID:          *wa.ID,
		Kind:        *kind,
		Radius:      wa.Radius,
		Color:       stringOr(wa.Color, DefaultColor),
		Position:    vecOr(wa.Position, []float64{0, 0, 0}),
		Rotation:    vecOr(wa.Rotation, []float64{0, 0, 0}),
		Scale:       vecOr(wa.Scale, []float64{1, 1, 1}),
		Emissive:    stringOr(wa.Emissive, ""),
		Opacity:     floatOr(wa.Opacity, DefaultOpacity),
		Mass:        wa.Mass,
		Velocity:    wa.Velocity,
		Tilt:        wa.Tilt,
		OrbitRadius: wa.OrbitRadius,
		TextContent: stringOr(wa.TextContent, ""),
		FontSize:    wa.FontSize,
	}, nil
}

// --- ヘルパー ---

func wrapJSONError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}
	}
	return &DecodeError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
}

// stripCodeFence は ```json ... ``` 形式のフェンスを取り除きます。
func stripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return raw
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(s)
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func stringOr(v *string, def string) string {
	if v != nil {
		return *v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func easingOr(v *EasingKind) EasingKind {
	if v != nil && *v != "" {
		return *v
	}
	return EasingLinear
}

func vecOr(v []float64, def []float64) []float64 {
	if v != nil {
		return v
	}
	// 共有を避けるため既定値は都度コピーします。
	out := make([]float64, len(def))
	copy(out, def)
	return out
}
