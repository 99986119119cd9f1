// Package compiler は、検証済みの指示ドキュメントをレンダラ非依存の
// コンパイル済みシーン（時刻整列済みタイムラインとアクター生成指示の列）へ
// 決定論的に変換します。I/O も外部依存も持ちません。
package compiler

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"ap-scivis-web/internal/schema"
)

// ErrEmptyScene は、プルーニング後にアクターが 1 つも残らない場合のみ返されます。
var ErrEmptyScene = errors.New("no actors remain after pruning")

// WarningCode はコンパイル警告の分類です。警告は常に非致命です。
type WarningCode string

const (
	WarnDuplicateActor   WarningCode = "duplicate_actor_pruned"
	WarnUnresolvedTarget WarningCode = "unresolved_target_skipped"
	WarnAmbiguousTarget  WarningCode = "ambiguous_target_skipped"
	WarnUnknownEasing    WarningCode = "unknown_easing"
	WarnDeadContent      WarningCode = "dead_content"
	WarnUnknownFollow    WarningCode = "unknown_follow_actor"
)

// Warning はコンパイル時の診断情報です。
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// CompiledEvent は実行可能なタイムラインエントリ 1 件です。
// easing は関数値ではなくタグとして保持するため、コンパイル結果は
// 繰り返し実行でもバイト単位で一致します。
type CompiledEvent struct {
	ActorID    string            `json:"actor_id"`
	Start      float64           `json:"start"`
	End        float64           `json:"end"`
	Easing     schema.EasingKind `json:"easing"`
	Properties map[string]any    `json:"properties"`
}

// Progress は時刻 t におけるイージング適用済み進行率を [0,1] で返します。
func (e CompiledEvent) Progress(t float64) float64 {
	if e.End <= e.Start {
		if t < e.Start {
			return 0
		}
		return 1
	}
	ratio := (t - e.Start) / (e.End - e.Start)
	ratio = math.Max(0, math.Min(1, ratio))
	ease, _ := EasingFor(e.Easing)
	return ease(ratio)
}

// ActiveAt は時刻 t にこのエントリが作用中かどうかを判定します。
func (e CompiledEvent) ActiveAt(t float64) bool {
	return t >= e.Start && t <= e.End
}

// CompiledAnnotation は表示期間へ展開済みのキャプションです。
type CompiledAnnotation struct {
	Text     string            `json:"text"`
	Start    float64           `json:"start"`
	End      float64           `json:"end"`
	Position []float64         `json:"position,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
}

// CameraMode はカメラ指示の種別です。
type CameraMode string

const (
	CameraStatic CameraMode = "static"
	CameraFollow CameraMode = "follow"
)

// CameraDirective は静的ポーズまたはアクター追従のカメラ指示です。
type CameraDirective struct {
	Mode        CameraMode `json:"mode"`
	Position    []float64  `json:"position"`
	Target      []float64  `json:"target"`
	FOV         float64    `json:"fov"`
	FollowActor string     `json:"follow_actor,omitempty"`
}

// CompiledScene はコンパイル済みシーン全体です。生成後は読み取り専用で、
// リクエスト間で共有される可変状態はありません。
type CompiledScene struct {
	Scene       schema.SceneType     `json:"scene"`
	Duration    float64              `json:"duration"`
	Loop        bool                 `json:"loop"`
	Actors      []schema.Actor       `json:"actors"`
	Timeline    []CompiledEvent      `json:"timeline"`
	Annotations []CompiledAnnotation `json:"annotations"`
	Camera      CameraDirective      `json:"camera"`

	// Warnings は診断用であり、シリアライズされる成果物には含めません。
	Warnings []Warning `json:"-"`
}

// Compile は検証済みドキュメントをコンパイル済みシーンへ変換します。
// 違反を含むドキュメントでもベストエフォートで処理し、無効な参照・フィールドのみを
// 落とします。アクターが 1 つも残らない場合に限り ErrEmptyScene を返します。
func Compile(doc *schema.AnimationInstructions) (*CompiledScene, error) {
	out := &CompiledScene{
		Scene:    doc.Scene,
		Duration: math.Max(0, doc.Duration),
		Loop:     doc.Loop,
	}

	// アクター生成指示はドキュメント順を維持します（描画順のフォールバック）。
	// 重複 ID は最初の出現のみ残します。
	seen := make(map[string]struct{}, len(doc.Actors))
	for _, a := range doc.Actors {
		if _, dup := seen[a.ID]; dup {
			out.warnf(WarnDuplicateActor, "actor %q declared again, keeping first declaration", a.ID)
			continue
		}
		seen[a.ID] = struct{}{}
		out.Actors = append(out.Actors, clampActor(a))
	}
	if len(out.Actors) == 0 {
		return nil, ErrEmptyScene
	}

	out.compileTimeline(doc, seen)
	out.compileAnnotations(doc)
	out.Camera = compileCamera(doc, seen, out.Actors, &out.Warnings)

	return out, nil
}

func (s *CompiledScene) compileTimeline(doc *schema.AnimationInstructions, ids map[string]struct{}) {
	// 安定ソート: 同時刻のイベントはドキュメント順を保持します。
	// 同一アクターの異なるプロパティへ同時に作用するイベントの見た目が
	// 非決定にならないために必須です。
	events := make([]schema.TimelineEvent, len(doc.Timeline))
	copy(events, doc.Timeline)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })

	for _, ev := range events {
		target, err := ev.TargetOf(ids)
		if err != nil {
			code := WarnUnresolvedTarget
			if errors.Is(err, schema.ErrAmbiguousTarget) {
				code = WarnAmbiguousTarget
			}
			s.warnf(code, "timeline event at t=%v skipped: %v", ev.Time, err)
			continue
		}

		start := math.Max(0, ev.Time)
		duration := math.Max(0, ev.Duration)
		if start > s.Duration {
			s.warnf(WarnDeadContent, "timeline event for %q at t=%v starts after scene end %v", target, ev.Time, s.Duration)
			continue
		}

		if _, known := EasingFor(ev.Easing); !known {
			s.warnf(WarnUnknownEasing, "easing %q is not recognized, falling back to linear", ev.Easing)
		}

		s.Timeline = append(s.Timeline, CompiledEvent{
			ActorID:    target,
			Start:      start,
			End:        start + duration,
			Easing:     canonicalEasing(ev.Easing),
			Properties: eventDelta(ev, target),
		})
	}
}

func (s *CompiledScene) compileAnnotations(doc *schema.AnimationInstructions) {
	for _, an := range doc.Annotations {
		start := math.Max(0, an.Time)
		if start > s.Duration {
			s.warnf(WarnDeadContent, "annotation %q at t=%v starts after scene end %v", an.Text, an.Time, s.Duration)
			continue
		}
		s.Annotations = append(s.Annotations, CompiledAnnotation{
			Text:     an.Text,
			Start:    start,
			End:      start + math.Max(0, an.Duration),
			Position: an.Position,
			Style:    an.Style,
		})
	}
}

// compileCamera は明示設定があればそれを、なければ全アクター初期位置の
// バウンディング範囲から導いた既定の俯瞰ポーズを発行します。
func compileCamera(doc *schema.AnimationInstructions, ids map[string]struct{}, actors []schema.Actor, warnings *[]Warning) CameraDirective {
	if doc.Camera != nil {
		cam := CameraDirective{
			Mode:     CameraStatic,
			Position: vec3(doc.Camera.Position),
			Target:   vec3(doc.Camera.Target),
			FOV:      doc.Camera.FOV,
		}
		if doc.Camera.FollowActor != "" {
			if _, ok := ids[doc.Camera.FollowActor]; ok {
				cam.Mode = CameraFollow
				cam.FollowActor = doc.Camera.FollowActor
			} else {
				*warnings = append(*warnings, Warning{
					Code:    WarnUnknownFollow,
					Message: fmt.Sprintf("camera follow_actor %q not found, using static pose", doc.Camera.FollowActor),
				})
			}
		}
		return cam
	}
	return overviewPose(actors)
}

// overviewPose は決定論的な既定カメラです。距離はシーンのバウンディング
// 半径から導出し、最小でも 10 を確保します。
func overviewPose(actors []schema.Actor) CameraDirective {
	center := []float64{0, 0, 0}
	n := 0
	for _, a := range actors {
		if len(a.Position) != 3 {
			continue
		}
		for i := 0; i < 3; i++ {
			center[i] += a.Position[i]
		}
		n++
	}
	if n > 0 {
		for i := 0; i < 3; i++ {
			center[i] /= float64(n)
		}
	}

	extent := 0.0
	for _, a := range actors {
		pos := a.Position
		if len(pos) != 3 {
			pos = []float64{0, 0, 0}
		}
		d := math.Sqrt(sq(pos[0]-center[0]) + sq(pos[1]-center[1]) + sq(pos[2]-center[2]))
		if a.Radius != nil {
			d += *a.Radius
		}
		if a.OrbitRadius != nil {
			d += *a.OrbitRadius
		}
		extent = math.Max(extent, d)
	}

	dist := math.Max(10, extent*2.5)
	// 斜め上からの視線方向。正規化してから距離を掛けることで、
	// カメラと注視点の距離がちょうど dist になる。
	dir := []float64{0.6, 0.4, 0.6}
	norm := math.Sqrt(sq(dir[0]) + sq(dir[1]) + sq(dir[2]))
	return CameraDirective{
		Mode: CameraStatic,
		Position: []float64{
			center[0] + dist*dir[0]/norm,
			center[1] + dist*dir[1]/norm,
			center[2] + dist*dir[2]/norm,
		},
		Target: center,
		FOV:    schema.DefaultCameraFOV,
	}
}

func (s *CompiledScene) warnf(code WarningCode, format string, args ...any) {
	s.Warnings = append(s.Warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// eventDelta は適用するプロパティ差分を組み立てます。
// 旧形式（アクター ID をキーに持つ properties）ではネストされたマップが差分です。
func eventDelta(ev schema.TimelineEvent, target string) map[string]any {
	if ev.ActorID != "" {
		return copyProps(ev.Properties)
	}
	if nested, ok := ev.Properties[target].(map[string]any); ok {
		return copyProps(nested)
	}
	delta := copyProps(ev.Properties)
	delete(delta, target)
	return delta
}

func copyProps(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// clampActor は範囲外の値をコンパイラ方針として丸め込みます（報告は Validate の責務）。
func clampActor(a schema.Actor) schema.Actor {
	a.Opacity = math.Max(0, math.Min(1, a.Opacity))
	return a
}

func canonicalEasing(kind schema.EasingKind) schema.EasingKind {
	if _, known := EasingFor(kind); known {
		return kind
	}
	return schema.EasingLinear
}

func vec3(v []float64) []float64 {
	if len(v) == 3 {
		return v
	}
	return []float64{0, 0, 0}
}

func sq(v float64) float64 { return v * v }
