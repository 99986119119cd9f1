package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ViolationCode は意味的違反の分類です。
type ViolationCode string

const (
	ViolationDuplicateActorID ViolationCode = "duplicate_actor_id"
	ViolationUnresolvedTarget ViolationCode = "unresolved_target"
	ViolationAmbiguousTarget  ViolationCode = "ambiguous_target"
	ViolationUnknownFollow    ViolationCode = "unknown_follow_actor"
	ViolationBadVector        ViolationCode = "bad_vector"
	ViolationOutOfRange       ViolationCode = "out_of_range"
)

// Violation は検証で検出された違反 1 件です。
// 呼び出し側が棄却か縮退かを判断するため、検証自体は決して失敗しません。
type Violation struct {
	Code    ViolationCode `json:"code"`
	Field   string        `json:"field"`
	Message string        `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Field, v.Message)
}

// イベントターゲット解決の失敗種別。
var (
	ErrUnresolvedTarget = errors.New("timeline event references no existing actor")
	ErrAmbiguousTarget  = errors.New("timeline event references multiple actors")
)

// TargetOf はイベントの対象アクター ID を解決します。
// 明示的な actor_id を優先し、旧形式（properties のキーがアクター ID を兼ねる形）は
// 既知の ID と一致するキーがちょうど 1 つのときに限り受理します。
func (e *TimelineEvent) TargetOf(ids map[string]struct{}) (string, error) {
	if e.ActorID != "" {
		if _, ok := ids[e.ActorID]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnresolvedTarget, e.ActorID)
		}
		return e.ActorID, nil
	}

	var matches []string
	for key := range e.Properties {
		if _, ok := ids[key]; ok {
			matches = append(matches, key)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", ErrUnresolvedTarget
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %v", ErrAmbiguousTarget, matches)
	}
}

// Validate はデコード済みドキュメントを検証し、違反のリストを返します（空 = 妥当）。
// チェック順は仕様どおり: ID 一意性 → 参照解決 → カメラ追従 → ベクトル長 → 数値域。
func Validate(doc *AnimationInstructions) []Violation {
	var out []Violation

	// 1. アクター ID の一意性。重複 ID ごとに 1 件報告します。
	seen := make(map[string]int, len(doc.Actors))
	reported := make(map[string]bool)
	for _, a := range doc.Actors {
		seen[a.ID]++
	}
	for _, a := range doc.Actors {
		if seen[a.ID] > 1 && !reported[a.ID] {
			reported[a.ID] = true
			out = append(out, Violation{
				Code:    ViolationDuplicateActorID,
				Field:   "actors",
				Message: fmt.Sprintf("actor id %q is declared %d times", a.ID, seen[a.ID]),
			})
		}
	}

	ids := doc.ActorIDSet()

	// 2. タイムラインイベントの対象解決。解決できない参照は黙殺せず報告します。
	for i := range doc.Timeline {
		ev := &doc.Timeline[i]
		if _, err := ev.TargetOf(ids); err != nil {
			code := ViolationUnresolvedTarget
			if errors.Is(err, ErrAmbiguousTarget) {
				code = ViolationAmbiguousTarget
			}
			out = append(out, Violation{
				Code:    code,
				Field:   fmt.Sprintf("timeline[%d]", i),
				Message: err.Error(),
			})
		}
	}

	// 3. カメラ追従対象。
	if doc.Camera != nil && doc.Camera.FollowActor != "" {
		if _, ok := ids[doc.Camera.FollowActor]; !ok {
			out = append(out, Violation{
				Code:    ViolationUnknownFollow,
				Field:   "camera.follow_actor",
				Message: fmt.Sprintf("follow_actor %q does not name an existing actor", doc.Camera.FollowActor),
			})
		}
	}

	// 4. ベクトル長（存在する場合は必ず 3 成分）。
	for i, a := range doc.Actors {
		prefix := fmt.Sprintf("actors[%d]", i)
		out = appendVectorViolation(out, prefix+".position", a.Position)
		out = appendVectorViolation(out, prefix+".rotation", a.Rotation)
		out = appendVectorViolation(out, prefix+".scale", a.Scale)
		if a.Velocity != nil {
			out = appendVectorViolation(out, prefix+".velocity", a.Velocity)
		}
	}
	if doc.Camera != nil {
		out = appendVectorViolation(out, "camera.position", doc.Camera.Position)
		out = appendVectorViolation(out, "camera.target", doc.Camera.Target)
	}

	// 5. 数値域。丸め込み（クランプ）はコンパイラの方針であり、ここでは報告のみ行います。
	for i, a := range doc.Actors {
		if a.Opacity < 0 || a.Opacity > 1 {
			out = append(out, Violation{
				Code:    ViolationOutOfRange,
				Field:   fmt.Sprintf("actors[%d].opacity", i),
				Message: fmt.Sprintf("opacity %v outside [0.0, 1.0]", a.Opacity),
			})
		}
	}
	if doc.Duration < 0 {
		out = append(out, Violation{
			Code:    ViolationOutOfRange,
			Field:   "duration",
			Message: fmt.Sprintf("duration %v must be >= 0", doc.Duration),
		})
	}
	for i, ev := range doc.Timeline {
		prefix := fmt.Sprintf("timeline[%d]", i)
		if ev.Duration < 0 {
			out = append(out, Violation{
				Code:    ViolationOutOfRange,
				Field:   prefix + ".duration",
				Message: fmt.Sprintf("duration %v must be >= 0", ev.Duration),
			})
		}
		out = appendTimeViolation(out, prefix+".time", ev.Time, doc.Duration)
	}
	for i, an := range doc.Annotations {
		prefix := fmt.Sprintf("annotations[%d]", i)
		if an.Duration < 0 {
			out = append(out, Violation{
				Code:    ViolationOutOfRange,
				Field:   prefix + ".duration",
				Message: fmt.Sprintf("duration %v must be >= 0", an.Duration),
			})
		}
		out = appendTimeViolation(out, prefix+".time", an.Time, doc.Duration)
	}

	// シーン種別とアクター種別の組み合わせは意図的に制限しません。
	// 任意・カスタムシーンを許容するための開放性です。

	return out
}

func appendVectorViolation(out []Violation, field string, v []float64) []Violation {
	if len(v) == 3 {
		return out
	}
	return append(out, Violation{
		Code:    ViolationBadVector,
		Field:   field,
		Message: fmt.Sprintf("expected exactly 3 components, got %d", len(v)),
	})
}

func appendTimeViolation(out []Violation, field string, t, total float64) []Violation {
	if t < 0 {
		return append(out, Violation{
			Code:    ViolationOutOfRange,
			Field:   field,
			Message: fmt.Sprintf("time %v must be >= 0", t),
		})
	}
	if t > total {
		return append(out, Violation{
			Code:    ViolationOutOfRange,
			Field:   field,
			Message: fmt.Sprintf("time %v exceeds scene duration %v", t, total),
		})
	}
	return out
}
