package compiler

import "ap-scivis-web/internal/schema"

// EaseFunc は進行率 t (0..1) を補正後の進行率 (0..1) へ写像する純関数です。
// すべての関数は 0→0, 1→1 を満たします。
type EaseFunc func(t float64) float64

func easeLinear(t float64) float64 { return t }

func easeInQuad(t float64) float64 { return t * t }

func easeOutQuad(t float64) float64 { return t * (2 - t) }

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// EasingFor は easing 名を正準関数へ対応付けます。
// 未知の名称は寛容に linear として扱い、第 2 戻り値で known=false を返します。
func EasingFor(kind schema.EasingKind) (EaseFunc, bool) {
	switch kind {
	case schema.EasingLinear:
		return easeLinear, true
	case schema.EasingIn:
		return easeInQuad, true
	case schema.EasingOut:
		return easeOutQuad, true
	case schema.EasingInOut:
		return easeInOutQuad, true
	default:
		return easeLinear, false
	}
}
