package compiler

import (
	"fmt"
	"math"

	"ap-scivis-web/internal/schema"
)

// ActorHandle はレンダラが生成したアクターの不透明ハンドルです。
type ActorHandle int

// Renderer は描画サーフェスへの最小ケーパビリティ境界です。
// コアは特定の 2D/3D ライブラリを仮定せず、この契約を満たすものを受け入れます。
// 未対応のアクター種別はシーン全体を失敗させず、汎用のプレースホルダ形状へ
// 縮退させる実装が求められます。
type Renderer interface {
	CreateActor(kind schema.ActorKind, initial schema.Actor) (ActorHandle, error)
	// ApplyPropertyAtTime は対象プロパティを目標値 value へ、イージング適用済み
	// 進行率 t (0..1) に応じて遷移させます。
	ApplyPropertyAtTime(h ActorHandle, property string, value any, t float64)
	AdvanceClock(dt float64)
	RenderFrame()
}

// Player はコンパイル済みシーンをレンダラのフレームループで再生します。
// 単一スレッドの協調スケジューリングを前提とし、1 回の Tick が時計を進めて
// 期限の来たプロパティ変更をすべて適用します。
type Player struct {
	scene   *CompiledScene
	r       Renderer
	handles map[string]ActorHandle
	clock   float64
	playing bool

	// finished は最終値の適用を終えたタイムラインエントリの索引です。
	// 区間全体が 2 回の Tick の間に収まるイベントでも、終端通過時に
	// 必ず一度 progress=1 で適用されることを保証します。
	finished map[int]bool
}

// NewPlayer はアクター生成指示をドキュメント順に実行し、再生器を初期化します。
func NewPlayer(scene *CompiledScene, r Renderer) (*Player, error) {
	p := &Player{
		scene:    scene,
		r:        r,
		handles:  make(map[string]ActorHandle, len(scene.Actors)),
		finished: make(map[int]bool, len(scene.Timeline)),
	}
	for _, a := range scene.Actors {
		h, err := r.CreateActor(a.Kind, a)
		if err != nil {
			return nil, fmt.Errorf("create actor %q: %w", a.ID, err)
		}
		p.handles[a.ID] = h
	}
	return p, nil
}

// Play / Pause / Restart は冪等な状態遷移です。別スレッドを起こすことはありません。

func (p *Player) Play() { p.playing = true }

func (p *Player) Pause() { p.playing = false }

func (p *Player) Restart() {
	p.clock = 0
	p.playing = true
	p.finished = make(map[int]bool, len(p.scene.Timeline))
}

// Clock は現在のシーン時刻を返します。
func (p *Player) Clock() float64 { return p.clock }

// Playing は再生中かどうかを返します。
func (p *Player) Playing() bool { return p.playing }

// Tick は時計を dt 秒進め、期限の来たタイムラインエントリをすべて適用して
// 1 フレーム描画します。終端を跨いだイベントは progress=1 で一度だけ確定され、
// トゥイーンが途中の値のまま止まることはありません。
// loop が有効な場合、時計は総尺を法として巻き戻ります。
func (p *Player) Tick(dt float64) {
	if !p.playing {
		return
	}

	p.clock += dt
	if p.scene.Duration > 0 && p.clock > p.scene.Duration {
		if p.scene.Loop {
			// 折り返す前に、今周回で未確定のイベントへ最終値を適用します。
			p.applyDue(p.scene.Duration)
			p.clock = math.Mod(p.clock, p.scene.Duration)
			p.finished = make(map[int]bool, len(p.scene.Timeline))
		} else {
			p.clock = p.scene.Duration
			p.playing = false
		}
	}

	p.applyDue(p.clock)
	p.r.AdvanceClock(dt)
	p.r.RenderFrame()
}

// applyDue は開始時刻を過ぎた未確定のエントリを時刻 t の進行率で適用します。
// t が終端以降なら Progress が 1 へクランプされ、そのエントリは確定扱いになります。
func (p *Player) applyDue(t float64) {
	for i := range p.scene.Timeline {
		ev := &p.scene.Timeline[i]
		if t < ev.Start || p.finished[i] {
			continue
		}
		h, ok := p.handles[ev.ActorID]
		if !ok {
			continue
		}
		progress := ev.Progress(t)
		for prop, value := range ev.Properties {
			p.r.ApplyPropertyAtTime(h, prop, value, progress)
		}
		if t >= ev.End {
			p.finished[i] = true
		}
	}
}

// VisibleAnnotations は時刻 t に表示されるキャプションを返します。
func (p *Player) VisibleAnnotations() []CompiledAnnotation {
	var out []CompiledAnnotation
	for _, an := range p.scene.Annotations {
		if p.clock >= an.Start && p.clock <= an.End {
			out = append(out, an)
		}
	}
	return out
}
