// Package schema は、アニメーション指示ドキュメント（Instruction Document）の
// 型定義・正規デコード・意味検証を提供します。
// ここで定義されるドキュメントはリクエスト単位で生成され、コンパイル後は破棄されます。
package schema

// SceneType はシーンの分野を選択する列挙タグです。
// スキーマ自体は SceneType に対して汎用であり、アクター種別の組み合わせを制限しません。
type SceneType string

const (
	SceneSolarSystem      SceneType = "solar_system"
	ScenePhotosynthesis   SceneType = "photosynthesis"
	SceneCircuit          SceneType = "circuit"
	SceneWaveInterference SceneType = "wave_interference"
	SceneMolecular        SceneType = "molecular"
	SceneCustom           SceneType = "custom"
)

// Valid は既知のシーン種別かどうかを判定します。
func (s SceneType) Valid() bool {
	switch s {
	case SceneSolarSystem, ScenePhotosynthesis, SceneCircuit,
		SceneWaveInterference, SceneMolecular, SceneCustom:
		return true
	}
	return false
}

// ActorKind はアクターの形状種別です。
type ActorKind string

const (
	ActorSphere         ActorKind = "sphere"
	ActorCube           ActorKind = "cube"
	ActorPlane          ActorKind = "plane"
	ActorCylinder       ActorKind = "cylinder"
	ActorParticleSystem ActorKind = "particle_system"
	ActorLine           ActorKind = "line"
	ActorText           ActorKind = "text"
)

// Valid は既知のアクター種別かどうかを判定します。
func (k ActorKind) Valid() bool {
	switch k {
	case ActorSphere, ActorCube, ActorPlane, ActorCylinder,
		ActorParticleSystem, ActorLine, ActorText:
		return true
	}
	return false
}

// EasingKind は補間カーブの名称です。未知の値はコンパイラが linear として扱います。
type EasingKind string

const (
	EasingLinear    EasingKind = "linear"
	EasingIn        EasingKind = "ease-in"
	EasingOut       EasingKind = "ease-out"
	EasingInOut     EasingKind = "ease-in-out"
)

// Actor はシーン内の視覚エンティティ 1 つを表します。
// デコード後は不変であり、動きはすべてタイムラインイベントとして表現されます。
type Actor struct {
	ID   string    `json:"id" jsonschema:"required"`
	Kind ActorKind `json:"kind" jsonschema:"required,enum=sphere,enum=cube,enum=plane,enum=cylinder,enum=particle_system,enum=line,enum=text"`

	// 形状・マテリアル
	Radius   *float64  `json:"radius,omitempty"`
	Color    string    `json:"color"`
	Position []float64 `json:"position"`
	Rotation []float64 `json:"rotation"`
	Scale    []float64 `json:"scale"`
	Emissive string    `json:"emissive,omitempty"`
	Opacity  float64   `json:"opacity"`

	// 物理パラメータ（物理を扱うシーンのみ設定されます）
	Mass     *float64  `json:"mass,omitempty"`
	Velocity []float64 `json:"velocity,omitempty"`

	// 分野固有の任意フィールド
	Tilt        *float64 `json:"tilt,omitempty"`
	OrbitRadius *float64 `json:"orbit_radius,omitempty"`

	// kind=text のときのみ意味を持ちます
	TextContent string   `json:"text_content,omitempty"`
	FontSize    *float64 `json:"font_size,omitempty"`
}

// TimelineEvent はスケジュールされたプロパティ変更です。
// ソースドキュメント内で時刻順に並んでいる必要はなく、整列はコンパイラの責務です。
type TimelineEvent struct {
	Time float64 `json:"time" jsonschema:"required"`

	// ActorID は変更対象のアクターを明示します（1 イベント = 1 アクター）。
	// 旧形式ドキュメントでは Properties のキーがアクター ID を兼ねる場合があります。
	ActorID    string         `json:"actor_id,omitempty"`
	Properties map[string]any `json:"properties"`
	Duration   float64        `json:"duration"`
	Easing     EasingKind     `json:"easing"`
}

// Annotation は時刻付きのテキストキャプションです。
type Annotation struct {
	Time     float64           `json:"time" jsonschema:"required"`
	Text     string            `json:"text" jsonschema:"required"`
	Position []float64         `json:"position,omitempty"`
	Duration float64           `json:"duration"`
	Style    map[string]string `json:"style,omitempty"`
}

// CameraSettings はカメラの初期配置と追従設定です。
type CameraSettings struct {
	Position []float64 `json:"position"`
	Target   []float64 `json:"target"`
	FOV      float64   `json:"fov"`

	// FollowActor が設定されている場合、実在するアクター ID を指していなければなりません。
	FollowActor string `json:"follow_actor,omitempty"`
}

// AnimationInstructions は指示ドキュメントのルートです。
// actors の並び順は描画順（z オーダー）のフォールバックとして扱われます。
type AnimationInstructions struct {
	Scene       SceneType       `json:"scene" jsonschema:"required,enum=solar_system,enum=photosynthesis,enum=circuit,enum=wave_interference,enum=molecular,enum=custom"`
	Actors      []Actor         `json:"actors" jsonschema:"required"`
	Timeline    []TimelineEvent `json:"timeline"`
	Annotations []Annotation    `json:"annotations"`
	Camera      *CameraSettings `json:"camera,omitempty"`
	Duration    float64         `json:"duration"`
	Loop        bool            `json:"loop"`
}

// ActorIDSet は重複を含むドキュメントでも解決可能なよう、最初に出現した ID を集合化します。
func (d *AnimationInstructions) ActorIDSet() map[string]struct{} {
	ids := make(map[string]struct{}, len(d.Actors))
	for _, a := range d.Actors {
		ids[a.ID] = struct{}{}
	}
	return ids
}
