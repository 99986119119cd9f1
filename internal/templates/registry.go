// Package templates は SceneType からシーンテンプレートへの不変レジストリと、
// コンパイル済みシーンを自己完結した HTML ドキュメントへ描画する処理を提供します。
// レジストリはプロセス起動時に一度だけ構築され、パイプラインへ注入されます。
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html"
	"text/template"

	"ap-scivis-web/internal/compiler"
	"ap-scivis-web/internal/schema"
)

//go:embed scenes/*.js.tmpl page.html.tmpl
var templateFS embed.FS

// 未知のシーン種別に対するフォールバック本文。
const placeholderBody = `document.getElementById('animation-container').innerHTML =
    '<p>Animation template not found for this scene type.</p>';`

// sceneFiles は SceneType とテンプレートファイルの対応です。
var sceneFiles = map[schema.SceneType]string{
	schema.SceneSolarSystem:      "scenes/solar_system.js.tmpl",
	schema.ScenePhotosynthesis:   "scenes/photosynthesis.js.tmpl",
	schema.SceneCircuit:          "scenes/circuit.js.tmpl",
	schema.SceneWaveInterference: "scenes/wave_interference.js.tmpl",
	schema.SceneMolecular:        "scenes/molecular.js.tmpl",
	schema.SceneCustom:           "scenes/custom.js.tmpl",
}

// Registry は埋め込み済みテンプレート群の不変な索引です。
type Registry struct {
	page   *template.Template
	scenes map[schema.SceneType]*template.Template
}

// NewRegistry は埋め込みテンプレートをすべて解析してレジストリを構築します。
func NewRegistry() (*Registry, error) {
	page, err := template.ParseFS(templateFS, "page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	scenes := make(map[schema.SceneType]*template.Template, len(sceneFiles))
	for sceneType, file := range sceneFiles {
		tmpl, err := template.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse scene template %s: %w", file, err)
		}
		scenes[sceneType] = tmpl
	}

	return &Registry{page: page, scenes: scenes}, nil
}

// SceneParams は型付きアクターのフィールドから導出するテンプレートパラメータです。
// 生の辞書を文字列フォーマットへ流し込むことはしません。
type SceneParams struct {
	EarthTilt      float64
	OrbitRadius    float64
	AnimationSpeed float64
	Duration       float64
	Loop           bool
}

type annotationView struct {
	Text  string
	Start float64
	End   float64
}

type pageData struct {
	Title            string
	InstructionsJSON string
	CompiledJSON     string
	Annotations      []annotationView
	Body             string
}

type sceneData struct {
	Params SceneParams
}

// Render はコンパイル済みシーンを自己完結した HTML へ描画します。
// シリアライズ済みの指示ドキュメントとコンパイル結果はランタイム入力として
// そのまま埋め込まれます。
func (r *Registry) Render(doc *schema.AnimationInstructions, scene *compiler.CompiledScene) (string, error) {
	body, err := r.renderSceneBody(doc, scene)
	if err != nil {
		return "", err
	}

	instructionsJSON, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal instructions: %w", err)
	}
	compiledJSON, err := json.Marshal(scene)
	if err != nil {
		return "", fmt.Errorf("marshal compiled scene: %w", err)
	}

	annotations := make([]annotationView, 0, len(scene.Annotations))
	for _, an := range scene.Annotations {
		annotations = append(annotations, annotationView{
			Text:  html.EscapeString(an.Text),
			Start: an.Start,
			End:   an.End,
		})
	}

	var buf bytes.Buffer
	err = r.page.Execute(&buf, pageData{
		Title:            "Visual Explanation",
		InstructionsJSON: string(instructionsJSON),
		CompiledJSON:     string(compiledJSON),
		Annotations:      annotations,
		Body:             body,
	})
	if err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}
	return buf.String(), nil
}

func (r *Registry) renderSceneBody(doc *schema.AnimationInstructions, scene *compiler.CompiledScene) (string, error) {
	tmpl, ok := r.scenes[doc.Scene]
	if !ok {
		return placeholderBody, nil
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, sceneData{Params: deriveParams(doc, scene)})
	if err != nil {
		return "", fmt.Errorf("execute scene template %s: %w", doc.Scene, err)
	}
	return buf.String(), nil
}

// deriveParams は型付きフィールドからシーン固有パラメータを抽出します。
func deriveParams(doc *schema.AnimationInstructions, scene *compiler.CompiledScene) SceneParams {
	params := SceneParams{
		EarthTilt:      23.5,
		OrbitRadius:    3,
		AnimationSpeed: 0.01,
		Duration:       scene.Duration,
		Loop:           scene.Loop,
	}
	for _, a := range doc.Actors {
		if a.ID != "earth" {
			continue
		}
		if a.Tilt != nil {
			params.EarthTilt = *a.Tilt
		}
		if a.OrbitRadius != nil {
			params.OrbitRadius = *a.OrbitRadius
		}
	}
	return params
}
