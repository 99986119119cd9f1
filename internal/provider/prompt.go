package provider

import (
	"fmt"

	"ap-scivis-web/internal/schema"
)

// systemPromptHeader はモデルへの基本指示です。プロンプト文言は設定定数であり、
// システム挙動としての再設計対象ではありません。
const systemPromptHeader = `You are an expert at creating educational animations for scientific concepts.
Given a question, respond with a single JSON object and nothing else:

{
  "text": "Clear explanation of the concept...",
  "animation_instructions": { ... }
}

The animation_instructions object must conform to the JSON Schema below.
Every timeline event must carry an explicit "actor_id" naming the actor it
changes. Times are seconds from scene start and may not exceed the scene
duration.`

const scenePromptConventions = `Scene types and their conventions:
- solar_system: spheres with orbit_radius and tilt (degrees); the sun carries an emissive color
- photosynthesis: a plant, a sun, and particle_system actors for CO2 / H2O / O2 flows
- circuit: cubes for components, a particle_system for electrons travelling the loop
- wave_interference: two source actors, events modulating amplitude
- molecular: spheres as atoms, lines as bonds
- custom: any composition of the generic actor kinds

Always include realistic values, a timeline with eased property changes, and
timed annotations explaining what happens at each moment.`

// BuildSystemPrompt はヘッダ・リフレクション生成スキーマ・シーン規約を結合します。
func BuildSystemPrompt() (string, error) {
	schemaJSON, err := schema.DocumentSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("build system prompt: %w", err)
	}
	return fmt.Sprintf("%s\n\nJSON Schema:\n%s\n\n%s", systemPromptHeader, schemaJSON, scenePromptConventions), nil
}

// BuildUserPrompt は質問文をユーザープロンプトへ整形します。
func BuildUserPrompt(question string) string {
	return fmt.Sprintf(`Question: %s

Please provide both a text explanation and animation instructions for this
scientific concept. Focus on the key visual elements that would help someone
understand the concept better. Reply with valid JSON only.`, question)
}
