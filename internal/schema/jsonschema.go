package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// DocumentSchemaJSON は AnimationInstructions の JSON Schema をリフレクションで生成します。
// 生成結果はプロバイダのシステムプロンプトに埋め込まれ、モデルへ正確なワイヤ形式を伝えます。
func DocumentSchemaJSON() ([]byte, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
	}

	s := reflector.Reflect(new(AnimationInstructions))
	if s == nil {
		return nil, fmt.Errorf("failed to reflect animation instruction schema")
	}
	s.Title = "Animation Instructions"
	s.Description = "Structured animation instruction document describing actors, timeline events, annotations and camera for a science visualization."

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
