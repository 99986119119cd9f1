package provider

import (
	"context"
	"encoding/json"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRuleSet []byte

// Rule はモック応答選択の 1 規則です。最初にマッチした規則が勝ち、
// キーワードを持たない規則はフォールバックとして常にマッチします。
type Rule struct {
	Name     string         `yaml:"name"`
	Keywords []string       `yaml:"keywords"`
	Text     string         `yaml:"text"`
	Document map[string]any `yaml:"document"`
}

// Matches は小文字化済みの質問文に対する部分文字列マッチを行います。
func (r *Rule) Matches(question string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	for _, kw := range r.Keywords {
		if strings.Contains(question, kw) {
			return true
		}
	}
	return false
}

// MockSource は決定論的なフォールバック用の Instruction Source です。
// 規則本体は実スキーマで記述されており、JSON へ直列化して返すため、
// モック応答も実プロバイダ応答と同じデコード経路を通ります。
type MockSource struct {
	rules []Rule
}

// NewMockSource は埋め込み規則セットを読み込みます。
func NewMockSource() (*MockSource, error) {
	return NewMockSourceFromRules(defaultRuleSet)
}

// NewMockSourceFromRules は YAML の規則リストからモックを構築します。
func NewMockSourceFromRules(raw []byte) (*MockSource, error) {
	var rules []Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse mock rule set: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("mock rule set is empty")
	}
	return &MockSource{rules: rules}, nil
}

// Fetch は質問文へ規則を順に照合し、応答エンベロープの JSON を返します。
func (s *MockSource) Fetch(_ context.Context, question string) (string, error) {
	lowered := strings.ToLower(question)

	for i := range s.rules {
		rule := &s.rules[i]
		if !rule.Matches(lowered) {
			continue
		}

		envelope := map[string]any{
			"text":                   strings.ReplaceAll(rule.Text, "{question}", question),
			"animation_instructions": rule.Document,
		}
		data, err := json.Marshal(envelope)
		if err != nil {
			return "", fmt.Errorf("serialize mock rule %q: %w", rule.Name, err)
		}
		return string(data), nil
	}

	// 末尾のフォールバック規則が常にマッチするため、ここへは到達しません。
	return "", fmt.Errorf("no mock rule matched question")
}
