package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ap-scivis-web/internal/config"
	"ap-scivis-web/internal/domain"
	"ap-scivis-web/internal/provider"
	"ap-scivis-web/internal/schema"
	"ap-scivis-web/internal/templates"
)

// stubSource は固定応答（またはエラー）を返す Instruction Source です。
type stubSource struct {
	reply string
	err   error
}

func (s stubSource) Fetch(ctx context.Context, question string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

// recordingNotifier は通知呼び出しを記録します。
type recordingNotifier struct {
	requests []domain.NotificationRequest
}

func (n *recordingNotifier) Notify(ctx context.Context, req domain.NotificationRequest) error {
	n.requests = append(n.requests, req)
	return nil
}

func (n *recordingNotifier) NotifyError(ctx context.Context, errDetail error, req domain.NotificationRequest) error {
	return nil
}

func testPipeline(t *testing.T, source provider.InstructionSource, notifier Notifier) *QueryPipeline {
	t.Helper()

	cfg := &config.Config{
		Provider:        config.ProviderMock,
		ProviderTimeout: 5 * time.Second,
		BaseOutputDir:   "output",
	}
	fallback, err := provider.NewMockSource()
	if err != nil {
		t.Fatalf("NewMockSource failed: %v", err)
	}
	registry, err := templates.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if source == nil {
		source = fallback
	}
	return NewQueryPipeline(cfg, source, fallback, registry, nil, notifier)
}

func TestExecuteSeasonsQuestionEndToEnd(t *testing.T) {
	p := testPipeline(t, nil, nil)

	resp, err := p.Execute(context.Background(), "Why does the Earth have seasons?")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(resp.TextResponse, "axial tilt") {
		t.Errorf("text should mention the axial tilt: %q", resp.TextResponse)
	}
	if resp.AnimationInstructions == nil {
		t.Fatalf("animation_instructions must not be null")
	}
	if resp.AnimationInstructions.Scene != schema.SceneSolarSystem {
		t.Errorf("scene = %q, want solar_system", resp.AnimationInstructions.Scene)
	}
	if resp.HTMLAnimation == nil || !strings.Contains(*resp.HTMLAnimation, "<!DOCTYPE html>") {
		t.Errorf("html_animation should be a self-contained document")
	}
}

func TestExecuteUnmatchedQuestionUsesCustomScene(t *testing.T) {
	p := testPipeline(t, nil, nil)

	resp, err := p.Execute(context.Background(), "asdkjasdkj random text")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.AnimationInstructions == nil {
		t.Fatalf("animation_instructions must not be null")
	}
	if resp.AnimationInstructions.Scene != schema.SceneCustom {
		t.Errorf("scene = %q, want custom", resp.AnimationInstructions.Scene)
	}
	if len(resp.AnimationInstructions.Actors) != 1 {
		t.Errorf("custom fallback should carry a single generic actor, got %d", len(resp.AnimationInstructions.Actors))
	}
	if resp.HTMLAnimation == nil {
		t.Errorf("html_animation must not be null for the fallback scene")
	}
}

func TestExecuteFallsBackWhenProviderFails(t *testing.T) {
	p := testPipeline(t, stubSource{err: &provider.ProviderError{Provider: "gemini", Err: errors.New("connection refused")}}, nil)

	resp, err := p.Execute(context.Background(), "Why do we have seasons?")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.AnimationInstructions == nil || resp.AnimationInstructions.Scene != schema.SceneSolarSystem {
		t.Errorf("provider failure must be absorbed by the rule-based fallback: %+v", resp.AnimationInstructions)
	}
}

func TestExecuteDegradesOnMalformedReply(t *testing.T) {
	const garbled = "Sorry, I can only answer in prose today."
	p := testPipeline(t, stubSource{reply: garbled}, nil)

	resp, err := p.Execute(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.TextResponse != garbled {
		t.Errorf("text = %q, want the raw reply", resp.TextResponse)
	}
	if resp.AnimationInstructions != nil || resp.HTMLAnimation != nil {
		t.Errorf("both animation fields must be null for a malformed reply")
	}
}

func TestExecuteDegradesOnInvalidDocument(t *testing.T) {
	reply := `{"text": "an explanation", "animation_instructions": {"scene": "plasma", "actors": []}}`
	p := testPipeline(t, stubSource{reply: reply}, nil)

	resp, err := p.Execute(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.TextResponse != "an explanation" {
		t.Errorf("text = %q, want the envelope text", resp.TextResponse)
	}
	if resp.AnimationInstructions != nil || resp.HTMLAnimation != nil {
		t.Errorf("rejected document must leave both animation fields null")
	}
}

func TestExecuteRejectsDocumentWithoutActors(t *testing.T) {
	reply := `{"text": "empty scene", "animation_instructions": {"scene": "custom", "actors": []}}`
	p := testPipeline(t, stubSource{reply: reply}, nil)

	resp, err := p.Execute(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.TextResponse != "empty scene" {
		t.Errorf("text = %q, want the envelope text", resp.TextResponse)
	}
	if resp.AnimationInstructions != nil || resp.HTMLAnimation != nil {
		t.Errorf("a scene with zero actors must be rejected entirely")
	}
}

func TestExecuteSendsCompletionNotification(t *testing.T) {
	notifier := &recordingNotifier{}
	p := testPipeline(t, nil, notifier)

	if _, err := p.Execute(context.Background(), "Why do we have seasons?"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(notifier.requests) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.requests))
	}
	req := notifier.requests[0]
	if req.SceneType != string(schema.SceneSolarSystem) {
		t.Errorf("notification scene = %q, want solar_system", req.SceneType)
	}
	if req.RequestID == "" {
		t.Errorf("notification must carry the request id")
	}
	if req.ArchiveURI != domain.SceneNotAvailable {
		t.Errorf("archive uri = %q, want N/A when archiving is disabled", req.ArchiveURI)
	}
}
