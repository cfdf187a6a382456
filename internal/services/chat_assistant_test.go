package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubGenerator struct {
	generate func(ctx context.Context, prompt string, turns []string) (string, error)
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, turns []string) (string, error) {
	if s.generate != nil {
		return s.generate(ctx, prompt, turns)
	}
	return "", nil
}

func newChatFixture(t *testing.T, model Generator) *ChatAssistant {
	t.Helper()
	catalog, err := NewCatalogSnapshot(CatalogSnapshotDeps{Products: &stubProductLister{}})
	if err != nil {
		t.Fatalf("NewCatalogSnapshot: %v", err)
	}
	assistant, err := NewChatAssistant(ChatAssistantDeps{Model: model, Catalog: catalog})
	if err != nil {
		t.Fatalf("NewChatAssistant: %v", err)
	}
	return assistant
}

func TestSendAppendsUserAndAssistantTurns(t *testing.T) {
	ctx := context.Background()
	model := &stubGenerator{
		generate: func(context.Context, string, []string) (string, error) {
			return "The MechKey RGB 60% is 120.00.", nil
		},
	}
	assistant := newChatFixture(t, model)

	reply := assistant.Send(ctx, "any keyboards?")
	if reply != "The MechKey RGB 60% is 120.00." {
		t.Fatalf("unexpected reply %q", reply)
	}

	transcript := assistant.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("expected two turns, got %d", len(transcript))
	}
	if transcript[0].Role != RoleUser || transcript[0].Text != "any keyboards?" {
		t.Fatalf("unexpected user turn %+v", transcript[0])
	}
	if transcript[1].Role != RoleAssistant {
		t.Fatalf("unexpected assistant turn %+v", transcript[1])
	}
}

func TestSendPromptCarriesCatalogSummary(t *testing.T) {
	ctx := context.Background()
	var seenPrompt string
	model := &stubGenerator{
		generate: func(_ context.Context, prompt string, _ []string) (string, error) {
			seenPrompt = prompt
			return "ok", nil
		},
	}
	assistant := newChatFixture(t, model)

	assistant.Send(ctx, "hello")
	if !strings.Contains(seenPrompt, "NeonX Runner Vapor") {
		t.Fatalf("prompt missing catalog summary:\n%s", seenPrompt)
	}
}

func TestSendFailureAppendsFallback(t *testing.T) {
	ctx := context.Background()
	model := &stubGenerator{
		generate: func(context.Context, string, []string) (string, error) {
			return "", errors.New("model unavailable")
		},
	}
	assistant := newChatFixture(t, model)

	reply := assistant.Send(ctx, "hello")
	if reply != FallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
	transcript := assistant.Transcript()
	if transcript[len(transcript)-1].Text != FallbackReply {
		t.Fatal("fallback must be recorded in the transcript")
	}
}

func TestSendStripsHTMLFromReply(t *testing.T) {
	ctx := context.Background()
	model := &stubGenerator{
		generate: func(context.Context, string, []string) (string, error) {
			return `<b>MechKey</b> is great<script>alert(1)</script>`, nil
		},
	}
	assistant := newChatFixture(t, model)

	reply := assistant.Send(ctx, "keyboards?")
	if strings.Contains(reply, "<") || strings.Contains(reply, "script") {
		t.Fatalf("reply must be sanitized, got %q", reply)
	}
	if !strings.Contains(reply, "MechKey is great") {
		t.Fatalf("sanitizing must keep the text, got %q", reply)
	}
}

func TestSendIgnoresBlankInput(t *testing.T) {
	assistant := newChatFixture(t, &stubGenerator{})
	if reply := assistant.Send(context.Background(), "   "); reply != "" {
		t.Fatalf("blank input must be ignored, got %q", reply)
	}
	if len(assistant.Transcript()) != 0 {
		t.Fatal("blank input must not enter the transcript")
	}
}
