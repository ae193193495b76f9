package llm

import (
	"testing"

	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/adiwardana/lyra/domain/entities"
)

func TestBuildContentsRoleMapping(t *testing.T) {
	g := &Gemini{
		logger:       zaptest.NewLogger(t),
		systemPrompt: "Be brief.",
	}

	history := []entities.Turn{
		{Role: entities.RoleUser, Content: "hello"},
		{Role: entities.RoleAssistant, Content: "hi there"},
	}
	contents := g.buildContents("how are you?", history)

	// system prompt + two history turns + current prompt
	if len(contents) != 4 {
		t.Fatalf("expected 4 contents, got %d", len(contents))
	}

	if contents[0].Role != genai.RoleUser {
		t.Errorf("system prompt role = %q, want user", contents[0].Role)
	}
	if contents[1].Role != genai.RoleUser {
		t.Errorf("user turn role = %q, want user", contents[1].Role)
	}
	if contents[2].Role != genai.RoleModel {
		t.Errorf("assistant turn role = %q, want model", contents[2].Role)
	}
	if contents[3].Role != genai.RoleUser {
		t.Errorf("prompt role = %q, want user", contents[3].Role)
	}

	if got := contents[0].Parts[0].Text; got != "Be brief." {
		t.Errorf("contents[0] text = %q, want the system prompt", got)
	}
	if got := contents[2].Parts[0].Text; got != "hi there" {
		t.Errorf("contents[2] text = %q, want the assistant turn", got)
	}
	if got := contents[3].Parts[0].Text; got != "how are you?" {
		t.Errorf("contents[3] text = %q, want the current prompt", got)
	}
}

func TestValidateGeminiConfig(t *testing.T) {
	if err := ValidateGeminiConfig(GeminiConfig{}); err == nil {
		t.Error("expected an error for a missing API key")
	}
	if err := ValidateGeminiConfig(GeminiConfig{APIKey: "k", Temperature: 1.5}); err == nil {
		t.Error("expected an error for temperature out of range")
	}
	if err := ValidateGeminiConfig(GeminiConfig{APIKey: "k", Temperature: 0.4, TopP: 0.9}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
