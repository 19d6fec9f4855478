package embedder

import (
	"log/slog"
	"testing"
)

func Test_LooksLikeChatModel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		model string
		want  bool
	}{
		{"gpt-4o", true},
		{"llama3:8b", true},
		{"mistral-7b", true},
		{"nomic-embed-text", false},
		{"text-embedding-3-small", false},
		{"mxbai-embed-large", false},
	}
	for _, tc := range cases {
		if got := looksLikeChatModel(tc.model); got != tc.want {
			t.Errorf("looksLikeChatModel(%q) = %v, want %v", tc.model, got, tc.want)
		}
	}
}

func Test_Validate_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if err := Validate(slog.Default()); err == nil {
		t.Fatal("want error for openai backend without API key")
	}
}

func Test_Validate_OllamaNeedsNoCredentials(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "ollama")

	if err := Validate(slog.Default()); err != nil {
		t.Fatalf("want nil error for ollama backend, got %v", err)
	}
}

func Test_DefaultDimensions(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSIONS", "")

	if got := DefaultDimensions("ollama"); got != 768 {
		t.Errorf("ollama default dimensions: want 768, got %d", got)
	}
	if got := DefaultDimensions("openai"); got != 1536 {
		t.Errorf("openai default dimensions: want 1536, got %d", got)
	}

	t.Setenv("EMBEDDING_DIMENSIONS", "3072")
	if got := DefaultDimensions("openai"); got != 3072 {
		t.Errorf("EMBEDDING_DIMENSIONS override: want 3072, got %d", got)
	}
}
