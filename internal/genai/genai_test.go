package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockChatService records the params it was called with and returns a
// canned completion.
type mockChatService struct {
	lastParams openai.ChatCompletionNewParams
	resp       *openai.ChatCompletion
	err        error
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.lastParams = params
	return m.resp, m.err
}

func completionWith(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestGeneratePrompt(t *testing.T) {
	mock := &mockChatService{resp: completionWith("generated text")}
	c := &Client{chat: mock, model: DefaultModel}

	got, err := c.GeneratePrompt(context.Background(), "system", "user", 0.8)
	if err != nil {
		t.Fatalf("GeneratePrompt: %v", err)
	}
	if got != "generated text" {
		t.Errorf("got %q, want %q", got, "generated text")
	}
	if mock.lastParams.Model != DefaultModel {
		t.Errorf("model = %q, want %q", mock.lastParams.Model, DefaultModel)
	}
	if v := mock.lastParams.Temperature.Or(0); v != 0.8 {
		t.Errorf("temperature = %v, want 0.8", v)
	}
	if len(mock.lastParams.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(mock.lastParams.Messages))
	}
}

func TestGeneratePromptError(t *testing.T) {
	mock := &mockChatService{err: errors.New("boom")}
	c := &Client{chat: mock, model: DefaultModel}

	if _, err := c.GeneratePrompt(context.Background(), "s", "u", 0.2); err == nil {
		t.Fatal("expected error")
	}
}

func TestGeneratePromptNoChoices(t *testing.T) {
	mock := &mockChatService{resp: &openai.ChatCompletion{}}
	c := &Client{chat: mock, model: DefaultModel}

	_, err := c.GeneratePrompt(context.Background(), "s", "u", 0.2)
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("err = %v, want ErrNoChoicesReturned", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNewClientModelOption(t *testing.T) {
	c, err := NewClient(WithAPIKey("test-key"), WithModel("gpt-4o"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.model != openai.ChatModel("gpt-4o") {
		t.Errorf("model = %q, want gpt-4o", c.model)
	}
}
