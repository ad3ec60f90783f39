package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"graft/internal/prompt"
)

// Chat generates assistant replies from composed prompts.
type Chat struct {
	client       *genai.Client
	defaultModel string
}

func NewChat(ctx context.Context, apiKey, defaultModel string, opts ...option.ClientOption) (*Chat, error) {
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Chat{client: client, defaultModel: defaultModel}, nil
}

// Complete sends a composed message sequence and returns the assistant
// text. The system message becomes the model's system instruction; prior
// turns become chat history and the final user message is sent last.
func (c *Chat) Complete(ctx context.Context, model string, messages []prompt.Message) (string, error) {
	if model == "" {
		model = c.defaultModel
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	gm := c.client.GenerativeModel(model)

	var history []*genai.Content
	var last string
	for i, m := range messages {
		switch m.Role {
		case prompt.RoleSystem:
			gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(m.Content)}}
		case prompt.RoleAssistant:
			history = append(history, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		case prompt.RoleUser:
			if i == len(messages)-1 {
				last = m.Content
				continue
			}
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		}
	}
	if last == "" {
		return "", fmt.Errorf("prompt must end with a user message")
	}

	session := gm.StartChat()
	session.History = history

	slog.DebugContext(ctx, "sending chat completion", "model", model, "history", len(history))
	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		slog.ErrorContext(ctx, "chat completion failed", "error", err, "model", model)
		return "", err
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text in response")
	}
	return b.String(), nil
}

func (c *Chat) Close() error {
	return c.client.Close()
}
