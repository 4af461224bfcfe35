package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/regionpulse/pkg/config"
)

// Translator detects language and translates text to English using the
// shared OpenAI-compatible endpoint
type Translator struct {
	client *openai.Client
	config config.LLMConfig
}

// NewTranslator creates a new translator
func NewTranslator(cfg config.LLMConfig) *Translator {
	return &Translator{client: newClient(cfg), config: cfg}
}

// DetectLanguage returns the language code for the text
func (t *Translator) DetectLanguage(text string) string {
	return DetectLanguage(text)
}

// Translate returns the English rendering of the text. Inputs already in
// English come back unchanged without a model call.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if DetectLanguage(text) == "en" {
		return text, nil
	}

	// truncate to keep request bounded
	text = truncate(text, 4500)

	req := openai.ChatCompletionRequest{
		Model:       t.config.Model,
		Temperature: 0,
		MaxTokens:   t.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Translate the user's text to English. Respond with the translation only, no commentary.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from llm")
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return "", fmt.Errorf("empty translation")
	}
	return translated, nil
}
