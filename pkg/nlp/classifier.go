package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/domain"
)

// Classifier scores texts with an OpenAI-compatible LLM endpoint
type Classifier struct {
	client    *openai.Client
	config    config.LLMConfig
	systemMsg string
}

// SentimentResult is the outcome of classifying one text
type SentimentResult struct {
	Sentiment  domain.Sentiment
	Confidence float64
	Scores     map[string]float64
}

// NewClassifier creates a new LLM sentiment classifier
func NewClassifier(cfg config.LLMConfig) *Classifier {
	return &Classifier{
		client:    newClient(cfg),
		config:    cfg,
		systemMsg: sentimentSystemPrompt,
	}
}

const sentimentSystemPrompt = `You are a multilingual sentiment classifier for short social and news texts, including Hindi, Hinglish and other Indian languages. For every text respond with exactly one classification object:
- index: the text's position in the request, starting at 1
- sentiment: one of "positive", "negative", "neutral"
- confidence: probability of the chosen label, 0.0 to 1.0
- scores: object with "positive", "negative" and "neutral" probabilities

Judge overall sentiment toward the subject of the text, not politeness of wording. Sarcasm about failures is negative. Plain factual announcements are neutral. Respond with a JSON array only, no commentary.`

// ClassifyBatch classifies a slice of texts in one request and returns one
// result per input in order. Texts the model skipped come back as neutral
// with zero confidence so the caller always receives len(texts) results.
func (c *Classifier) ClassifyBatch(ctx context.Context, texts []string) ([]SentimentResult, error) {
	if len(texts) == 0 {
		return []SentimentResult{}, nil
	}

	prompt := c.buildPrompt(texts)

	// retry up to 3 times if we get invalid JSON
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req := openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: float32(c.config.Temperature),
			MaxTokens:   c.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: c.systemMsg},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no response from llm")
		}

		results, err := c.parseResponse(resp.Choices[0].Message.Content, len(texts))
		if err == nil {
			return results, nil
		}

		lastErr = err
		if strings.Contains(err.Error(), "parse json") || strings.Contains(err.Error(), "no json array found") {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed after 3 attempts: %w", lastErr)
}

// buildPrompt creates the prompt for the LLM
func (c *Classifier) buildPrompt(texts []string) string {
	var sb strings.Builder
	sb.WriteString("Classify the sentiment of these texts:\n\n")
	for i, text := range texts {
		// truncate long texts, sentiment reads fine from the opening
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, truncate(text, 500)))
	}
	sb.WriteString("\nRespond with a JSON array of classification objects.")
	return sb.String()
}

// parseResponse parses the LLM response into per-text results
func (c *Classifier) parseResponse(content string, count int) ([]SentimentResult, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("no json array found in response")
	}

	var parsed []struct {
		Index      int                `json:"index"`
		Sentiment  string             `json:"sentiment"`
		Confidence float64            `json:"confidence"`
		Scores     map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parse json array response: %w", err)
	}

	results := make([]SentimentResult, count)
	for i := range results {
		results[i] = SentimentResult{Sentiment: domain.SentimentNeutral, Scores: map[string]float64{}}
	}

	for _, p := range parsed {
		if p.Index < 1 || p.Index > count {
			continue
		}
		sentiment := domain.Sentiment(strings.ToLower(p.Sentiment))
		switch sentiment {
		case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral:
		default:
			sentiment = domain.SentimentNeutral
		}
		confidence := p.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		scores := p.Scores
		if scores == nil {
			scores = map[string]float64{}
		}
		results[p.Index-1] = SentimentResult{
			Sentiment:  sentiment,
			Confidence: confidence,
			Scores:     scores,
		}
	}

	return results, nil
}
