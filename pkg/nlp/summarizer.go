package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/regionpulse/pkg/config"
)

// Summarizer turns aggregated sentiment data into short analyst digests
// and per-region intelligence reports via the shared LLM endpoint
type Summarizer struct {
	client *openai.Client
	config config.LLMConfig
}

const summarizerSystemPrompt = "You are a political sentiment analyst for India. " +
	"Give concise, actionable insights. Use bullet points. Be specific."

// NewSummarizer creates a new summarizer
func NewSummarizer(cfg config.LLMConfig) *Summarizer {
	return &Summarizer{client: newClient(cfg), config: cfg}
}

// SummarizeSentiments produces the overall digest from formatted
// aggregate data
func (s *Summarizer) SummarizeSentiments(ctx context.Context, data string) (string, error) {
	prompt := fmt.Sprintf(`Analyze this political sentiment data from India and provide:

1. TOP 3 KEY INSIGHTS (what's the public feeling?)
2. TOP 3 ISSUES of concern
3. RISK AREAS (regions/topics with high negative sentiment)
4. RECOMMENDED ACTIONS for political leaders

Data:
%s

Be specific with numbers and region names. Keep it under 300 words.`, data)

	return s.generate(ctx, prompt, 500)
}

// RegionReport produces a brief intelligence report for one region
func (s *Summarizer) RegionReport(ctx context.Context, region, data string) (string, error) {
	prompt := fmt.Sprintf(`Generate a brief political intelligence report for the %s region:

Sentiment Data:
%s

Include:
1. Overall public mood (1 line)
2. Top 3 issues people care about
3. Sentiment trend (improving/declining?)
4. Recommended action for the leader
5. Risk level: HIGH/MEDIUM/LOW

Keep it concise and actionable. Under 200 words.`, region, data)

	return s.generate(ctx, prompt, 300)
}

func (s *Summarizer) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Temperature: 0.3,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarizerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summarizer request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from llm")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("empty summary")
	}
	return out, nil
}
