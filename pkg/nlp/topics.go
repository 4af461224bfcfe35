package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/regionpulse/pkg/config"
)

// TopicExtractor pulls topic keywords out of short texts via the LLM with
// a keyword-matching fallback when the model is unavailable
type TopicExtractor struct {
	client *openai.Client
	config config.LLMConfig
}

// civicKeywords is the fallback list of topics matched verbatim when the
// model call fails
var civicKeywords = []string{
	"water", "water supply", "road", "roads", "electricity", "power",
	"education", "school", "college", "healthcare", "hospital",
	"employment", "jobs", "unemployment", "inflation", "price rise",
	"corruption", "scam", "development", "infrastructure",
	"farmer", "agriculture", "youth", "women", "safety",
	"subsidy", "scheme", "tax", "gst", "economy", "gdp",
	"security", "defence", "defense", "army", "military",
	"pollution", "environment", "climate", "flood", "drought",
	"housing", "transport", "metro", "railway", "highway",
	"digital", "internet", "technology", "startup",
	"poverty", "hunger", "ration", "gas", "petrol", "diesel",
	"election", "vote", "democracy", "parliament",
	"caste", "reservation", "religion", "communal",
	"media", "press", "freedom", "rights",
}

// NewTopicExtractor creates a new topic extractor
func NewTopicExtractor(cfg config.LLMConfig) *TopicExtractor {
	return &TopicExtractor{client: newClient(cfg), config: cfg}
}

// Extract returns up to topN lowercase topic keywords for the text. A
// model failure silently degrades to verbatim keyword matching; texts too
// short for meaningful topics return an empty list.
func (e *TopicExtractor) Extract(ctx context.Context, text string, topN int) []string {
	if len(strings.TrimSpace(text)) < 10 {
		return []string{}
	}
	if topN <= 0 {
		topN = 3
	}

	topics, err := e.extractLLM(ctx, text, topN)
	if err == nil && len(topics) > 0 {
		return topics
	}

	return e.keywordMatch(text, topN)
}

func (e *TopicExtractor) extractLLM(ctx context.Context, text string, topN int) ([]string, error) {
	text = truncate(text, 1000)

	req := openai.ChatCompletionRequest{
		Model:       e.config.Model,
		Temperature: float32(e.config.Temperature),
		MaxTokens:   200,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Extract up to %d short topic keywords from the user's text. "+
					"Prefer civic issues (water, roads, corruption, employment, healthcare...) over entity names. "+
					"Respond with a JSON array of lowercase strings only.", topN),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("topic request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from llm")
	}

	content := resp.Choices[0].Message.Content
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("no json array found in response")
	}

	var parsed []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parse topics response: %w", err)
	}

	topics := make([]string, 0, topN)
	for _, t := range parsed {
		t = strings.ToLower(strings.TrimSpace(t))
		if len(t) > 2 {
			topics = append(topics, t)
		}
		if len(topics) == topN {
			break
		}
	}
	return topics, nil
}

// keywordMatch is the no-model fallback, verbatim matching against the
// civic keyword list in declaration order
func (e *TopicExtractor) keywordMatch(text string, topN int) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, kw := range civicKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
		if len(found) == topN {
			break
		}
	}
	return found
}
