package nlp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/domain"
)

func testLLMConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{Endpoint: endpoint, APIKey: "test", Model: "test-model", Temperature: 0.2, MaxTokens: 500}
}

func TestClassifier_ParseResponse(t *testing.T) {
	c := NewClassifier(testLLMConfig(""))

	t.Run("well formed response", func(t *testing.T) {
		content := `[
			{"index":1,"sentiment":"negative","confidence":0.9,"scores":{"positive":0.05,"negative":0.9,"neutral":0.05}},
			{"index":2,"sentiment":"positive","confidence":0.8,"scores":{"positive":0.8,"negative":0.1,"neutral":0.1}}
		]`
		results, err := c.parseResponse(content, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, domain.SentimentNegative, results[0].Sentiment)
		assert.InDelta(t, 0.9, results[0].Confidence, 0.001)
		assert.Equal(t, domain.SentimentPositive, results[1].Sentiment)
	})

	t.Run("surrounding prose ignored", func(t *testing.T) {
		content := "Here are the classifications:\n```json\n[{\"index\":1,\"sentiment\":\"negative\",\"confidence\":0.7}]\n```"
		results, err := c.parseResponse(content, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.SentimentNegative, results[0].Sentiment)
	})

	t.Run("skipped indexes default to neutral", func(t *testing.T) {
		content := `[{"index":2,"sentiment":"negative","confidence":0.9}]`
		results, err := c.parseResponse(content, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.SentimentNeutral, results[0].Sentiment)
		assert.Zero(t, results[0].Confidence)
		assert.Equal(t, domain.SentimentNegative, results[1].Sentiment)
		assert.Equal(t, domain.SentimentNeutral, results[2].Sentiment)
	})

	t.Run("out of range indexes dropped", func(t *testing.T) {
		content := `[{"index":0,"sentiment":"negative"},{"index":5,"sentiment":"negative"}]`
		results, err := c.parseResponse(content, 2)
		require.NoError(t, err)
		assert.Equal(t, domain.SentimentNeutral, results[0].Sentiment)
		assert.Equal(t, domain.SentimentNeutral, results[1].Sentiment)
	})

	t.Run("bad labels coerced to neutral and confidence clamped", func(t *testing.T) {
		content := `[{"index":1,"sentiment":"angry","confidence":1.7}]`
		results, err := c.parseResponse(content, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.SentimentNeutral, results[0].Sentiment)
		assert.InDelta(t, 1.0, results[0].Confidence, 0.001)
	})

	t.Run("no array is an error", func(t *testing.T) {
		_, err := c.parseResponse("I cannot classify these texts.", 1)
		require.Error(t, err)
	})
}

func TestClassifier_ClassifyBatch(t *testing.T) {
	t.Run("empty input short circuits", func(t *testing.T) {
		c := NewClassifier(testLLMConfig(""))
		results, err := c.ClassifyBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("retries malformed responses before succeeding", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			if calls < 3 {
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"sorry, no json here"}}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[{\"index\":1,\"sentiment\":\"negative\",\"confidence\":0.85}]"}}]}`))
		}))
		defer srv.Close()

		c := NewClassifier(testLLMConfig(srv.URL + "/v1"))
		results, err := c.ClassifyBatch(context.Background(), []string{"roads are terrible"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, domain.SentimentNegative, results[0].Sentiment)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"still no json"}}]}`))
		}))
		defer srv.Close()

		c := NewClassifier(testLLMConfig(srv.URL + "/v1"))
		_, err := c.ClassifyBatch(context.Background(), []string{"text"})
		require.Error(t, err)
	})
}

func TestTopicExtractor_KeywordFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	e := NewTopicExtractor(testLLMConfig(srv.URL + "/v1"))

	t.Run("matches civic keywords in order", func(t *testing.T) {
		topics := e.Extract(context.Background(), "the water supply is broken and the roads are full of potholes", 3)
		assert.Equal(t, []string{"water", "water supply", "road"}, topics)
	})

	t.Run("short text yields nothing", func(t *testing.T) {
		assert.Empty(t, e.Extract(context.Background(), "hm ok", 3))
	})

	t.Run("no keywords yields empty list", func(t *testing.T) {
		assert.Empty(t, e.Extract(context.Background(), "what a lovely sunset this evening", 3))
	})

	t.Run("respects top n", func(t *testing.T) {
		topics := e.Extract(context.Background(),
			"water electricity roads education healthcare employment corruption", 2)
		assert.Len(t, topics, 2)
	})
}

func TestTranslator(t *testing.T) {
	t.Run("english passthrough without model call", func(t *testing.T) {
		tr := NewTranslator(testLLMConfig("http://127.0.0.1:1/v1")) // unreachable, must not be called
		out, err := tr.Translate(context.Background(), "already english text")
		require.NoError(t, err)
		assert.Equal(t, "already english text", out)
	})

	t.Run("empty passthrough", func(t *testing.T) {
		tr := NewTranslator(testLLMConfig("http://127.0.0.1:1/v1"))
		out, err := tr.Translate(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("translates via model", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"the roads are very bad"}}]}`))
		}))
		defer srv.Close()

		tr := NewTranslator(testLLMConfig(srv.URL + "/v1"))
		out, err := tr.Translate(context.Background(), "सड़कें बहुत खराब हैं")
		require.NoError(t, err)
		assert.Equal(t, "the roads are very bad", out)
	})
}
