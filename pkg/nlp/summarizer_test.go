package nlp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizer_SummarizeSentiments(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"- mood is tense in Varanasi\n"}}]}`))
	}))
	defer srv.Close()

	s := NewSummarizer(testLLMConfig(srv.URL + "/v1"))
	out, err := s.SummarizeSentiments(context.Background(), "Varanasi: 20 mentions, 15 negative")
	require.NoError(t, err)
	assert.Equal(t, "- mood is tense in Varanasi", out, "digest trimmed")

	var req struct {
		MaxTokens int `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(gotBody), &req))
	assert.Equal(t, 500, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "political sentiment analyst")
	assert.Contains(t, req.Messages[1].Content, "Varanasi: 20 mentions, 15 negative")
	assert.Contains(t, req.Messages[1].Content, "RISK AREAS")
}

func TestSummarizer_RegionReport(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Risk level: HIGH"}}]}`))
	}))
	defer srv.Close()

	s := NewSummarizer(testLLMConfig(srv.URL + "/v1"))
	out, err := s.RegionReport(context.Background(), "Varanasi", "Total mentions: 20")
	require.NoError(t, err)
	assert.Equal(t, "Risk level: HIGH", out)

	var req struct {
		MaxTokens int `json:"max_tokens"`
		Messages  []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(gotBody), &req))
	assert.Equal(t, 300, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, "report for the Varanasi region")
	assert.Contains(t, req.Messages[1].Content, "Total mentions: 20")
}

func TestSummarizer_Failures(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		s := NewSummarizer(testLLMConfig("http://127.0.0.1:1/v1"))
		_, err := s.SummarizeSentiments(context.Background(), "data")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "summarizer request failed")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		s := NewSummarizer(testLLMConfig(srv.URL + "/v1"))
		_, err := s.SummarizeSentiments(context.Background(), "data")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no response")
	})

	t.Run("blank content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  \n"}}]}`))
		}))
		defer srv.Close()

		s := NewSummarizer(testLLMConfig(srv.URL + "/v1"))
		_, err := s.RegionReport(context.Background(), "Varanasi", "data")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty summary")
	})
}
