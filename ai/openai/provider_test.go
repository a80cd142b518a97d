package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers the two OpenAI endpoints the adapters use.
func fakeServer(t *testing.T, chatStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, in := range req.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{float32(len(in)), 1}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if chatStatus != http.StatusOK {
			w.WriteHeader(chatStatus)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test-chat",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "Brazzaville"},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithEmbeddingModel("test-embed"),
		ai.WithChatModel("test-chat"),
		ai.WithTimeout(5*time.Second),
	)
}

func TestProvider_Embedder(t *testing.T) {
	srv := fakeServer(t, http.StatusOK)

	provider, err := NewProvider(testConfig(srv.URL))
	require.NoError(t, err)
	defer provider.Close()

	embedder := provider.Embedder()
	assert.Equal(t, "test-embed", embedder.Model())

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"ab", "abcd"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{2, 1}, vectors[0])
	assert.Equal(t, []float32{4, 1}, vectors[1])

	query, err := embedder.EmbedQuery(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, query)
}

func TestProvider_ChatModel(t *testing.T) {
	srv := fakeServer(t, http.StatusOK)

	provider, err := NewProvider(testConfig(srv.URL))
	require.NoError(t, err)
	defer provider.Close()

	text, err := provider.ChatModel().Generate(context.Background(), "system", "What is the capital?")
	require.NoError(t, err)
	assert.Equal(t, "Brazzaville", text)
}

func TestProvider_ChatModelFailure(t *testing.T) {
	srv := fakeServer(t, http.StatusInternalServerError)

	chat, err := NewChatModel(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = chat.Generate(context.Background(), "system", "question")
	assert.Error(t, err)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithEmbeddingModel(""))

	_, err := NewProvider(cfg)
	assert.Error(t, err)
}
