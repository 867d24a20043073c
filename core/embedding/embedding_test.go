package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qq642160575-ship-it/rag/core/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestEmbedStrings(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		// 乱序返回，客户端按index重排
		fmt.Fprint(w, `{"data":[
			{"embedding":[0.0,1.0],"index":1,"object":"embedding"},
			{"embedding":[1.0,0.0],"index":0,"object":"embedding"}
		],"model":"test-embed","object":"list"}`)
	})

	embedder, err := New(&Config{
		APIKey:     "test-key",
		BaseURL:    server.URL + "/v1",
		Model:      "test-embed",
		Dimensions: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.Dimension())

	vectors, err := embedder.EmbedStrings(context.Background(), []string{"你好", "世界"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{0, 1}, vectors[1])
}

func TestEmbedStringsEmptyInput(t *testing.T) {
	embedder, err := New(&Config{APIKey: "k", BaseURL: "http://localhost", Model: "m", Dimensions: 2})
	require.NoError(t, err)

	vectors, err := embedder.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedStringsAPIError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"auth"}}`)
	})

	embedder, err := New(&Config{APIKey: "bad", BaseURL: server.URL, Model: "m", Dimensions: 2})
	require.NoError(t, err)

	_, err = embedder.EmbedStrings(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrEmbeddingFailed))
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestNewValidation(t *testing.T) {
	_, err := New(&Config{BaseURL: "http://localhost", Model: "m", Dimensions: 2})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfiguration))

	_, err = New(&Config{Provider: "huggingface", APIKey: "k", BaseURL: "u", Model: "m", Dimensions: 2})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfiguration))
}
