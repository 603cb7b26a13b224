package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/ai"
)

type recordedRequest struct {
	path   string
	apiKey string
	body   map[string]interface{}
}

// newProviderStub returns a server answering every request with status and
// respBody, recording what it received.
func newProviderStub(t *testing.T, status int, respBody string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, recordedRequest{
			path:   r.URL.Path,
			apiKey: r.Header.Get("x-goog-api-key"),
			body:   body,
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestClient(baseURL, defaultKey string) *ai.Client {
	return ai.NewClient(ai.Config{
		BaseURL:         baseURL,
		APIKey:          defaultKey,
		EmbeddingModel:  "text-embedding-004",
		GenerationModel: "gemini-2.5-flash-lite",
	}, nil)
}

// embeddedText digs the dispatched text out of a recorded embedContent body.
func embeddedText(t *testing.T, req recordedRequest) string {
	t.Helper()
	content, ok := req.body["content"].(map[string]interface{})
	require.True(t, ok)
	parts, ok := content["parts"].([]interface{})
	require.True(t, ok)
	require.Len(t, parts, 1)
	part, ok := parts[0].(map[string]interface{})
	require.True(t, ok)
	text, ok := part["text"].(string)
	require.True(t, ok)
	return text
}

func TestEmbed(t *testing.T) {
	srv, requests := newProviderStub(t, http.StatusOK,
		`{"embedding":{"values":[0.1,0.2,0.3]}}`)
	client := newTestClient(srv.URL, "default-key")

	vec, err := client.Embed(context.Background(), "some chunk text", "")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/models/text-embedding-004:embedContent", req.path)
	assert.Equal(t, "default-key", req.apiKey)
	assert.Equal(t, "models/text-embedding-004", req.body["model"])
	assert.Equal(t, "some chunk text", embeddedText(t, req))
}

func TestEmbedTruncatesOversizedInput(t *testing.T) {
	srv, requests := newProviderStub(t, http.StatusOK,
		`{"embedding":{"values":[0.1]}}`)
	client := newTestClient(srv.URL, "k")

	long := strings.Repeat("a", 12_000)
	_, err := client.Embed(context.Background(), long, "")
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	sent := embeddedText(t, (*requests)[0])
	assert.Len(t, sent, 10_000, "input is clipped to the dispatch limit")
	assert.Equal(t, long[:10_000], sent)
}

func TestEmbedPerCallKeyOverridesDefault(t *testing.T) {
	srv, requests := newProviderStub(t, http.StatusOK,
		`{"embedding":{"values":[0.1]}}`)
	client := newTestClient(srv.URL, "default-key")

	_, err := client.Embed(context.Background(), "text", "user-key")
	require.NoError(t, err)
	require.Len(t, *requests, 1)
	assert.Equal(t, "user-key", (*requests)[0].apiKey)
}

func TestMissingCredentialFailsBeforeDispatch(t *testing.T) {
	srv, requests := newProviderStub(t, http.StatusOK, `{}`)
	client := newTestClient(srv.URL, "")

	_, err := client.Embed(context.Background(), "text", "   ")
	assert.ErrorIs(t, err, ai.ErrMissingCredential)

	_, err = client.GenerateText(context.Background(), "prompt", "")
	assert.ErrorIs(t, err, ai.ErrMissingCredential)

	assert.Empty(t, *requests, "no request leaves the process without a key")
}

func TestEmbedEmptyInput(t *testing.T) {
	srv, requests := newProviderStub(t, http.StatusOK, `{}`)
	client := newTestClient(srv.URL, "k")

	_, err := client.Embed(context.Background(), "  \n ", "")
	var provErr *ai.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Empty(t, *requests)
}

func TestGenerateText(t *testing.T) {
	srv, requests := newProviderStub(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"world"}]}}]}`)
	client := newTestClient(srv.URL, "k")

	out, err := client.GenerateText(context.Background(), "say hello", "")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out, "multi-part candidates are concatenated")

	require.Len(t, *requests, 1)
	assert.Equal(t, "/models/gemini-2.5-flash-lite:generateContent", (*requests)[0].path)
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	srv, _ := newProviderStub(t, http.StatusOK, `{"candidates":[]}`)
	client := newTestClient(srv.URL, "k")

	_, err := client.GenerateText(context.Background(), "prompt", "")
	var provErr *ai.ProviderError
	assert.ErrorAs(t, err, &provErr)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "http 429",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota exceeded"}}`,
			wantErr: ai.ErrQuotaExceeded,
		},
		{
			name:    "resource exhausted without 429",
			status:  http.StatusServiceUnavailable,
			body:    `{"error":{"status":"RESOURCE_EXHAUSTED","message":"per-minute quota"}}`,
			wantErr: ai.ErrQuotaExceeded,
		},
		{
			name:    "http 401",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"status":"UNAUTHENTICATED","message":"bad key"}}`,
			wantErr: ai.ErrInvalidCredential,
		},
		{
			name:    "http 403",
			status:  http.StatusForbidden,
			body:    `{"error":{"status":"PERMISSION_DENIED","message":"forbidden"}}`,
			wantErr: ai.ErrInvalidCredential,
		},
		{
			name:    "bad request naming the api key",
			status:  http.StatusBadRequest,
			body:    `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`,
			wantErr: ai.ErrInvalidCredential,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newProviderStub(t, tt.status, tt.body)
			client := newTestClient(srv.URL, "k")

			_, err := client.Embed(context.Background(), "text", "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUnclassifiedProviderError(t *testing.T) {
	srv, _ := newProviderStub(t, http.StatusInternalServerError,
		`{"error":{"code":500,"status":"INTERNAL","message":"backend blew up"}}`)
	client := newTestClient(srv.URL, "k")

	_, err := client.Embed(context.Background(), "text", "")
	var provErr *ai.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusInternalServerError, provErr.Status)
	assert.Equal(t, "embedContent", provErr.Op)
	assert.NotErrorIs(t, err, ai.ErrQuotaExceeded)
	assert.NotErrorIs(t, err, ai.ErrInvalidCredential)
}
