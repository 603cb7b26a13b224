package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds API settings for the Gemini REST surface.
type Config struct {
	BaseURL         string
	APIKey          string // process-level default key
	EmbeddingModel  string
	GenerationModel string
	MaxEmbedChars   int
}

// Client talks to the Gemini generative-language API. It is stateless aside
// from configuration and safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.MaxEmbedChars <= 0 {
		cfg.MaxEmbedChars = 10000
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		log:        log,
	}
}

// resolveKey picks the caller-supplied key over the process default. Neither
// being set is a fail-fast condition, reported before any network call.
func (c *Client) resolveKey(apiKey string) (string, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = strings.TrimSpace(c.cfg.APIKey)
	}
	if key == "" {
		return "", ErrMissingCredential
	}
	return key, nil
}

// Embed returns the embedding vector for text. Input longer than
// MaxEmbedChars is truncated to that prefix before dispatch; oversized
// payloads would otherwise be rejected provider-side.
func (c *Client) Embed(ctx context.Context, text, apiKey string) ([]float32, error) {
	key, err := c.resolveKey(apiKey)
	if err != nil {
		return nil, err
	}

	safe := strings.TrimSpace(text)
	if safe == "" {
		return nil, &ProviderError{Op: "embedContent", Err: fmt.Errorf("embedding input is empty")}
	}
	if runes := []rune(safe); len(runes) > c.cfg.MaxEmbedChars {
		c.log.Debug("embedding input truncated",
			zap.Int("original_len", len(runes)),
			zap.Int("max_len", c.cfg.MaxEmbedChars),
		)
		safe = string(runes[:c.cfg.MaxEmbedChars])
	}

	reqBody := map[string]interface{}{
		"model": "models/" + c.cfg.EmbeddingModel,
		"content": map[string]interface{}{
			"parts": []map[string]string{{"text": safe}},
		},
	}

	raw, err := c.post(ctx, "embedContent", c.cfg.EmbeddingModel, key, reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Op: "embedContent", Err: fmt.Errorf("parse response json failed: %w", err)}
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, &ProviderError{Op: "embedContent", Err: fmt.Errorf("empty embedding in response")}
	}
	return parsed.Embedding.Values, nil
}

// GenerateText runs the generation model over prompt and returns the text of
// the first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt, apiKey string) (string, error) {
	key, err := c.resolveKey(apiKey)
	if err != nil {
		return "", err
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	raw, err := c.post(ctx, "generateContent", c.cfg.GenerationModel, key, reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ProviderError{Op: "generateContent", Err: fmt.Errorf("parse response json failed: %w", err)}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderError{Op: "generateContent", Err: fmt.Errorf("empty candidates in response")}
	}

	var out strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}

func (c *Client) post(ctx context.Context, op, modelName, key string, reqBody interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Op: op, Err: fmt.Errorf("marshal request failed: %w", err)}
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + modelName + ":" + op
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &ProviderError{Op: op, Err: fmt.Errorf("build request failed: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response failed: %w", err)}
	}
	if resp.StatusCode >= 300 {
		return nil, c.normalizeError(op, resp.StatusCode, raw)
	}
	return raw, nil
}

// normalizeError maps provider failures into the closed taxonomy so callers
// never see the provider's native error shapes.
func (c *Client) normalizeError(op string, status int, raw []byte) error {
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &envelope)

	switch {
	case status == http.StatusTooManyRequests || envelope.Error.Status == "RESOURCE_EXHAUSTED":
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, envelope.Error.Message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden,
		envelope.Error.Status == "UNAUTHENTICATED" || envelope.Error.Status == "PERMISSION_DENIED":
		return fmt.Errorf("%w: %s", ErrInvalidCredential, envelope.Error.Message)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(envelope.Error.Message), "api key"):
		return fmt.Errorf("%w: %s", ErrInvalidCredential, envelope.Error.Message)
	default:
		return &ProviderError{
			Op:     op,
			Status: status,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(raw))),
		}
	}
}
