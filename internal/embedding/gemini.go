package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// GeminiClient calls the Gemini embedContent API. It tries the primary model
// first and falls back to the fallback model on any failure. Exactly one
// fallback attempt is made; there is no retry or backoff.
type GeminiClient struct {
	baseURL       string
	apiKey        string
	primaryModel  string
	fallbackModel string
	dimensions    int
	client        *http.Client
	logger        *zap.Logger
}

// GeminiConfig configures the Gemini embeddings client.
type GeminiConfig struct {
	BaseURL       string
	APIKeyEnv     string
	PrimaryModel  string
	FallbackModel string
	Dimensions    int
	Timeout       time.Duration
}

// NewGeminiClient creates a Gemini embeddings client. The API key is read from
// the environment variable named by cfg.APIKeyEnv.
func NewGeminiClient(cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GeminiClient{
		baseURL:       cfg.BaseURL,
		apiKey:        key,
		primaryModel:  cfg.PrimaryModel,
		fallbackModel: cfg.FallbackModel,
		dimensions:    cfg.Dimensions,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}, nil
}

// Embed returns an embedding for text. On primary-model failure the fallback
// model is tried once; if both fail the last error is returned.
func (c *GeminiClient) Embed(ctx context.Context, text string, task Task) ([]float32, error) {
	vec, err := c.embedWithModel(ctx, c.primaryModel, text, task)
	if err == nil {
		return vec, nil
	}
	if c.logger != nil {
		c.logger.Warn("primary embedding model failed, trying fallback",
			zap.String("model", c.primaryModel), zap.Error(err))
	}
	vec, err2 := c.embedWithModel(ctx, c.fallbackModel, text, task)
	if err2 != nil {
		return nil, fmt.Errorf("embedding failed (primary: %v): %w", err, err2)
	}
	return vec, nil
}

// Dimensions returns the embedding dimension.
func (c *GeminiClient) Dimensions() int {
	return c.dimensions
}

type embedContentRequest struct {
	Model    string       `json:"model"`
	Content  embedContent `json:"content"`
	TaskType string       `json:"taskType,omitempty"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (c *GeminiClient) embedWithModel(ctx context.Context, model, text string, task Task) ([]float32, error) {
	body, err := json.Marshal(embedContentRequest{
		Model:    "models/" + model,
		Content:  embedContent{Parts: []embedPart{{Text: text}}},
		TaskType: string(task),
	})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed %s: status %d: %s", model, resp.StatusCode, bytes.TrimSpace(payload))
	}
	var out embedContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embed decode: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embed %s: empty embedding", model)
	}
	return out.Embedding.Values, nil
}
