// Package ollama implements the model client against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/danielgaio/moto-advisor/internal/adapter/observability"
	"github.com/danielgaio/moto-advisor/internal/config"
	"github.com/danielgaio/moto-advisor/internal/domain"
)

// Client talks to Ollama's generate and embeddings endpoints. It implements
// domain.ModelClient and domain.Embedder.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs an Ollama client. Local generation can be slow on first
// load, so the HTTP timeout is generous.
func New(cfg config.Config) *Client {
	return &Client{cfg: cfg, hc: &http.Client{Timeout: 120 * time.Second}}
}

func (c *Client) backoffConfig(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxIval, mult := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxIval
	expo.Multiplier = mult
	return backoff.WithContext(expo, ctx)
}

// Invoke sends the prompt to /api/generate and returns the full response text.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model":  c.cfg.OllamaModel,
		"prompt": prompt,
		"stream": false,
	})
	var out struct {
		Response string `json:"response"`
	}
	op := func() error {
		start := time.Now()
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OllamaURL+"/api/generate", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues("ollama", "generate").Inc()
		observability.AIRequestDuration.WithLabelValues("ollama", "generate").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := checkStatus(resp.StatusCode, "generate", respBody); err != nil {
			return err
		}
		return json.Unmarshal(respBody, &out)
	}
	if err := backoff.Retry(op, c.backoffConfig(ctx)); err != nil {
		return "", fmt.Errorf("op=ollama.Invoke: %w", err)
	}
	return out.Response, nil
}

// Embed calls /api/embeddings once per text.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := c.embedOne(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("op=ollama.Embed: text %d: %w", i, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (c *Client) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, _ := json.Marshal(map[string]any{
		"model":  c.cfg.OllamaModel,
		"prompt": text,
	})
	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	op := func() error {
		start := time.Now()
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OllamaURL+"/api/embeddings", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues("ollama", "embeddings").Inc()
		observability.AIRequestDuration.WithLabelValues("ollama", "embeddings").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := checkStatus(resp.StatusCode, "embeddings", respBody); err != nil {
			return err
		}
		return json.Unmarshal(respBody, &out)
	}
	if err := backoff.Retry(op, c.backoffConfig(ctx)); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

// checkStatus classifies HTTP statuses for the retry loop: 429 and 5xx are
// retryable, other 4xx are permanent.
func checkStatus(status int, op string, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests:
		slog.Warn("ollama rate limited", slog.String("op", op), slog.Int("status", status))
		return fmt.Errorf("%w: ollama %s status 429", domain.ErrRateLimited, op)
	case status >= 400 && status < 500:
		snippet := string(body)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		slog.Warn("ollama 4xx", slog.String("op", op), slog.Int("status", status), slog.String("body", snippet))
		return backoff.Permanent(fmt.Errorf("ollama %s status %d", op, status))
	case status < 200 || status >= 300:
		slog.Error("ollama non-2xx", slog.String("op", op), slog.Int("status", status))
		return fmt.Errorf("ollama %s status %d", op, status)
	}
	return nil
}
