// Package openai implements the model client against OpenAI-compatible APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

// Client implements domain.ModelClient (chat completions) and domain.Embedder
// (embeddings) against an OpenAI-compatible endpoint.
type Client struct {
	cfg     config.Config
	chatHC  *http.Client
	embedHC *http.Client
}

// New constructs a client with sensible timeouts.
func New(cfg config.Config) *Client {
	return &Client{
		cfg:     cfg,
		chatHC:  &http.Client{Timeout: 60 * time.Second},
		embedHC: &http.Client{Timeout: 30 * time.Second},
	}
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

// Invoke sends the prompt as a single user message and returns the first
// choice's content.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	body, _ := json.Marshal(map[string]any{
		"model":       c.cfg.OpenAIChatModel,
		"temperature": 0.2,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	op := func() error {
		start := time.Now()
		// Recreate the request each attempt to avoid reusing consumed bodies.
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+"/chat/completions", bytes.NewReader(body))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.chatHC.Do(r)
		observability.AIRequestsTotal.WithLabelValues("openai", "chat").Inc()
		observability.AIRequestDuration.WithLabelValues("openai", "chat").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := checkStatus(resp.StatusCode, "chat", respBody); err != nil {
			return err
		}
		return json.Unmarshal(respBody, &out)
	}
	if err := backoff.Retry(op, c.backoffConfig(ctx)); err != nil {
		return "", fmt.Errorf("op=openai.Invoke: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("op=openai.Invoke: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Embed calls the embeddings endpoint for the whole batch at once.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	body, _ := json.Marshal(map[string]any{
		"model": c.cfg.EmbeddingsModel,
		"input": texts,
	})
	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	op := func() error {
		start := time.Now()
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+"/embeddings", bytes.NewReader(body))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.embedHC.Do(r)
		observability.AIRequestsTotal.WithLabelValues("openai", "embeddings").Inc()
		observability.AIRequestDuration.WithLabelValues("openai", "embeddings").Observe(time.Since(start).Seconds())
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
		return nil, fmt.Errorf("op=openai.Embed: %w", err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("op=openai.Embed: got %d vectors for %d texts", len(out.Data), len(texts))
	}
	vecs := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

func checkStatus(status int, op string, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests:
		slog.Warn("openai rate limited", slog.String("op", op), slog.Int("status", status))
		return fmt.Errorf("%w: openai %s status 429", domain.ErrRateLimited, op)
	case status >= 400 && status < 500:
		snippet := string(body)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		slog.Warn("openai 4xx", slog.String("op", op), slog.Int("status", status), slog.String("body", snippet))
		return backoff.Permanent(fmt.Errorf("openai %s status %d", op, status))
	case status < 200 || status >= 300:
		slog.Error("openai non-2xx", slog.String("op", op), slog.Int("status", status))
		return fmt.Errorf("openai %s status %d", op, status)
	}
	return nil
}
