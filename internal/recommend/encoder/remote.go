// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package encoder

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/linalg"
)

// HTTP calls an OpenAI-compatible embeddings endpoint
// (POST {BaseURL}/v1/embeddings), as served by sentence-transformers
// inference servers.
type HTTP struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client

	dim int
}

var _ Encoder = (*HTTP)(nil)

// NewHTTP creates a remote encoder for model with output dimension dim.
func NewHTTP(baseURL, apiKey, model string, dim int, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: timeout},
		dim:     dim,
	}
}

// RemoteFactoryFor returns a RemoteFactory that builds HTTP encoders against
// baseURL.
func RemoteFactoryFor(baseURL, apiKey string, timeout time.Duration) RemoteFactory {
	return func(model string, dim int) (Encoder, error) {
		if baseURL == "" {
			return unavailable{model: model, dim: dim}, nil
		}
		return NewHTTP(baseURL, apiKey, model, dim, timeout), nil
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Encode embeds a single text.
func (h *HTTP) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, recommend.Invalidf("text is empty")
	}
	out, err := h.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EncodeBatch embeds texts in one request and unit-normalizes every vector.
func (h *HTTP) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(embeddingRequest{Input: texts, Model: h.Model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // close error after read is not actionable

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings endpoint returned %s", resp.Status)
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings endpoint returned %d vectors, want %d", len(decoded.Data), len(texts))
	}

	out := make([][]float32, len(decoded.Data))
	for i, d := range decoded.Data {
		if h.dim > 0 && len(d.Embedding) != h.dim {
			return nil, recommend.Invalidf("model %q returned dimension %d, want %d", h.Model, len(d.Embedding), h.dim)
		}
		linalg.Normalize(d.Embedding)
		out[i] = d.Embedding
	}
	return out, nil
}

// Dim returns the declared output dimension. Zero skips the dimension check.
func (h *HTTP) Dim() int { return h.dim }
