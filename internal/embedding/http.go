package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/memgraft/memgraft/internal/config"
	"github.com/memgraft/memgraft/internal/pkg/errors"
)

// HTTPProvider talks to an embedding service over HTTP.
//
// The wire contract is deliberately minimal:
//
//	POST {base}/v1/embed  {"model": "...", "texts": ["...", ...]}
//	  -> {"embeddings": [[...], ...]}
//	GET  {base}/healthz   -> 200
type HTTPProvider struct {
	baseURL    string
	model      string
	dim        int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPProvider creates a provider from configuration.
func NewHTTPProvider(cfg config.EmbeddingConfig) *HTTPProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(rps)
	}

	return &HTTPProvider{
		baseURL: cfg.URL,
		model:   cfg.Model,
		dim:     cfg.Dim,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates one vector per input text.
func (p *HTTPProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.EmbeddingError("rate limit wait", err)
	}

	body, err := json.Marshal(embedRequest{Model: p.model, Texts: texts})
	if err != nil {
		return nil, errors.EmbeddingError("marshaling embed request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/embed", bytes.NewReader(body))
	if err != nil {
		return nil, errors.EmbeddingError("building embed request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.TimeoutError("embed request")
		}
		return nil, errors.EmbeddingError("embed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.EmbeddingError(
			fmt.Sprintf("embed request returned %d: %s", resp.StatusCode, string(data)), nil)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.EmbeddingError("decoding embed response", err)
	}

	if len(out.Embeddings) != len(texts) {
		return nil, errors.EmbeddingError(
			fmt.Sprintf("provider returned %d vectors for %d texts", len(out.Embeddings), len(texts)), nil)
	}

	for i, v := range out.Embeddings {
		if p.dim > 0 && len(v) != p.dim {
			return nil, errors.EmbeddingError(
				fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(v), p.dim), nil)
		}
	}

	return out.Embeddings, nil
}

// Dimension returns the configured vector dimension.
func (p *HTTPProvider) Dimension() int {
	return p.dim
}

// Ping checks provider reachability with a short health probe.
func (p *HTTPProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/healthz", nil)
	if err != nil {
		return errors.EmbeddingError("building health request", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.ServiceUnavailableError("embedding provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ServiceUnavailableError("embedding provider")
	}
	return nil
}
