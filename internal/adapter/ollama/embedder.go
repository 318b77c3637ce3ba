package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"recipe-harvester/internal/domain"
)

// Embedder calls the model server's embed endpoint for a single text.
// Status codes are mapped to domain sentinels so the retry policy can
// tell transient failures from hopeless ones.
type Embedder struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewEmbedder(baseURL, model string, client *http.Client) *Embedder {
	return &Embedder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *Embedder) Encode(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedRequest{
		Model: e.Model,
		Input: []string{text},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedder: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		excerpt := readExcerpt(resp.Body)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("embedder status %d: %w", resp.StatusCode, domain.ErrRateLimited)
		case resp.StatusCode == http.StatusServiceUnavailable ||
			strings.Contains(strings.ToLower(excerpt), "loading"):
			return nil, fmt.Errorf("embedder status %d: %w", resp.StatusCode, domain.ErrModelColdStart)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, fmt.Errorf("embedder status %d: %w", resp.StatusCode, domain.ErrBadRequest)
		default:
			return nil, fmt.Errorf("embedder returned status: %d", resp.StatusCode)
		}
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(respBody.Embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(respBody.Embeddings))
	}

	return respBody.Embeddings[0], nil
}

func (e *Embedder) Version() string {
	return e.Model
}

// readExcerpt pulls a bounded slice of an error body for
// classification and logging.
func readExcerpt(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}

var _ domain.VectorEncoder = (*Embedder)(nil)
