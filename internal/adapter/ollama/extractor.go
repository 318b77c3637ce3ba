// Package ollama holds the clients for the local model server: draft
// extraction, quality evaluation and embedding generation.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"recipe-harvester/internal/domain"
)

const (
	extractionTemperature = 0.0
	keepAliveSeconds      = 600
)

// draftFormat is the JSON schema the extraction model must emit.
// Constraining the output at the model layer keeps parse failures rare
// and untyped payloads out of the rest of the pipeline.
var draftFormat = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"name":        map[string]interface{}{"type": "string"},
		"description": map[string]interface{}{"type": "string"},
		"ingredients": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"instructions": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"prep_minutes": map[string]interface{}{"type": "integer"},
		"cook_minutes": map[string]interface{}{"type": "integer"},
		"servings":     map[string]interface{}{"type": "integer"},
		"images": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"cuisine": map[string]interface{}{"type": "string"},
		"tags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"confidence": map[string]interface{}{"type": "number"},
	},
	"required": []string{"name", "ingredients", "instructions", "confidence"},
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string                 `json:"model"`
	Messages  []chatMessage          `json:"messages"`
	Stream    bool                   `json:"stream"`
	KeepAlive int                    `json:"keep_alive"`
	Format    map[string]interface{} `json:"format,omitempty"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Extractor asks the model to pull a structured recipe draft out of a
// page's text.
type Extractor struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewExtractor(baseURL, model string, client *http.Client) *Extractor {
	return &Extractor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
	}
}

func (e *Extractor) ModelID() string {
	return e.Model
}

// draftPayload mirrors draftFormat. Loosely-typed model output is
// converted to domain.RecipeDraft here and nowhere else.
type draftPayload struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepMinutes  *int     `json:"prep_minutes"`
	CookMinutes  *int     `json:"cook_minutes"`
	Servings     *int     `json:"servings"`
	Images       []string `json:"images"`
	Cuisine      string   `json:"cuisine"`
	Tags         []string `json:"tags"`
	Confidence   float64  `json:"confidence"`
}

func (e *Extractor) Extract(ctx context.Context, hit domain.SearchHit, pageText string) (*domain.RecipeDraft, error) {
	prompt := buildExtractionPrompt(hit, pageText)

	content, err := e.chat(ctx, prompt, draftFormat)
	if err != nil {
		return nil, err
	}

	var payload draftPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, &domain.ExtractionError{Reason: "model output is not valid draft JSON", Err: err}
	}
	if payload.Name == "" && len(payload.Ingredients) == 0 {
		return nil, &domain.ExtractionError{Reason: "model output matches no recipe"}
	}

	return payload.toDraft(), nil
}

func (e *Extractor) chat(ctx context.Context, prompt string, format map[string]interface{}) (string, error) {
	reqBody := chatRequest{
		Model: e.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Stream:    false,
		KeepAlive: keepAliveSeconds,
		Format:    format,
		Options: map[string]interface{}{
			"temperature": extractionTemperature,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status: %d", resp.StatusCode)
	}

	var respBody chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return respBody.Message.Content, nil
}

func buildExtractionPrompt(hit domain.SearchHit, pageText string) string {
	var b strings.Builder
	b.WriteString("Extract the recipe from the following web page into JSON.\n")
	b.WriteString("Fields:\n")
	b.WriteString("- name: the recipe title\n")
	b.WriteString("- description: a short description if present\n")
	b.WriteString("- ingredients: one entry per ingredient as free text, quantity + unit + ingredient (e.g. \"2 cups flour\")\n")
	b.WriteString("- instructions: the preparation steps, in order\n")
	b.WriteString("- prep_minutes, cook_minutes, servings: numbers if stated\n")
	b.WriteString("- cuisine: e.g. \"Italian\", if identifiable\n")
	b.WriteString("- tags: short labels like \"vegetarian\" or \"dessert\"\n")
	b.WriteString("- images: up to 6 image URLs from the page\n")
	b.WriteString("- confidence: your confidence between 0 and 1 that this extraction is accurate and the page is actually a recipe\n\n")
	fmt.Fprintf(&b, "Page URL: %s\nPage title: %s\n\nPage content:\n%s\n", hit.URL, hit.Title, pageText)
	return b.String()
}

func (p *draftPayload) toDraft() *domain.RecipeDraft {
	draft := &domain.RecipeDraft{
		Name:         strings.TrimSpace(p.Name),
		Ingredients:  cleanList(p.Ingredients),
		Instructions: cleanList(p.Instructions),
		PrepMinutes:  p.PrepMinutes,
		CookMinutes:  p.CookMinutes,
		Servings:     p.Servings,
		Images:       cleanList(p.Images),
		Tags:         cleanList(p.Tags),
		Confidence:   clamp01(p.Confidence),
	}
	if desc := strings.TrimSpace(p.Description); desc != "" {
		draft.Description = &desc
	}
	if cuisine := strings.TrimSpace(p.Cuisine); cuisine != "" {
		draft.Cuisine = &cuisine
	}
	if len(draft.Images) > domain.MaxDraftImages {
		draft.Images = draft.Images[:domain.MaxDraftImages]
	}
	return draft
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ domain.DraftExtractor = (*Extractor)(nil)
