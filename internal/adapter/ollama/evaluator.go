package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"recipe-harvester/internal/domain"
)

var assessmentFormat = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"rating":    map[string]interface{}{"type": "number"},
		"reasoning": map[string]interface{}{"type": "string"},
	},
	"required": []string{"rating", "reasoning"},
}

// Evaluator scores a draft's quality on a 0-5 scale via the model
// server. It shares the chat plumbing with the extractor.
type Evaluator struct {
	extractor *Extractor
}

func NewEvaluator(baseURL, model string, client *http.Client) *Evaluator {
	return &Evaluator{
		extractor: NewExtractor(baseURL, model, client),
	}
}

type assessmentPayload struct {
	Rating    float64 `json:"rating"`
	Reasoning string  `json:"reasoning"`
}

func (e *Evaluator) Evaluate(ctx context.Context, draft *domain.RecipeDraft) (*domain.QualityAssessment, error) {
	content, err := e.extractor.chat(ctx, buildEvaluationPrompt(draft), assessmentFormat)
	if err != nil {
		return nil, err
	}

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("evaluator output is not valid JSON: %w", err)
	}

	rating := math.Round(payload.Rating*10) / 10
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}

	return &domain.QualityAssessment{
		Rating:    rating,
		Reasoning: strings.TrimSpace(payload.Reasoning),
	}, nil
}

func buildEvaluationPrompt(draft *domain.RecipeDraft) string {
	var b strings.Builder
	b.WriteString("Rate the quality of this recipe from 0 to 5, one decimal of precision.\n")
	b.WriteString("Judge: clarity of instructions, ingredient completeness, technique soundness, practicality.\n")
	b.WriteString("Reply with a rating and one-to-two sentences of reasoning.\n\n")

	fmt.Fprintf(&b, "Name: %s\n", draft.Name)
	if draft.Description != nil {
		fmt.Fprintf(&b, "Description: %s\n", *draft.Description)
	}
	if draft.PrepMinutes != nil {
		fmt.Fprintf(&b, "Prep minutes: %d\n", *draft.PrepMinutes)
	}
	if draft.CookMinutes != nil {
		fmt.Fprintf(&b, "Cook minutes: %d\n", *draft.CookMinutes)
	}
	if draft.Servings != nil {
		fmt.Fprintf(&b, "Servings: %d\n", *draft.Servings)
	}
	fmt.Fprintf(&b, "Ingredients:\n%s\n", strings.Join(draft.Ingredients, "\n"))
	fmt.Fprintf(&b, "Instructions:\n%s\n", strings.Join(draft.Instructions, "\n"))

	return b.String()
}

var _ domain.QualityEvaluator = (*Evaluator)(nil)
