package domain

import "context"

// PageFetcher retrieves a candidate page and returns its readable text,
// already cleaned of markup and truncated to the extraction ceiling.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// DraftExtractor turns a candidate page's text into a structured draft
// via the extraction model. Exactly one model call per invocation; no
// retries at this layer.
type DraftExtractor interface {
	Extract(ctx context.Context, hit SearchHit, pageText string) (*RecipeDraft, error)
	ModelID() string
}

// QualityAssessment is the quality evaluator's verdict on a draft.
type QualityAssessment struct {
	// Rating is in [0,5] with one decimal of precision.
	Rating float64
	// Reasoning is a one-to-two sentence justification.
	Reasoning string
}

// QualityEvaluator scores a structurally complete draft for clarity,
// completeness, technique soundness and practicality.
type QualityEvaluator interface {
	Evaluate(ctx context.Context, draft *RecipeDraft) (*QualityAssessment, error)
}
