package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxDraftImages caps how many image URLs a draft may carry.
const MaxDraftImages = 6

// SearchHit is a candidate source discovered via the search provider.
// It is ephemeral and never persisted.
type SearchHit struct {
	URL          string
	Title        string
	Snippet      string
	SourceDomain string
}

// RecipeDraft is the raw extraction output for a single SearchHit.
// Drafts are consumed by validation and discarded; they are never
// persisted directly.
type RecipeDraft struct {
	Name         string
	Description  *string
	Ingredients  []string
	Instructions []string
	PrepMinutes  *int
	CookMinutes  *int
	Servings     *int
	Images       []string
	Cuisine      *string
	Tags         []string

	// Confidence is the extraction model's self-reported confidence in [0,1].
	Confidence float64
}

// IsStructurallyComplete reports whether the draft carries the minimum
// fields needed to be a recipe at all: a name, at least one ingredient
// and at least one instruction step.
func (d *RecipeDraft) IsStructurallyComplete() bool {
	return d.Name != "" && len(d.Ingredients) > 0 && len(d.Instructions) > 0
}

// ValidatedRecipe is a draft plus the validation verdict.
type ValidatedRecipe struct {
	RecipeDraft

	QualityScore     float64
	QualityReason    string
	Accepted         bool
	RejectionReasons []string
}

// EmbeddingResult is a generated vector plus the text it was computed
// from. Immutable once created; nil stands for "generation failed".
type EmbeddingResult struct {
	Vector     []float32
	SourceText string
	ModelID    string
}

// Provenance records where and how a recipe was discovered. It is
// attached to every stored recipe and never mutated afterwards.
type Provenance struct {
	SourceURL         string
	SearchQuery       string
	DiscoveredAt      time.Time
	Confidence        float64
	ExtractionModelID string
	EmbeddingModelID  *string
}

// StoredRecipe is the durable form of a validated recipe. A nil
// Embedding is a legitimate committed state: the recipe is fully
// usable for keyword access and only excluded from similarity search
// until an embedding is backfilled.
type StoredRecipe struct {
	ID uuid.UUID
	ValidatedRecipe
	Provenance Provenance
	Embedding  *EmbeddingResult
	Approved   bool
	CreatedAt  time.Time
}

// SimilarRecipe is a stored recipe found via vector search together
// with its cosine similarity to the query vector.
type SimilarRecipe struct {
	Recipe     StoredRecipe
	Similarity float32
}

// RecipeFilter narrows keyword lookups over stored recipes.
type RecipeFilter struct {
	Cuisine string
	Tag     string
	Limit   int
}
