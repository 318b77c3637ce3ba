package domain

import (
	"context"

	"github.com/google/uuid"
)

// RecipeRepository persists and reads stored recipes.
type RecipeRepository interface {
	// Save persists a validated recipe with its provenance and optional
	// embedding as a single atomic insert. It returns
	// ErrDuplicateRecord when a uniqueness invariant is violated.
	Save(ctx context.Context, rec *ValidatedRecipe, prov Provenance, emb *EmbeddingResult, approved bool) (*StoredRecipe, error)

	// GetByID retrieves a stored recipe.
	// Returns ErrRecipeNotFound for unknown IDs.
	GetByID(ctx context.Context, id uuid.UUID) (*StoredRecipe, error)

	// List returns recipes matching a keyword filter, newest first.
	List(ctx context.Context, filter RecipeFilter) ([]StoredRecipe, error)

	// SearchSimilar runs an approximate nearest-neighbor query by
	// cosine distance over recipes that have an embedding. Results
	// below minSimilarity are excluded.
	SearchSimilar(ctx context.Context, vector []float32, limit int, minSimilarity float32) ([]SimilarRecipe, error)

	// ListMissingEmbedding returns recipes stored without an embedding,
	// oldest first, for backfill.
	ListMissingEmbedding(ctx context.Context, limit int) ([]StoredRecipe, error)

	// AttachEmbedding backfills an embedding onto an existing recipe.
	AttachEmbedding(ctx context.Context, id uuid.UUID, emb *EmbeddingResult) error

	// SetApproved publishes or unpublishes a stored recipe.
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error

	// Delete removes a stored recipe.
	// Returns ErrRecipeNotFound for unknown IDs.
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionManager defines the interface for handling database transactions.
type TransactionManager interface {
	// RunInTx executes the given function within a transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
