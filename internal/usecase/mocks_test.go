package usecase_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"recipe-harvester/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type MockSearchProvider struct {
	mock.Mock
}

func (m *MockSearchProvider) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}

type MockPageFetcher struct {
	mock.Mock
}

func (m *MockPageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

type MockDraftExtractor struct {
	mock.Mock
}

func (m *MockDraftExtractor) Extract(ctx context.Context, hit domain.SearchHit, pageText string) (*domain.RecipeDraft, error) {
	args := m.Called(ctx, hit, pageText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecipeDraft), args.Error(1)
}

func (m *MockDraftExtractor) ModelID() string {
	return "mock-extractor"
}

type MockQualityEvaluator struct {
	mock.Mock
}

func (m *MockQualityEvaluator) Evaluate(ctx context.Context, draft *domain.RecipeDraft) (*domain.QualityAssessment, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QualityAssessment), args.Error(1)
}

type MockVectorEncoder struct {
	mock.Mock
}

func (m *MockVectorEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockVectorEncoder) Version() string {
	return "mock-encoder"
}

type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) Save(ctx context.Context, rec *domain.ValidatedRecipe, prov domain.Provenance, emb *domain.EmbeddingResult, approved bool) (*domain.StoredRecipe, error) {
	args := m.Called(ctx, rec, prov, emb, approved)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredRecipe), args.Error(1)
}

func (m *MockRecipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoredRecipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredRecipe), args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, filter domain.RecipeFilter) ([]domain.StoredRecipe, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredRecipe), args.Error(1)
}

func (m *MockRecipeRepository) SearchSimilar(ctx context.Context, vector []float32, limit int, minSimilarity float32) ([]domain.SimilarRecipe, error) {
	args := m.Called(ctx, vector, limit, minSimilarity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SimilarRecipe), args.Error(1)
}

func (m *MockRecipeRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]domain.StoredRecipe, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredRecipe), args.Error(1)
}

func (m *MockRecipeRepository) AttachEmbedding(ctx context.Context, id uuid.UUID, emb *domain.EmbeddingResult) error {
	args := m.Called(ctx, id, emb)
	return args.Error(0)
}

func (m *MockRecipeRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	args := m.Called(ctx, id, approved)
	return args.Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTransactionManager runs the callback directly; tests only care
// that repo calls happen inside the RunInTx boundary.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}
