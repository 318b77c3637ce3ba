package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recipe-harvester/internal/domain"
	"recipe-harvester/internal/usecase"
)

// harness wires real usecases over mocked external dependencies so a
// run exercises the whole pipeline.
type harness struct {
	search    *MockSearchProvider
	fetcher   *MockPageFetcher
	extractor *MockDraftExtractor
	evaluator *MockQualityEvaluator
	encoder   *MockVectorEncoder
	repo      *MockRecipeRepository

	harvest usecase.HarvestUsecase
}

func newHarness() *harness {
	h := &harness{
		search:    new(MockSearchProvider),
		fetcher:   new(MockPageFetcher),
		extractor: new(MockDraftExtractor),
		evaluator: new(MockQualityEvaluator),
		encoder:   new(MockVectorEncoder),
		repo:      new(MockRecipeRepository),
	}

	log := testLogger()
	valConfig := usecase.DefaultValidationConfig()
	sleeper := &recordingSleeper{}

	extract := usecase.NewExtractRecipeUsecase(h.fetcher, h.extractor, log)
	validate := usecase.NewValidateRecipeUsecase(h.evaluator, valConfig, log)
	embed := usecase.NewEmbedRecipeUsecase(
		h.encoder,
		usecase.DefaultEmbeddingRetryPolicy(),
		testDim,
		log,
		usecase.WithSleepFunc(sleeper.sleep),
	)

	h.harvest = usecase.NewHarvestUsecase(
		h.search, extract, validate, embed, h.repo,
		valConfig, h.evaluator,
		usecase.HarvestConfig{PoliteDelay: time.Millisecond},
		log,
	)
	return h
}

func hit(n string) domain.SearchHit {
	return domain.SearchHit{
		URL:          "https://example.com/recipes/" + n,
		Title:        n,
		SourceDomain: "example.com",
	}
}

func storedRecipe() *domain.StoredRecipe {
	return &domain.StoredRecipe{ID: uuid.New()}
}

func TestHarvest_Scenario(t *testing.T) {
	h := newHarness()

	hits := []domain.SearchHit{hit("good"), hit("mediocre"), hit("broken")}
	h.search.On("Search", mock.Anything, "vegetable soup", mock.Anything).Return(hits, nil)

	h.fetcher.On("Fetch", mock.Anything, hits[0].URL).Return("page one", nil)
	h.fetcher.On("Fetch", mock.Anything, hits[1].URL).Return("page two", nil)
	h.fetcher.On("Fetch", mock.Anything, hits[2].URL).Return("", errors.New("malformed page"))

	goodDraft := completeDraft()
	mediocreDraft := completeDraft()
	h.extractor.On("Extract", mock.Anything, hits[0], "page one").Return(goodDraft, nil)
	h.extractor.On("Extract", mock.Anything, hits[1], "page two").Return(mediocreDraft, nil)

	h.evaluator.On("Evaluate", mock.Anything, goodDraft).
		Return(&domain.QualityAssessment{Rating: 4.2, Reasoning: "clear and complete"}, nil).Once()
	h.evaluator.On("Evaluate", mock.Anything, mediocreDraft).
		Return(&domain.QualityAssessment{Rating: 1.5, Reasoning: "instructions too vague"}, nil).Once()

	h.encoder.On("Encode", mock.Anything, mock.Anything).Return(vectorOfDim(testDim), nil)
	h.repo.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storedRecipe(), nil)

	stats, err := h.harvest.Run(context.Background(), "vegetable soup", usecase.HarvestOptions{
		MaxResults:  3,
		AutoApprove: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Searched)
	assert.Equal(t, 2, stats.Extracted)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 0, stats.Duplicates)

	require.Len(t, stats.Items, 3)
	assert.Equal(t, domain.ItemStored, stats.Items[0].Status)
	assert.Equal(t, domain.ItemRejected, stats.Items[1].Status)
	assert.Equal(t, domain.ItemExtractionFailed, stats.Items[2].Status)
}

func TestHarvest_SearchUnavailableAbortsWithZeroStats(t *testing.T) {
	h := newHarness()
	h.search.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	stats, err := h.harvest.Run(context.Background(), "anything", usecase.HarvestOptions{MaxResults: 5})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
	assert.Zero(t, stats.Searched)
	assert.Zero(t, stats.Stored)
	assert.Zero(t, stats.Failed)
	assert.Empty(t, stats.Items)
}

func TestHarvest_DuplicateIsSkipNotFailure(t *testing.T) {
	h := newHarness()

	hits := []domain.SearchHit{hit("seen-before")}
	h.search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(hits, nil)
	h.fetcher.On("Fetch", mock.Anything, mock.Anything).Return("page", nil)
	h.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(completeDraft(), nil)
	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).
		Return(&domain.QualityAssessment{Rating: 4.0, Reasoning: "good"}, nil)
	h.encoder.On("Encode", mock.Anything, mock.Anything).Return(vectorOfDim(testDim), nil)
	h.repo.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrDuplicateRecord)

	stats, err := h.harvest.Run(context.Background(), "soup", usecase.HarvestOptions{MaxResults: 1})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Zero(t, stats.Stored)
	assert.Zero(t, stats.Failed)
	require.Len(t, stats.Items, 1)
	assert.Equal(t, domain.ItemDuplicateSkipped, stats.Items[0].Status)
}

func TestHarvest_EmbeddingFailureDegradesButStores(t *testing.T) {
	h := newHarness()

	hits := []domain.SearchHit{hit("no-vector")}
	h.search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(hits, nil)
	h.fetcher.On("Fetch", mock.Anything, mock.Anything).Return("page", nil)
	h.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(completeDraft(), nil)
	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).
		Return(&domain.QualityAssessment{Rating: 4.0, Reasoning: "good"}, nil)
	h.encoder.On("Encode", mock.Anything, mock.Anything).
		Return(nil, errors.New("embedding service down"))

	h.repo.On("Save", mock.Anything, mock.Anything, mock.Anything,
		(*domain.EmbeddingResult)(nil), mock.Anything).Return(storedRecipe(), nil)

	stats, err := h.harvest.Run(context.Background(), "soup", usecase.HarvestOptions{MaxResults: 1})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)
	require.Len(t, stats.Items, 1)
	assert.Equal(t, domain.ItemEmbeddingDegraded, stats.Items[0].Status)

	// The embedding retry budget was fully spent before degrading.
	h.encoder.AssertNumberOfCalls(t, "Encode", 6)
	h.repo.AssertCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything,
		(*domain.EmbeddingResult)(nil), mock.Anything)
}

func TestHarvest_StoreFailureIsItemFatalOnly(t *testing.T) {
	h := newHarness()

	hits := []domain.SearchHit{hit("first"), hit("second")}
	h.search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(hits, nil)
	h.fetcher.On("Fetch", mock.Anything, mock.Anything).Return("page", nil)
	h.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(completeDraft(), nil)
	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).
		Return(&domain.QualityAssessment{Rating: 4.0, Reasoning: "good"}, nil)
	h.encoder.On("Encode", mock.Anything, mock.Anything).Return(vectorOfDim(testDim), nil)

	h.repo.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("storage unavailable")).Once()
	h.repo.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storedRecipe(), nil).Once()

	stats, err := h.harvest.Run(context.Background(), "soup", usecase.HarvestOptions{MaxResults: 2})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Items, 2)
	assert.Equal(t, domain.ItemStoreFailed, stats.Items[0].Status)
	assert.Equal(t, domain.ItemStored, stats.Items[1].Status)
}

func TestHarvest_ProvenanceRecordsModels(t *testing.T) {
	h := newHarness()

	hits := []domain.SearchHit{hit("tracked")}
	h.search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(hits, nil)
	h.fetcher.On("Fetch", mock.Anything, mock.Anything).Return("page", nil)
	h.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(completeDraft(), nil)
	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).
		Return(&domain.QualityAssessment{Rating: 4.0, Reasoning: "good"}, nil)
	h.encoder.On("Encode", mock.Anything, mock.Anything).Return(vectorOfDim(testDim), nil)

	var captured domain.Provenance
	h.repo.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(domain.Provenance)
		}).
		Return(storedRecipe(), nil)

	_, err := h.harvest.Run(context.Background(), "soup", usecase.HarvestOptions{MaxResults: 1})
	require.NoError(t, err)

	assert.Equal(t, hits[0].URL, captured.SourceURL)
	assert.Equal(t, "soup", captured.SearchQuery)
	assert.Equal(t, "mock-extractor", captured.ExtractionModelID)
	require.NotNil(t, captured.EmbeddingModelID)
	assert.Equal(t, "mock-encoder", *captured.EmbeddingModelID)
	assert.False(t, captured.DiscoveredAt.IsZero())
}

func TestHarvest_CancellationStopsNewItems(t *testing.T) {
	h := newHarness()

	hits := []domain.SearchHit{hit("a"), hit("b"), hit("c")}
	h.search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(hits, nil)

	ctx, cancel := context.WithCancel(context.Background())

	h.fetcher.On("Fetch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return("", errors.New("interrupted"))

	stats, err := h.harvest.Run(ctx, "soup", usecase.HarvestOptions{MaxResults: 3})

	require.NoError(t, err)
	// The in-flight item finishes (as a failure); no further items start.
	assert.Equal(t, 3, stats.Searched)
	assert.Len(t, stats.Items, 1)
}

func TestHarvest_MinConfidenceOverride(t *testing.T) {
	h := newHarness()

	hits := []domain.SearchHit{hit("confident-enough")}
	h.search.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(hits, nil)
	h.fetcher.On("Fetch", mock.Anything, mock.Anything).Return("page", nil)

	draft := completeDraft()
	draft.Confidence = 0.95
	h.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(draft, nil)
	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).
		Return(&domain.QualityAssessment{Rating: 4.0, Reasoning: "good"}, nil)

	stats, err := h.harvest.Run(context.Background(), "soup", usecase.HarvestOptions{
		MaxResults:    1,
		MinConfidence: 0.99,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Items, 1)
	assert.Equal(t, domain.ItemRejected, stats.Items[0].Status)
}
