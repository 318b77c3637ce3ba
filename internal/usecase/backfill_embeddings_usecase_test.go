package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recipe-harvester/internal/domain"
	"recipe-harvester/internal/usecase"
)

func degradedRecipe(name string) domain.StoredRecipe {
	return domain.StoredRecipe{
		ID: uuid.New(),
		ValidatedRecipe: domain.ValidatedRecipe{
			RecipeDraft: domain.RecipeDraft{
				Name:         name,
				Ingredients:  []string{"water"},
				Instructions: []string{"Boil."},
			},
			Accepted: true,
		},
	}
}

func newBackfillHarness() (*MockVectorEncoder, *MockRecipeRepository, usecase.BackfillEmbeddingsUsecase) {
	encoder := new(MockVectorEncoder)
	repo := new(MockRecipeRepository)
	embed := usecase.NewEmbedRecipeUsecase(
		encoder,
		usecase.DefaultEmbeddingRetryPolicy(),
		testDim,
		testLogger(),
		usecase.WithSleepFunc((&recordingSleeper{}).sleep),
	)
	return encoder, repo, usecase.NewBackfillEmbeddingsUsecase(repo, embed, testLogger())
}

func TestBackfill_AttachesGeneratedEmbeddings(t *testing.T) {
	encoder, repo, backfill := newBackfillHarness()

	batch := []domain.StoredRecipe{degradedRecipe("Soup"), degradedRecipe("Stew")}
	repo.On("ListMissingEmbedding", mock.Anything, 10).Return(batch, nil)
	encoder.On("Encode", mock.Anything, mock.Anything).Return(vectorOfDim(testDim), nil)
	repo.On("AttachEmbedding", mock.Anything, batch[0].ID, mock.Anything).Return(nil)
	repo.On("AttachEmbedding", mock.Anything, batch[1].ID, mock.Anything).Return(nil)

	stats, err := backfill.Execute(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 2, stats.Updated)
	assert.Equal(t, 0, stats.Skipped)
}

func TestBackfill_SkipsWhenEmbeddingStillFails(t *testing.T) {
	encoder, repo, backfill := newBackfillHarness()

	batch := []domain.StoredRecipe{degradedRecipe("Soup")}
	repo.On("ListMissingEmbedding", mock.Anything, 5).Return(batch, nil)
	encoder.On("Encode", mock.Anything, mock.Anything).Return(nil, errors.New("still down"))

	stats, err := backfill.Execute(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 1, stats.Skipped)
	repo.AssertNotCalled(t, "AttachEmbedding", mock.Anything, mock.Anything, mock.Anything)
}

func TestBackfill_AttachFailureCountsAsSkipped(t *testing.T) {
	encoder, repo, backfill := newBackfillHarness()

	batch := []domain.StoredRecipe{degradedRecipe("Soup")}
	repo.On("ListMissingEmbedding", mock.Anything, 5).Return(batch, nil)
	encoder.On("Encode", mock.Anything, mock.Anything).Return(vectorOfDim(testDim), nil)
	repo.On("AttachEmbedding", mock.Anything, batch[0].ID, mock.Anything).
		Return(errors.New("write failed"))

	stats, err := backfill.Execute(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Updated)
}

func TestBackfill_ListFailurePropagates(t *testing.T) {
	_, repo, backfill := newBackfillHarness()
	repo.On("ListMissingEmbedding", mock.Anything, 5).Return(nil, errors.New("db down"))

	_, err := backfill.Execute(context.Background(), 5)
	require.Error(t, err)
}
