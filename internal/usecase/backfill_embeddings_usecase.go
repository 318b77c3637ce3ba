package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"recipe-harvester/internal/domain"
)

// BackfillStats summarizes one backfill pass.
type BackfillStats struct {
	Scanned int
	Updated int
	Skipped int
}

// BackfillEmbeddingsUsecase attaches vectors to recipes that were
// stored degraded (embedding service down at harvest time). Recipes
// whose embedding still cannot be generated are left for a later pass.
type BackfillEmbeddingsUsecase interface {
	Execute(ctx context.Context, batchSize int) (*BackfillStats, error)
}

type backfillEmbeddingsUsecase struct {
	repo   domain.RecipeRepository
	embed  EmbedRecipeUsecase
	logger *slog.Logger
}

func NewBackfillEmbeddingsUsecase(
	repo domain.RecipeRepository,
	embed EmbedRecipeUsecase,
	logger *slog.Logger,
) BackfillEmbeddingsUsecase {
	return &backfillEmbeddingsUsecase{
		repo:   repo,
		embed:  embed,
		logger: logger,
	}
}

func (u *backfillEmbeddingsUsecase) Execute(ctx context.Context, batchSize int) (*BackfillStats, error) {
	stats := &BackfillStats{}

	recipes, err := u.repo.ListMissingEmbedding(ctx, batchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to list recipes missing embedding: %w", err)
	}

	for _, rec := range recipes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Scanned++

		result := u.embed.Execute(ctx, domain.CanonicalText(&rec.RecipeDraft))
		if result == nil {
			stats.Skipped++
			continue
		}

		if err := u.repo.AttachEmbedding(ctx, rec.ID, result); err != nil {
			u.logger.Warn("backfill_attach_failed",
				slog.String("recipe_id", rec.ID.String()),
				slog.String("error", truncateForLog(err.Error())),
			)
			stats.Skipped++
			continue
		}
		stats.Updated++
	}

	u.logger.Info("backfill_completed",
		slog.Int("scanned", stats.Scanned),
		slog.Int("updated", stats.Updated),
		slog.Int("skipped", stats.Skipped),
	)

	return stats, nil
}
