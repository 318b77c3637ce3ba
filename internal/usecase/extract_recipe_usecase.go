package usecase

import (
	"context"
	"log/slog"
	"time"

	"recipe-harvester/internal/domain"
)

// ExtractRecipeUsecase turns one search hit into a recipe draft:
// exactly one page fetch and one model call, no retries. Every failure
// is surfaced as *domain.ExtractionError.
type ExtractRecipeUsecase interface {
	Execute(ctx context.Context, hit domain.SearchHit) (*domain.RecipeDraft, error)
	ModelID() string
}

type extractRecipeUsecase struct {
	fetcher   domain.PageFetcher
	extractor domain.DraftExtractor
	logger    *slog.Logger
}

func NewExtractRecipeUsecase(
	fetcher domain.PageFetcher,
	extractor domain.DraftExtractor,
	logger *slog.Logger,
) ExtractRecipeUsecase {
	return &extractRecipeUsecase{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
	}
}

func (u *extractRecipeUsecase) ModelID() string {
	return u.extractor.ModelID()
}

func (u *extractRecipeUsecase) Execute(ctx context.Context, hit domain.SearchHit) (*domain.RecipeDraft, error) {
	start := time.Now()

	pageText, err := u.fetcher.Fetch(ctx, hit.URL)
	if err != nil {
		u.logger.Warn("extract_fetch_failed",
			slog.String("url", hit.URL),
			slog.String("error", truncateForLog(err.Error())),
		)
		return nil, &domain.ExtractionError{Reason: "page fetch failed", Err: err}
	}

	draft, err := u.extractor.Extract(ctx, hit, pageText)
	if err != nil {
		u.logger.Warn("extract_model_failed",
			slog.String("url", hit.URL),
			slog.String("error", truncateForLog(err.Error())),
		)
		if _, ok := err.(*domain.ExtractionError); ok {
			return nil, err
		}
		return nil, &domain.ExtractionError{Reason: "model call failed", Err: err}
	}

	u.logger.Info("extract_completed",
		slog.String("url", hit.URL),
		slog.String("name", draft.Name),
		slog.Float64("confidence", draft.Confidence),
		slog.Bool("structurally_complete", draft.IsStructurallyComplete()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return draft, nil
}

// truncateForLog bounds upstream error text so raw payloads never leak
// into logs wholesale.
func truncateForLog(s string) string {
	const maxLen = 200
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
