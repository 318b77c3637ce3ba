package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"recipe-harvester/internal/domain"
)

// HarvestOptions tune a single pipeline run.
type HarvestOptions struct {
	MaxResults      int
	DomainAllowList []string
	// AutoApprove stores accepted recipes as published; when false
	// they are stored pending human review.
	AutoApprove bool
	// MinConfidence overrides the configured confidence threshold for
	// this run when > 0.
	MinConfidence float64
}

// HarvestConfig holds orchestrator-level settings.
type HarvestConfig struct {
	// PoliteDelay is the pause between items, protecting the
	// extraction and embedding dependencies from burst load.
	PoliteDelay time.Duration
}

// HarvestUsecase runs the acquisition pipeline: one search, then
// extract, validate, embed and store per candidate, strictly
// sequentially. One item's failure never affects another's outcome,
// and only search unavailability aborts the run.
type HarvestUsecase interface {
	Run(ctx context.Context, query string, opts HarvestOptions) (*domain.RunStats, error)
}

type harvestUsecase struct {
	search    domain.SearchProvider
	extract   ExtractRecipeUsecase
	validate  ValidateRecipeUsecase
	embed     EmbedRecipeUsecase
	repo      domain.RecipeRepository
	valConfig ValidationConfig
	cfg       HarvestConfig
	evaluator domain.QualityEvaluator
	logger    *slog.Logger
}

func NewHarvestUsecase(
	search domain.SearchProvider,
	extract ExtractRecipeUsecase,
	validate ValidateRecipeUsecase,
	embed EmbedRecipeUsecase,
	repo domain.RecipeRepository,
	valConfig ValidationConfig,
	evaluator domain.QualityEvaluator,
	cfg HarvestConfig,
	logger *slog.Logger,
) HarvestUsecase {
	return &harvestUsecase{
		search:    search,
		extract:   extract,
		validate:  validate,
		embed:     embed,
		repo:      repo,
		valConfig: valConfig,
		evaluator: evaluator,
		cfg:       cfg,
		logger:    logger,
	}
}

func (u *harvestUsecase) Run(ctx context.Context, query string, opts HarvestOptions) (*domain.RunStats, error) {
	start := time.Now()
	stats := &domain.RunStats{Query: query}

	u.logger.Info("harvest_started",
		slog.String("query", query),
		slog.Int("max_results", opts.MaxResults),
	)

	hits, err := u.search.Search(ctx, query, domain.SearchOptions{
		MaxResults:      opts.MaxResults,
		DomainAllowList: opts.DomainAllowList,
	})
	if err != nil {
		u.logger.Error("harvest_search_unavailable",
			slog.String("query", query),
			slog.String("error", truncateForLog(err.Error())),
		)
		return stats, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	stats.Searched = len(hits)

	validate := u.validate
	if opts.MinConfidence > 0 {
		overridden := u.valConfig
		overridden.MinConfidence = opts.MinConfidence
		validate = NewValidateRecipeUsecase(u.evaluator, overridden, u.logger)
	}

	// One token per polite-delay interval; the initial burst lets the
	// first item start immediately.
	limiter := rate.NewLimiter(rate.Every(u.cfg.PoliteDelay), 1)

	for _, hit := range hits {
		if err := limiter.Wait(ctx); err != nil {
			u.logger.Warn("harvest_cancelled",
				slog.String("query", query),
				slog.Int("processed", len(stats.Items)),
			)
			break
		}

		outcome := u.processItem(ctx, query, hit, validate, opts.AutoApprove)
		stats.Record(outcome)

		u.logger.Info("harvest_item_finished",
			slog.String("url", hit.URL),
			slog.String("status", string(outcome.Status)),
			slog.String("reason", outcome.Reason),
		)
	}

	u.logger.Info("harvest_completed",
		slog.String("query", query),
		slog.Int("searched", stats.Searched),
		slog.Int("extracted", stats.Extracted),
		slog.Int("approved", stats.Approved),
		slog.Int("stored", stats.Stored),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("failed", stats.Failed),
		slog.Duration("elapsed", time.Since(start)),
	)

	return stats, nil
}

// processItem runs the per-candidate stages. It never returns an
// error: every failure mode collapses into the item's outcome.
func (u *harvestUsecase) processItem(
	ctx context.Context,
	query string,
	hit domain.SearchHit,
	validate ValidateRecipeUsecase,
	autoApprove bool,
) domain.ItemOutcome {
	draft, err := u.extract.Execute(ctx, hit)
	if err != nil {
		var extErr *domain.ExtractionError
		reason := err.Error()
		if errors.As(err, &extErr) {
			reason = extErr.Reason
		}
		return domain.ItemOutcome{URL: hit.URL, Status: domain.ItemExtractionFailed, Reason: reason}
	}

	validated := validate.Execute(ctx, draft)
	if !validated.Accepted {
		return domain.ItemOutcome{
			URL:    hit.URL,
			Status: domain.ItemRejected,
			Reason: joinReasons(validated.RejectionReasons),
		}
	}

	embedding := u.embed.Execute(ctx, domain.CanonicalText(draft))

	prov := domain.Provenance{
		SourceURL:         hit.URL,
		SearchQuery:       query,
		DiscoveredAt:      time.Now().UTC(),
		Confidence:        draft.Confidence,
		ExtractionModelID: u.extract.ModelID(),
	}
	if embedding != nil {
		modelID := embedding.ModelID
		prov.EmbeddingModelID = &modelID
	}

	_, err = u.repo.Save(ctx, validated, prov, embedding, autoApprove)
	if errors.Is(err, domain.ErrDuplicateRecord) {
		return domain.ItemOutcome{URL: hit.URL, Status: domain.ItemDuplicateSkipped, Reason: "already stored"}
	}
	if err != nil {
		return domain.ItemOutcome{
			URL:    hit.URL,
			Status: domain.ItemStoreFailed,
			Reason: truncateForLog(err.Error()),
		}
	}

	if embedding == nil {
		return domain.ItemOutcome{URL: hit.URL, Status: domain.ItemEmbeddingDegraded, Reason: "stored without embedding"}
	}
	return domain.ItemOutcome{URL: hit.URL, Status: domain.ItemStored}
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "rejected"
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}
