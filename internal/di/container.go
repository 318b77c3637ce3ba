package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"recipe-harvester/internal/adapter/fetcher"
	"recipe-harvester/internal/adapter/ollama"
	"recipe-harvester/internal/adapter/repository"
	"recipe-harvester/internal/adapter/websearch"
	"recipe-harvester/internal/domain"
	"recipe-harvester/internal/infra/config"
	"recipe-harvester/internal/infra/httpclient"
	"recipe-harvester/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Repo domain.RecipeRepository

	HarvestUsecase  usecase.HarvestUsecase
	BackfillUsecase usecase.BackfillEmbeddingsUsecase
	EmbedUsecase    usecase.EmbedRecipeUsecase
	ReviewUsecase   usecase.ReviewRecipeUsecase
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	// Repositories
	repo := repository.NewRecipeRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// Shared HTTP clients with connection pooling
	searchHTTP := httpclient.NewPooledClient(time.Duration(cfg.SearchTimeout) * time.Second)
	fetchHTTP := httpclient.NewPooledClient(time.Duration(cfg.FetchTimeout) * time.Second)
	extractorHTTP := httpclient.NewPooledClient(time.Duration(cfg.ExtractionTimeout) * time.Second)
	evaluatorHTTP := httpclient.NewPooledClient(time.Duration(cfg.EvaluatorTimeout) * time.Second)
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.EmbeddingTimeout) * time.Second)

	// External clients
	searchProvider := websearch.NewClient(cfg.SearchURL, searchHTTP, log)
	pageFetcher := fetcher.NewPageFetcher(fetchHTTP)
	extractor := ollama.NewExtractor(cfg.OllamaURL, cfg.ExtractionModel, extractorHTTP)
	evaluator := ollama.NewEvaluator(cfg.OllamaURL, cfg.EvaluatorModel, evaluatorHTTP)
	embedder := ollama.NewEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, embedderHTTP)

	// Usecases
	extractUsecase := usecase.NewExtractRecipeUsecase(pageFetcher, extractor, log)

	valConfig := usecase.ValidationConfig{
		MinQualityScore: cfg.MinQualityScore,
		MinConfidence:   cfg.MinConfidence,
	}
	validateUsecase := usecase.NewValidateRecipeUsecase(evaluator, valConfig, log)

	retryPolicy := usecase.DefaultEmbeddingRetryPolicy()
	retryPolicy.MaxAttempts = cfg.EmbedMaxAttempts
	retryPolicy.BaseDelay = time.Duration(cfg.EmbedBaseDelaySecs) * time.Second
	embedUsecase := usecase.NewEmbedRecipeUsecase(embedder, retryPolicy, cfg.EmbeddingDim, log)

	harvestUsecase := usecase.NewHarvestUsecase(
		searchProvider,
		extractUsecase,
		validateUsecase,
		embedUsecase,
		repo,
		valConfig,
		evaluator,
		usecase.HarvestConfig{
			PoliteDelay: time.Duration(cfg.PoliteDelaySeconds) * time.Second,
		},
		log,
	)

	backfillUsecase := usecase.NewBackfillEmbeddingsUsecase(repo, embedUsecase, log)
	reviewUsecase := usecase.NewReviewRecipeUsecase(repo, txManager, log)

	return &ApplicationComponents{
		Repo:            repo,
		HarvestUsecase:  harvestUsecase,
		BackfillUsecase: backfillUsecase,
		EmbedUsecase:    embedUsecase,
		ReviewUsecase:   reviewUsecase,
	}
}
