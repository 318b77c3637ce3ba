// Package harvesthttp exposes the pipeline trigger and the recipe
// read path over HTTP.
package harvesthttp

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"recipe-harvester/internal/domain"
	"recipe-harvester/internal/usecase"
)

type Handler struct {
	harvest  usecase.HarvestUsecase
	backfill usecase.BackfillEmbeddingsUsecase
	embed    usecase.EmbedRecipeUsecase
	review   usecase.ReviewRecipeUsecase
	repo     domain.RecipeRepository
}

func NewHandler(
	harvest usecase.HarvestUsecase,
	backfill usecase.BackfillEmbeddingsUsecase,
	embed usecase.EmbedRecipeUsecase,
	review usecase.ReviewRecipeUsecase,
	repo domain.RecipeRepository,
) *Handler {
	return &Handler{
		harvest:  harvest,
		backfill: backfill,
		embed:    embed,
		review:   review,
		repo:     repo,
	}
}

// Register attaches all routes to the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/v1/health", h.Health)
	e.POST("/v1/harvest", h.RunHarvest)
	e.POST("/v1/harvest/backfill", h.RunBackfill)
	e.GET("/v1/recipes/:id", h.GetRecipe)
	e.GET("/v1/recipes", h.ListRecipes)
	e.POST("/v1/recipes/similar", h.SimilarRecipes)
	e.POST("/v1/recipes/:id/approve", h.ApproveRecipe)
	e.POST("/v1/recipes/:id/reject", h.RejectRecipe)
}

func (h *Handler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type harvestRequest struct {
	Query           string   `json:"query"`
	MaxResults      int      `json:"max_results"`
	DomainAllowList []string `json:"domain_allow_list"`
	AutoApprove     *bool    `json:"auto_approve"`
	MinConfidence   float64  `json:"min_confidence"`
}

type itemOutcomeResponse struct {
	URL    string `json:"url"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type harvestResponse struct {
	Query      string                `json:"query"`
	Searched   int                   `json:"searched"`
	Extracted  int                   `json:"extracted"`
	Approved   int                   `json:"approved"`
	Stored     int                   `json:"stored"`
	Duplicates int                   `json:"duplicates"`
	Failed     int                   `json:"failed"`
	Items      []itemOutcomeResponse `json:"items"`
}

func (h *Handler) RunHarvest(ctx echo.Context) error {
	var req harvestRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	autoApprove := true
	if req.AutoApprove != nil {
		autoApprove = *req.AutoApprove
	}

	stats, err := h.harvest.Run(ctx.Request().Context(), req.Query, usecase.HarvestOptions{
		MaxResults:      req.MaxResults,
		DomainAllowList: req.DomainAllowList,
		AutoApprove:     autoApprove,
		MinConfidence:   req.MinConfidence,
	})
	if errors.Is(err, domain.ErrSearchUnavailable) {
		return ctx.JSON(http.StatusBadGateway, map[string]string{"error": "search provider unavailable"})
	}
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, toHarvestResponse(stats))
}

type backfillRequest struct {
	BatchSize int `json:"batch_size"`
}

func (h *Handler) RunBackfill(ctx echo.Context) error {
	var req backfillRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.BatchSize <= 0 {
		req.BatchSize = 100
	}

	stats, err := h.backfill.Execute(ctx.Request().Context(), req.BatchSize)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, map[string]int{
		"scanned": stats.Scanned,
		"updated": stats.Updated,
		"skipped": stats.Skipped,
	})
}

func (h *Handler) GetRecipe(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid recipe id"})
	}

	rec, err := h.repo.GetByID(ctx.Request().Context(), id)
	if errors.Is(err, domain.ErrRecipeNotFound) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "recipe not found"})
	}
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, toRecipeResponse(rec, nil))
}

func (h *Handler) ListRecipes(ctx echo.Context) error {
	filter := domain.RecipeFilter{
		Cuisine: ctx.QueryParam("cuisine"),
		Tag:     ctx.QueryParam("tag"),
	}
	if limit := ctx.QueryParam("limit"); limit != "" {
		if err := echo.QueryParamsBinder(ctx).Int("limit", &filter.Limit).BindError(); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
	}

	recipes, err := h.repo.List(ctx.Request().Context(), filter)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	out := make([]recipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, *toRecipeResponse(&recipes[i], nil))
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"recipes": out})
}

type similarRequest struct {
	Query         string  `json:"query"`
	Limit         int     `json:"limit"`
	MinSimilarity float32 `json:"min_similarity"`
}

// SimilarRecipes embeds the query text and runs the nearest-neighbor
// search over recipes that have a vector.
func (h *Handler) SimilarRecipes(ctx echo.Context) error {
	var req similarRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	embedding := h.embed.Execute(ctx.Request().Context(), req.Query)
	if embedding == nil {
		return ctx.JSON(http.StatusBadGateway, map[string]string{"error": "embedding service unavailable"})
	}

	results, err := h.repo.SearchSimilar(ctx.Request().Context(), embedding.Vector, req.Limit, req.MinSimilarity)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	out := make([]recipeResponse, 0, len(results))
	for i := range results {
		similarity := results[i].Similarity
		out = append(out, *toRecipeResponse(&results[i].Recipe, &similarity))
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"recipes": out})
}

// ApproveRecipe publishes a recipe that was harvested pending review.
func (h *Handler) ApproveRecipe(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid recipe id"})
	}

	rec, err := h.review.Approve(ctx.Request().Context(), id)
	if errors.Is(err, domain.ErrRecipeNotFound) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "recipe not found"})
	}
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, toRecipeResponse(rec, nil))
}

// RejectRecipe removes a pending recipe. Published recipes are refused.
func (h *Handler) RejectRecipe(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid recipe id"})
	}

	err = h.review.Reject(ctx.Request().Context(), id)
	if errors.Is(err, domain.ErrRecipeNotFound) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "recipe not found"})
	}
	if errors.Is(err, domain.ErrBadRequest) {
		return ctx.JSON(http.StatusConflict, map[string]string{"error": "recipe is already published"})
	}
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.NoContent(http.StatusNoContent)
}

func toHarvestResponse(stats *domain.RunStats) *harvestResponse {
	items := make([]itemOutcomeResponse, 0, len(stats.Items))
	for _, it := range stats.Items {
		items = append(items, itemOutcomeResponse{
			URL:    it.URL,
			Status: string(it.Status),
			Reason: it.Reason,
		})
	}
	return &harvestResponse{
		Query:      stats.Query,
		Searched:   stats.Searched,
		Extracted:  stats.Extracted,
		Approved:   stats.Approved,
		Stored:     stats.Stored,
		Duplicates: stats.Duplicates,
		Failed:     stats.Failed,
		Items:      items,
	}
}
