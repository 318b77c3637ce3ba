package harvesthttp

import (
	"time"

	"recipe-harvester/internal/domain"
)

type recipeResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepMinutes  *int     `json:"prep_minutes,omitempty"`
	CookMinutes  *int     `json:"cook_minutes,omitempty"`
	Servings     *int     `json:"servings,omitempty"`
	Images       []string `json:"images,omitempty"`
	Cuisine      *string  `json:"cuisine,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	QualityScore  float64 `json:"quality_score"`
	QualityReason string  `json:"quality_reason,omitempty"`
	Approved      bool    `json:"approved"`
	HasEmbedding  bool    `json:"has_embedding"`

	SourceURL    string    `json:"source_url"`
	SearchQuery  string    `json:"search_query"`
	DiscoveredAt time.Time `json:"discovered_at"`
	Confidence   float64   `json:"confidence"`

	Similarity *float32 `json:"similarity,omitempty"`
}

func toRecipeResponse(rec *domain.StoredRecipe, similarity *float32) *recipeResponse {
	return &recipeResponse{
		ID:            rec.ID.String(),
		Name:          rec.Name,
		Description:   rec.Description,
		Ingredients:   rec.Ingredients,
		Instructions:  rec.Instructions,
		PrepMinutes:   rec.PrepMinutes,
		CookMinutes:   rec.CookMinutes,
		Servings:      rec.Servings,
		Images:        rec.Images,
		Cuisine:       rec.Cuisine,
		Tags:          rec.Tags,
		QualityScore:  rec.QualityScore,
		QualityReason: rec.QualityReason,
		Approved:      rec.Approved,
		HasEmbedding:  rec.Embedding != nil,
		SourceURL:     rec.Provenance.SourceURL,
		SearchQuery:   rec.Provenance.SearchQuery,
		DiscoveredAt:  rec.Provenance.DiscoveredAt,
		Confidence:    rec.Provenance.Confidence,
		Similarity:    similarity,
	}
}
