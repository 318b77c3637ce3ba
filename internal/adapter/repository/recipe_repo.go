package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"recipe-harvester/internal/domain"
)

const uniqueViolationCode = "23505"

const recipeColumns = `
	id, name, description, ingredients, instructions,
	prep_minutes, cook_minutes, servings, images, cuisine, tags,
	confidence, quality_score, quality_reason, approved,
	embedding, embedding_source_text,
	source_url, source_domain, search_query, discovered_at,
	extraction_model_id, embedding_model_id, created_at`

type recipeRepository struct {
	pool *pgxpool.Pool
}

// NewRecipeRepository creates a new RecipeRepository backed by Postgres.
func NewRecipeRepository(pool *pgxpool.Pool) domain.RecipeRepository {
	return &recipeRepository{pool: pool}
}

type dbExecutor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func (r *recipeRepository) getExecutor(ctx context.Context) dbExecutor {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

// Save inserts the recipe, its provenance and the optional embedding
// as one row. Uniqueness is enforced by the store's indexes on the
// normalized URL and the (name key, source domain) pair, so the insert
// is a single atomic insert-or-conflict operation.
func (r *recipeRepository) Save(
	ctx context.Context,
	rec *domain.ValidatedRecipe,
	prov domain.Provenance,
	emb *domain.EmbeddingResult,
	approved bool,
) (*domain.StoredRecipe, error) {
	normalizedURL, err := domain.NormalizeSourceURL(prov.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}

	stored := &domain.StoredRecipe{
		ID:              uuid.New(),
		ValidatedRecipe: *rec,
		Provenance:      prov,
		Embedding:       emb,
		Approved:        approved,
		CreatedAt:       time.Now().UTC(),
	}

	var vecParam interface{}
	var sourceTextParam, embModelParam interface{}
	if emb != nil {
		v := pgvector.NewVector(emb.Vector)
		vecParam = v
		sourceTextParam = emb.SourceText
		embModelParam = emb.ModelID
	}

	query := `
		INSERT INTO recipes (
			id, name, description, ingredients, instructions,
			prep_minutes, cook_minutes, servings, images, cuisine, tags,
			confidence, quality_score, quality_reason, approved,
			embedding, embedding_source_text,
			source_url, normalized_url, name_key, source_domain,
			search_query, discovered_at, extraction_model_id, embedding_model_id,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15,
			$16, $17,
			$18, $19, $20, $21,
			$22, $23, $24, $25,
			$26
		)
	`
	_, err = r.getExecutor(ctx).Exec(ctx, query,
		stored.ID, rec.Name, rec.Description, rec.Ingredients, rec.Instructions,
		rec.PrepMinutes, rec.CookMinutes, rec.Servings, rec.Images, rec.Cuisine, rec.Tags,
		rec.Confidence, rec.QualityScore, rec.QualityReason, approved,
		vecParam, sourceTextParam,
		prov.SourceURL, normalizedURL, domain.NormalizeNameKey(rec.Name), domain.DomainOf(prov.SourceURL),
		prov.SearchQuery, prov.DiscoveredAt, prov.ExtractionModelID, embModelParam,
		stored.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, domain.ErrDuplicateRecord
		}
		return nil, fmt.Errorf("failed to insert recipe: %w", err)
	}

	return stored, nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoredRecipe, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipes WHERE id = $1`, recipeColumns)
	row := r.getExecutor(ctx).QueryRow(ctx, query, id)

	rec, err := scanStoredRecipe(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}
	return rec, nil
}

func (r *recipeRepository) List(ctx context.Context, filter domain.RecipeFilter) ([]domain.StoredRecipe, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipes WHERE approved`, recipeColumns)
	args := []interface{}{}

	if filter.Cuisine != "" {
		args = append(args, filter.Cuisine)
		query += fmt.Sprintf(" AND cuisine = $%d", len(args))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += fmt.Sprintf(" AND $%d = ANY(tags)", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.getExecutor(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	return collectRecipes(rows)
}

// SearchSimilar orders by cosine distance and converts it to a
// similarity in [0,1]. Rows without an embedding never match.
func (r *recipeRepository) SearchSimilar(
	ctx context.Context,
	vector []float32,
	limit int,
	minSimilarity float32,
) ([]domain.SimilarRecipe, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1) AS similarity
		FROM recipes
		WHERE approved
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, recipeColumns)

	rows, err := r.getExecutor(ctx).Query(ctx, query, pgvector.NewVector(vector), minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run similarity query: %w", err)
	}
	defer rows.Close()

	var results []domain.SimilarRecipe
	for rows.Next() {
		rec, similarity, err := scanSimilarRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan similar recipe: %w", err)
		}
		results = append(results, domain.SimilarRecipe{Recipe: *rec, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

func (r *recipeRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]domain.StoredRecipe, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT %s FROM recipes
		WHERE embedding IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, recipeColumns)

	rows, err := r.getExecutor(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes missing embedding: %w", err)
	}
	defer rows.Close()

	return collectRecipes(rows)
}

func (r *recipeRepository) AttachEmbedding(ctx context.Context, id uuid.UUID, emb *domain.EmbeddingResult) error {
	query := `
		UPDATE recipes
		SET embedding = $1, embedding_source_text = $2, embedding_model_id = $3
		WHERE id = $4 AND embedding IS NULL
	`
	tag, err := r.getExecutor(ctx).Exec(ctx, query,
		pgvector.NewVector(emb.Vector), emb.SourceText, emb.ModelID, id)
	if err != nil {
		return fmt.Errorf("failed to attach embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

func (r *recipeRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE recipes SET approved = $1 WHERE id = $2`, approved, id)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

func (r *recipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.getExecutor(ctx).Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

func collectRecipes(rows pgx.Rows) ([]domain.StoredRecipe, error) {
	var recipes []domain.StoredRecipe
	for rows.Next() {
		rec, err := scanStoredRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return recipes, nil
}

func scanStoredRecipe(row pgx.Row) (*domain.StoredRecipe, error) {
	rec, targets := recipeScanTargets()
	if err := row.Scan(targets.dests...); err != nil {
		return nil, err
	}
	targets.resolve(rec)
	return rec, nil
}

func scanSimilarRecipe(row pgx.Row) (*domain.StoredRecipe, float32, error) {
	rec, targets := recipeScanTargets()
	var similarity float32
	dests := append(targets.dests, &similarity)
	if err := row.Scan(dests...); err != nil {
		return nil, 0, err
	}
	targets.resolve(rec)
	return rec, similarity, nil
}

// scanTargets holds the destinations for recipeColumns plus the
// nullable columns that need post-scan assembly.
type scanTargets struct {
	dests        []interface{}
	embedding    *pgvector.Vector
	sourceText   pgtype.Text
	sourceDomain string
}

func recipeScanTargets() (*domain.StoredRecipe, *scanTargets) {
	rec := &domain.StoredRecipe{}
	t := &scanTargets{}
	t.dests = []interface{}{
		&rec.ID,
		&rec.Name,
		&rec.Description,
		&rec.Ingredients,
		&rec.Instructions,
		&rec.PrepMinutes,
		&rec.CookMinutes,
		&rec.Servings,
		&rec.Images,
		&rec.Cuisine,
		&rec.Tags,
		&rec.Confidence,
		&rec.QualityScore,
		&rec.QualityReason,
		&rec.Approved,
		&t.embedding,
		&t.sourceText,
		&rec.Provenance.SourceURL,
		&t.sourceDomain,
		&rec.Provenance.SearchQuery,
		&rec.Provenance.DiscoveredAt,
		&rec.Provenance.ExtractionModelID,
		&rec.Provenance.EmbeddingModelID,
		&rec.CreatedAt,
	}
	return rec, t
}

// resolve assembles the EmbeddingResult once all nullable columns are
// scanned; a row without a vector yields a nil Embedding.
func (t *scanTargets) resolve(rec *domain.StoredRecipe) {
	// The confidence column serves both the draft field and the
	// provenance record.
	rec.Provenance.Confidence = rec.Confidence
	// Only accepted recipes are ever inserted.
	rec.Accepted = true

	if t.embedding == nil {
		return
	}
	emb := &domain.EmbeddingResult{Vector: t.embedding.Slice()}
	if t.sourceText.Valid {
		emb.SourceText = t.sourceText.String
	}
	if rec.Provenance.EmbeddingModelID != nil {
		emb.ModelID = *rec.Provenance.EmbeddingModelID
	}
	rec.Embedding = emb
}
