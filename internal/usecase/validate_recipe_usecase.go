package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"recipe-harvester/internal/domain"
)

const (
	minNameLength        = 3
	minIngredientCount   = 3
	minInstructionCount  = 2
	minDescriptionLength = 10

	// neutralQualityScore is assumed when the evaluator is unreachable
	// so a flaky secondary dependency cannot stall the pipeline.
	neutralQualityScore = 3.0
)

// ValidationConfig holds the acceptance thresholds. Both must hold for
// a draft to be accepted; they are product decisions, so they live in
// configuration rather than code.
type ValidationConfig struct {
	MinQualityScore float64
	MinConfidence   float64
}

// DefaultValidationConfig returns the canonical thresholds.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinQualityScore: 2.0,
		MinConfidence:   0.7,
	}
}

// ValidateRecipeUsecase gates drafts: a deterministic completeness
// check first, then an AI quality score. Rejection is an expected
// outcome, not an error; Execute itself never fails.
type ValidateRecipeUsecase interface {
	Execute(ctx context.Context, draft *domain.RecipeDraft) *domain.ValidatedRecipe
}

type validateRecipeUsecase struct {
	evaluator domain.QualityEvaluator
	cfg       ValidationConfig
	logger    *slog.Logger
}

func NewValidateRecipeUsecase(
	evaluator domain.QualityEvaluator,
	cfg ValidationConfig,
	logger *slog.Logger,
) ValidateRecipeUsecase {
	return &validateRecipeUsecase{
		evaluator: evaluator,
		cfg:       cfg,
		logger:    logger,
	}
}

func (u *validateRecipeUsecase) Execute(ctx context.Context, draft *domain.RecipeDraft) *domain.ValidatedRecipe {
	result := &domain.ValidatedRecipe{RecipeDraft: *draft}

	// Deterministic gate runs first; a failing draft never reaches the
	// evaluator (cheap short-circuit).
	reasons := deterministicGate(draft)
	if len(reasons) > 0 {
		result.Accepted = false
		result.RejectionReasons = reasons
		u.logger.Info("validate_rejected_deterministic",
			slog.String("name", draft.Name),
			slog.Any("reasons", reasons),
		)
		return result
	}

	assessment, err := u.evaluator.Evaluate(ctx, draft)
	if err != nil {
		u.logger.Warn("validate_evaluator_unavailable",
			slog.String("name", draft.Name),
			slog.String("error", truncateForLog(err.Error())),
		)
		assessment = &domain.QualityAssessment{
			Rating:    neutralQualityScore,
			Reasoning: "evaluator unavailable",
		}
	}

	result.QualityScore = assessment.Rating
	result.QualityReason = assessment.Reasoning

	if result.QualityScore < u.cfg.MinQualityScore {
		result.RejectionReasons = append(result.RejectionReasons,
			fmt.Sprintf("quality score %.1f below threshold %.1f", result.QualityScore, u.cfg.MinQualityScore))
	}
	if draft.Confidence < u.cfg.MinConfidence {
		result.RejectionReasons = append(result.RejectionReasons,
			fmt.Sprintf("extraction confidence %.2f below threshold %.2f", draft.Confidence, u.cfg.MinConfidence))
	}
	result.Accepted = len(result.RejectionReasons) == 0

	u.logger.Info("validate_completed",
		slog.String("name", draft.Name),
		slog.Float64("quality_score", result.QualityScore),
		slog.Float64("confidence", draft.Confidence),
		slog.Bool("accepted", result.Accepted),
	)

	return result
}

func deterministicGate(draft *domain.RecipeDraft) []string {
	var reasons []string
	if len(draft.Name) < minNameLength {
		reasons = append(reasons, fmt.Sprintf("name shorter than %d characters", minNameLength))
	}
	if len(draft.Ingredients) < minIngredientCount {
		reasons = append(reasons, fmt.Sprintf("fewer than %d ingredients", minIngredientCount))
	}
	if len(draft.Instructions) < minInstructionCount {
		reasons = append(reasons, fmt.Sprintf("fewer than %d instruction steps", minInstructionCount))
	}
	if draft.Description != nil && len(*draft.Description) < minDescriptionLength {
		reasons = append(reasons, fmt.Sprintf("description shorter than %d characters", minDescriptionLength))
	}
	return reasons
}
