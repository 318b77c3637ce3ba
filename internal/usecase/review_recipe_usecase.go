package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"recipe-harvester/internal/domain"
)

// ReviewRecipeUsecase settles recipes that were harvested with
// autoApprove off: approving publishes the recipe, rejecting removes
// it. The read-then-write runs in one transaction so two reviewers
// cannot settle the same recipe differently.
type ReviewRecipeUsecase interface {
	Approve(ctx context.Context, id uuid.UUID) (*domain.StoredRecipe, error)
	Reject(ctx context.Context, id uuid.UUID) error
}

type reviewRecipeUsecase struct {
	repo   domain.RecipeRepository
	txm    domain.TransactionManager
	logger *slog.Logger
}

func NewReviewRecipeUsecase(
	repo domain.RecipeRepository,
	txm domain.TransactionManager,
	logger *slog.Logger,
) ReviewRecipeUsecase {
	return &reviewRecipeUsecase{
		repo:   repo,
		txm:    txm,
		logger: logger,
	}
}

func (u *reviewRecipeUsecase) Approve(ctx context.Context, id uuid.UUID) (*domain.StoredRecipe, error) {
	var rec *domain.StoredRecipe

	err := u.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = u.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rec.Approved {
			return nil
		}
		if err := u.repo.SetApproved(ctx, id, true); err != nil {
			return fmt.Errorf("failed to approve recipe: %w", err)
		}
		rec.Approved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("recipe_approved",
		slog.String("recipe_id", id.String()),
		slog.String("name", rec.Name),
	)
	return rec, nil
}

func (u *reviewRecipeUsecase) Reject(ctx context.Context, id uuid.UUID) error {
	err := u.txm.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := u.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rec.Approved {
			return fmt.Errorf("%w: recipe is already published", domain.ErrBadRequest)
		}
		return u.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	u.logger.Info("recipe_rejected", slog.String("recipe_id", id.String()))
	return nil
}
