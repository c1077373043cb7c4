package shopping

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"meal-planner/internal/pantry"
	"meal-planner/internal/planner"
)

// ErrMissingPlanContext is returned when an operation needs a plan id that is
// not known yet.
var ErrMissingPlanContext = errors.New("shopping list has no plan")

// PlanStore is the part of the plan repository the service reads.
type PlanStore interface {
	Get(ctx context.Context, id int64) (*planner.Plan, error)
	Next(ctx context.Context, householdID int64, today planner.Date) (*planner.Plan, error)
	Ingredients(ctx context.Context, planID int64) ([]planner.Ingredient, error)
}

// PantryStore provides the household's pantry.
type PantryStore interface {
	Get(ctx context.Context, householdID int64) (*pantry.Pantry, error)
}

// StatusStore keeps the checked pairs per plan.
type StatusStore interface {
	Status(ctx context.Context, planID int64) ([]Item, error)
	SaveStatus(ctx context.Context, planID int64, items []Item) error
}

// Service derives shopping lists and records which entries are checked.
type Service struct {
	plans  PlanStore
	pantry PantryStore
	status StatusStore
	logger *zap.Logger
	today  func() planner.Date
}

func NewService(plans PlanStore, pantries PantryStore, status StatusStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{plans: plans, pantry: pantries, status: status, logger: logger, today: planner.Today}
}

// Get returns the list of a plan owned by householdID.
func (s *Service) Get(ctx context.Context, householdID, planID int64) (*List, error) {
	plan, err := s.owned(ctx, householdID, planID)
	if err != nil {
		return nil, err
	}
	return s.derive(ctx, plan)
}

// Next returns the list of the household's next plan.
func (s *Service) Next(ctx context.Context, householdID int64) (*List, error) {
	plan, err := s.plans.Next(ctx, householdID, s.today())
	if err != nil {
		return nil, err
	}
	return s.derive(ctx, plan)
}

// Update stores the checked entries of list as the plan's status (whole
// replacement) and returns the list as derived afterwards.
func (s *Service) Update(ctx context.Context, householdID int64, list List) (*List, error) {
	if list.Plan.ID == 0 {
		return nil, ErrMissingPlanContext
	}
	plan, err := s.owned(ctx, householdID, list.Plan.ID)
	if err != nil {
		return nil, err
	}
	checked := CheckedItems(list.Ingredients)
	if err := s.status.SaveStatus(ctx, plan.ID, checked); err != nil {
		return nil, err
	}
	s.logger.Debug("shopping status saved", zap.Int64("plan_id", plan.ID), zap.Int("checked", len(checked)))
	return s.derive(ctx, plan)
}

func (s *Service) owned(ctx context.Context, householdID, planID int64) (*planner.Plan, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.HouseholdID != householdID {
		return nil, planner.ErrForbidden
	}
	return plan, nil
}

func (s *Service) derive(ctx context.Context, plan *planner.Plan) (*List, error) {
	ingredients, err := s.plans.Ingredients(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	checked, err := s.status.Status(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	p, err := s.pantry.Get(ctx, plan.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}
	return &List{Plan: *plan, Ingredients: Derive(ingredients, checked, p.Items)}, nil
}
