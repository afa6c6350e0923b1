package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	menuService = "menu-service"

	useCaseList         = "menu.list"
	useCaseCreate       = "menu.create"
	useCaseUpdate       = "menu.update"
	useCaseDelete       = "menu.delete"
	useCaseAvailability = "menu.availability"
)

type MealInput struct {
	Name        string
	Ingredients []meal.Ingredient
	Category    string
	Description *string
}

type Availability struct {
	MealID           string
	PossiblePortions int
}

type Service struct {
	store       store.Store
	idGenerator application.IDGenerator
	obs         application.Instrumentation
}

func NewService(st store.Store, idGen application.IDGenerator, tel observability.Observability) *Service {
	return &Service{
		store:       st,
		idGenerator: idGen,
		obs:         application.NewInstrumentation(tel, menuService),
	}
}

func (s *Service) List(ctx context.Context) (_ []*meal.Meal, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseList, "ListMeals")
	defer func() { done(err) }()

	meals, err := s.store.Meals().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("menu: list: %w", err)
	}
	return meals, nil
}

func (s *Service) Create(ctx context.Context, in MealInput) (_ *meal.Meal, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseCreate, "CreateMeal",
		attribute.String("meal.name", in.Name),
	)
	defer func() { done(err) }()

	m, err := meal.New(s.idGenerator.NewID(), in.Name, in.Category, in.Description, in.Ingredients)
	if err != nil {
		return nil, err
	}
	if err := s.store.Meals().Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("menu: create: %w", err)
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, id string, in MealInput) (_ *meal.Meal, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseUpdate, "UpdateMeal",
		attribute.String("meal.id", id),
	)
	defer func() { done(err) }()

	if strings.TrimSpace(id) == "" {
		return nil, application.NewValidation("id is required")
	}
	m, err := meal.New(id, in.Name, in.Category, in.Description, in.Ingredients)
	if err != nil {
		return nil, err
	}
	if err := s.store.Meals().Update(ctx, m); err != nil {
		return nil, fmt.Errorf("menu: update: %w", err)
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseDelete, "DeleteMeal",
		attribute.String("meal.id", id),
	)
	defer func() { done(err) }()

	if strings.TrimSpace(id) == "" {
		return application.NewValidation("id is required")
	}
	if err := s.store.Meals().Delete(ctx, id); err != nil {
		return fmt.Errorf("menu: delete: %w", err)
	}
	return nil
}

// Availability reports how many portions of the meal current stock allows.
func (s *Service) Availability(ctx context.Context, id string) (_ Availability, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseAvailability, "MealAvailability",
		attribute.String("meal.id", id),
	)
	defer func() { done(err) }()

	m, err := s.store.Meals().Get(ctx, id)
	if err != nil {
		return Availability{}, fmt.Errorf("menu: availability: %w", err)
	}
	items, err := s.store.Ingredients().List(ctx)
	if err != nil {
		return Availability{}, fmt.Errorf("menu: availability: %w", err)
	}
	return Availability{MealID: m.ID, PossiblePortions: m.PossiblePortions(StockLevels(items))}, nil
}

// StockLevels indexes quantities by ingredient id.
func StockLevels(items []*ingredient.Ingredient) map[string]float64 {
	out := make(map[string]float64, len(items))
	for _, i := range items {
		out[i.ID] = i.Quantity
	}
	return out
}
