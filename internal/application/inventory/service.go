package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService = "inventory-service"

	useCaseList     = "inventory.list"
	useCaseLowStock = "inventory.low_stock"
	useCaseCreate   = "inventory.create"
	useCaseUpdate   = "inventory.update"
	useCaseDelete   = "inventory.delete"
)

// SettingsReader returns the effective kitchen settings.
type SettingsReader interface {
	Current(ctx context.Context) (settings.Settings, error)
}

// IngredientInput is the client-supplied part of an ingredient.
type IngredientInput struct {
	Name             string
	Quantity         float64
	Unit             string
	MinimumQuantity  float64
	Category         string
	LastDeliveryDate *time.Time
}

type Service struct {
	store       store.Store
	idGenerator application.IDGenerator
	settings    SettingsReader
	obs         application.Instrumentation
}

func NewService(st store.Store, idGen application.IDGenerator, settingsReader SettingsReader, tel observability.Observability) *Service {
	return &Service{
		store:       st,
		idGenerator: idGen,
		settings:    settingsReader,
		obs:         application.NewInstrumentation(tel, inventoryService),
	}
}

func (s *Service) List(ctx context.Context) (_ []*ingredient.Ingredient, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseList, "ListIngredients")
	defer func() { done(err) }()

	items, err := s.store.Ingredients().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: list: %w", err)
	}
	return items, nil
}

// LowStock lists ingredients under the warning level derived from the
// lowStockThreshold setting. It is a read-only view and raises no alerts.
func (s *Service) LowStock(ctx context.Context) (_ []*ingredient.Ingredient, err error) {
	ctx, logger, done := s.obs.Begin(ctx, useCaseLowStock, "LowStockIngredients")
	defer func() { done(err) }()

	threshold := float64(settings.DefaultLowStockThreshold)
	if s.settings != nil {
		current, serr := s.settings.Current(ctx)
		if serr != nil {
			return nil, fmt.Errorf("inventory: low stock: %w", serr)
		}
		threshold = current.LowStockThreshold
	}
	logger.Debug("low_stock_threshold", observability.F("threshold_percent", threshold))

	items, err := s.store.Ingredients().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: low stock: %w", err)
	}
	out := make([]*ingredient.Ingredient, 0, len(items))
	for _, item := range items {
		if item.BelowWarningLevel(threshold) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in IngredientInput) (_ *ingredient.Ingredient, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseCreate, "CreateIngredient",
		attribute.String("ingredient.name", in.Name),
	)
	defer func() { done(err) }()

	item, err := ingredient.New(s.idGenerator.NewID(), in.Name, in.Unit, in.Category, in.Quantity, in.MinimumQuantity, utc(in.LastDeliveryDate))
	if err != nil {
		return nil, err
	}
	if err := s.store.Ingredients().Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("inventory: create: %w", err)
	}
	return item, nil
}

// Update replaces every client-owned field of the ingredient with id.
func (s *Service) Update(ctx context.Context, id string, in IngredientInput) (_ *ingredient.Ingredient, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseUpdate, "UpdateIngredient",
		attribute.String("ingredient.id", id),
	)
	defer func() { done(err) }()

	if strings.TrimSpace(id) == "" {
		return nil, application.NewValidation("id is required")
	}
	item, err := ingredient.New(id, in.Name, in.Unit, in.Category, in.Quantity, in.MinimumQuantity, utc(in.LastDeliveryDate))
	if err != nil {
		return nil, err
	}
	if err := s.store.Ingredients().Update(ctx, item); err != nil {
		return nil, fmt.Errorf("inventory: update: %w", err)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseDelete, "DeleteIngredient",
		attribute.String("ingredient.id", id),
	)
	defer func() { done(err) }()

	if strings.TrimSpace(id) == "" {
		return application.NewValidation("id is required")
	}
	if err := s.store.Ingredients().Delete(ctx, id); err != nil {
		return fmt.Errorf("inventory: delete: %w", err)
	}
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
