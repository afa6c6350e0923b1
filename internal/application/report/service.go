package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/menu"
	domserving "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	reportService  = "report-service"
	useCaseMonthly = "report.monthly"
)

type SettingsReader interface {
	Current(ctx context.Context) (settings.Settings, error)
}

type Monthly struct {
	Year          int
	Month         int
	Servings      []*domserving.Record
	TotalPortions int
	// TotalPossiblePortions sums what current stock allows across all meals.
	TotalPossiblePortions int
	// Difference is the shortfall of served against possible portions, in percent.
	Difference float64
	IsMisuse   bool
}

type Service struct {
	store    store.Store
	settings SettingsReader
	obs      application.Instrumentation
}

func NewService(st store.Store, settingsReader SettingsReader, tel observability.Observability) *Service {
	return &Service{
		store:    st,
		settings: settingsReader,
		obs:      application.NewInstrumentation(tel, reportService),
	}
}

// Monthly aggregates servings dated within [first of month, first of next month) UTC.
func (s *Service) Monthly(ctx context.Context, year, month int) (_ *Monthly, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseMonthly, "MonthlyReport",
		attribute.Int("report.year", year),
		attribute.Int("report.month", month),
	)
	defer func() { done(err) }()

	if year < 1 || year > 9999 {
		return nil, application.NewValidation("year must be between 1 and 9999")
	}
	if month < 1 || month > 12 {
		return nil, application.NewValidation("month must be between 1 and 12")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	records, err := s.store.Servings().ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("report: servings: %w", err)
	}

	misuseThreshold := float64(settings.DefaultMisuseThreshold)
	if s.settings != nil {
		current, serr := s.settings.Current(ctx)
		if serr != nil {
			return nil, fmt.Errorf("report: settings: %w", serr)
		}
		misuseThreshold = current.MisuseThreshold
	}

	possible, err := s.possiblePortions(ctx)
	if err != nil {
		return nil, err
	}

	out := &Monthly{
		Year:                  year,
		Month:                 month,
		Servings:              records,
		TotalPossiblePortions: possible,
	}
	if out.Servings == nil {
		out.Servings = []*domserving.Record{}
	}
	for _, r := range records {
		out.TotalPortions += r.Portions
	}
	out.Difference = Difference(possible, out.TotalPortions)
	out.IsMisuse = out.Difference > misuseThreshold
	return out, nil
}

func (s *Service) possiblePortions(ctx context.Context) (int, error) {
	meals, err := s.store.Meals().List(ctx)
	if err != nil {
		return 0, fmt.Errorf("report: meals: %w", err)
	}
	items, err := s.store.Ingredients().List(ctx)
	if err != nil {
		return 0, fmt.Errorf("report: ingredients: %w", err)
	}
	stock := menu.StockLevels(items)
	total := 0
	for _, m := range meals {
		n := m.PossiblePortions(stock)
		if total > math.MaxInt-n {
			return math.MaxInt, nil
		}
		total += n
	}
	return total, nil
}

// Difference is (possible - served) / possible as a percentage, 0 when nothing was possible.
func Difference(possible, served int) float64 {
	if possible == 0 {
		return 0
	}
	return float64(possible-served) / float64(possible) * 100
}
