package alert

import (
	"context"
	"fmt"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	domalert "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	alertService = "alert-service"
	useCaseList  = "alert.list"
)

// Service is the read side of alerts; only serving writes them.
type Service struct {
	store store.Store
	obs   application.Instrumentation
}

func NewService(st store.Store, tel observability.Observability) *Service {
	return &Service{store: st, obs: application.NewInstrumentation(tel, alertService)}
}

func (s *Service) List(ctx context.Context, unreadOnly bool) (_ []*domalert.Alert, err error) {
	ctx, _, done := s.obs.Begin(ctx, useCaseList, "ListAlerts", attribute.Bool("alert.unread_only", unreadOnly))
	defer func() { done(err) }()

	alerts, err := s.store.Alerts().List(ctx, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("alert: list: %w", err)
	}
	return alerts, nil
}
