package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
)

type servingRepository struct {
	with access
}

func (r *servingRepository) Insert(ctx context.Context, rec *serving.Record) error {
	_ = ctx
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("memory: serving id is required")
	}
	return r.with(true, func(t *tables) error {
		t.servings = append(t.servings, rec.Clone())
		return nil
	})
}

func (r *servingRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*serving.Record, error) {
	_ = ctx
	var out []*serving.Record
	err := r.with(false, func(t *tables) error {
		for _, rec := range t.servings {
			if !rec.ServingDate.Before(from) && rec.ServingDate.Before(to) {
				out = append(out, rec.Clone())
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ServingDate.Before(out[j].ServingDate) })
	return out, err
}

type alertRepository struct {
	with access
}

func (r *alertRepository) Insert(ctx context.Context, a *alert.Alert) error {
	_ = ctx
	if a == nil || a.ID == "" {
		return fmt.Errorf("memory: alert id is required")
	}
	return r.with(true, func(t *tables) error {
		t.alerts = append(t.alerts, a.Clone())
		return nil
	})
}

func (r *alertRepository) List(ctx context.Context, unreadOnly bool) ([]*alert.Alert, error) {
	_ = ctx
	var out []*alert.Alert
	err := r.with(false, func(t *tables) error {
		for i := len(t.alerts) - 1; i >= 0; i-- {
			a := t.alerts[i]
			if unreadOnly && a.IsRead {
				continue
			}
			out = append(out, a.Clone())
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, err
}
