package httppresentation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
)

const (
	detailUnavailable = "Data store is unavailable"
	detailInternal    = "Internal server error"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// classify maps an application error to a status and a client-safe detail.
// Typed errors contribute their own message; internal failures never leak theirs.
func classify(err error) (int, string) {
	var (
		ingNotFound  *ingredient.NotFoundError
		mealNotFound *meal.NotFoundError
		shortfall    *ingredient.InsufficientStockError
		validation   *application.ValidationError
	)
	switch {
	case errors.As(err, &shortfall):
		return http.StatusBadRequest, shortfall.Error()
	case errors.As(err, &mealNotFound):
		return http.StatusNotFound, mealNotFound.Error()
	case errors.As(err, &ingNotFound):
		return http.StatusNotFound, ingNotFound.Error()
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Msg
	case errors.Is(err, ingredient.ErrInvalid),
		errors.Is(err, ingredient.ErrInvalidQuantity),
		errors.Is(err, meal.ErrInvalid),
		errors.Is(err, settings.ErrInvalid),
		errors.Is(err, serving.ErrInvalidPortions):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, detailUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, detailInternal
	}
}
