package httppresentation

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	appServing "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability/logctx"
)

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": rootMessage})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.opts.Health != nil {
		if err := h.opts.Health(r.Context()); err != nil {
			logctx.FromOr(r.Context(), h.log).Warn("health_check_failed", observability.F("error", err.Error()))
			writeError(w, http.StatusServiceUnavailable, detailUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// decodeBody answers malformed JSON with 400 and reports whether to continue.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// fail writes the mapped error and logs unexpected failures with their cause.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("http_request_failed",
			observability.F("route", routeFromContext(r.Context())),
			observability.F("status", status),
			observability.F("error", err),
		)
	}
	writeError(w, status, detail)
}

// Ingredients

func (h *Handler) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Inventory.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ingredients": toIngredientDTOs(items)})
}

func (h *Handler) handleLowStockIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Inventory.LowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ingredients": toIngredientDTOs(items)})
}

func (h *Handler) handleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.Inventory.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ingredient": toIngredientDTO(item)})
}

func (h *Handler) handleUpdateIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.Inventory.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ingredient": toIngredientDTO(item)})
}

func (h *Handler) handleDeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Inventory.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

// Meals

func (h *Handler) handleListMeals(w http.ResponseWriter, r *http.Request) {
	meals, err := h.svc.Menu.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]mealDTO, 0, len(meals))
	for _, m := range meals {
		out = append(out, toMealDTO(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"meals": out})
}

func (h *Handler) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	var req mealRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.svc.Menu.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"meal": toMealDTO(m)})
}

func (h *Handler) handleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	var req mealRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.svc.Menu.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meal": toMealDTO(m)})
}

func (h *Handler) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Menu.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (h *Handler) handleMealAvailability(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Menu.Availability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityDTO{MealID: a.MealID, PossiblePortions: a.PossiblePortions})
}

// Serving

func (h *Handler) handleServe(w http.ResponseWriter, r *http.Request) {
	var req serveRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.Serving.Execute(r.Context(), appServing.ServeMealInput{
		MealID:   req.MealID,
		Portions: req.Portions,
		UserID:   req.UserID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serveResponse{
		Success: true,
		Serving: toServingDTO(res.Record),
		Alerts:  toAlertDTOs(res.Alerts),
	})
}

// Settings

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Settings.Get(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": toSettingsDTO(s)})
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPatchRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	s, err := h.svc.Settings.Update(r.Context(), req.patch())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": toSettingsDTO(s)})
}

// Reports and alerts

func (h *Handler) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := intParam(q.Get("year"), "year")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	month, err := intParam(q.Get("month"), "month")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.svc.Reports.Monthly(r.Context(), year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyReportDTO(report))
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(w, r, application.NewValidation("unread must be true or false"))
			return
		}
		unreadOnly = b
	}
	alerts, err := h.svc.Alerts.List(r.Context(), unreadOnly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": toAlertDTOs(alerts)})
}

func intParam(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, application.NewValidation("%s is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, application.NewValidation("%s must be an integer", name)
	}
	return v, nil
}
