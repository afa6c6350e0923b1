package httppresentation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	appInventory "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/inventory"
	appMenu "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/menu"
	appReport "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/report"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
)

// Request bodies may carry an id; the path or the server decides the real one.

type ingredientRequest struct {
	ID               string        `json:"id,omitempty"`
	Name             string        `json:"name"`
	Quantity         *float64      `json:"quantity"`
	Unit             string        `json:"unit"`
	MinimumQuantity  *float64      `json:"minimumQuantity"`
	Category         string        `json:"category"`
	LastDeliveryDate *deliveryDate `json:"lastDeliveryDate,omitempty"`
}

// deliveryDate accepts a calendar date ("2006-01-02") or an RFC 3339 timestamp.
// An empty string means no date.
type deliveryDate struct {
	time.Time
}

func (d *deliveryDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("lastDeliveryDate: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("lastDeliveryDate %q: expected YYYY-MM-DD or an RFC 3339 timestamp", s)
}

func (d *deliveryDate) value() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func (req ingredientRequest) input() (appInventory.IngredientInput, error) {
	if req.Quantity == nil {
		return appInventory.IngredientInput{}, application.NewValidation("quantity is required")
	}
	if req.MinimumQuantity == nil {
		return appInventory.IngredientInput{}, application.NewValidation("minimumQuantity is required")
	}
	return appInventory.IngredientInput{
		Name:             req.Name,
		Quantity:         *req.Quantity,
		Unit:             req.Unit,
		MinimumQuantity:  *req.MinimumQuantity,
		Category:         req.Category,
		LastDeliveryDate: req.LastDeliveryDate.value(),
	}, nil
}

type ingredientDTO struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Quantity         float64    `json:"quantity"`
	Unit             string     `json:"unit"`
	MinimumQuantity  float64    `json:"minimumQuantity"`
	Category         string     `json:"category"`
	LastDeliveryDate *time.Time `json:"lastDeliveryDate"`
}

func toIngredientDTO(i *ingredient.Ingredient) ingredientDTO {
	return ingredientDTO{
		ID:               i.ID,
		Name:             i.Name,
		Quantity:         i.Quantity,
		Unit:             i.Unit,
		MinimumQuantity:  i.MinimumQuantity,
		Category:         i.Category,
		LastDeliveryDate: i.LastDeliveryDate,
	}
}

func toIngredientDTOs(items []*ingredient.Ingredient) []ingredientDTO {
	out := make([]ingredientDTO, 0, len(items))
	for _, i := range items {
		out = append(out, toIngredientDTO(i))
	}
	return out
}

type mealIngredientDTO struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
}

type mealRequest struct {
	ID          string              `json:"id,omitempty"`
	Name        string              `json:"name"`
	Ingredients []mealIngredientDTO `json:"ingredients"`
	Category    string              `json:"category"`
	Description *string             `json:"description,omitempty"`
}

func (req mealRequest) input() (appMenu.MealInput, error) {
	if req.Ingredients == nil {
		return appMenu.MealInput{}, application.NewValidation("ingredients is required")
	}
	ings := make([]meal.Ingredient, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		ings = append(ings, meal.Ingredient{IngredientID: ing.IngredientID, Quantity: ing.Quantity})
	}
	return appMenu.MealInput{
		Name:        req.Name,
		Ingredients: ings,
		Category:    req.Category,
		Description: req.Description,
	}, nil
}

type mealDTO struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Ingredients []mealIngredientDTO `json:"ingredients"`
	Category    string              `json:"category"`
	Description *string             `json:"description"`
}

func toMealDTO(m *meal.Meal) mealDTO {
	ings := make([]mealIngredientDTO, 0, len(m.Ingredients))
	for _, ing := range m.Ingredients {
		ings = append(ings, mealIngredientDTO{IngredientID: ing.IngredientID, Quantity: ing.Quantity})
	}
	return mealDTO{
		ID:          m.ID,
		Name:        m.Name,
		Ingredients: ings,
		Category:    m.Category,
		Description: m.Description,
	}
}

type availabilityDTO struct {
	MealID           string `json:"mealId"`
	PossiblePortions int    `json:"possiblePortions"`
}

type serveRequest struct {
	MealID   string `json:"mealId"`
	Portions int    `json:"portions"`
	UserID   string `json:"userId"`
}

type servingDTO struct {
	ID          string    `json:"id"`
	MealID      string    `json:"mealId"`
	Portions    int       `json:"portions"`
	UserID      string    `json:"userId"`
	ServingDate time.Time `json:"servingDate"`
}

func toServingDTO(r *serving.Record) servingDTO {
	return servingDTO{
		ID:          r.ID,
		MealID:      r.MealID,
		Portions:    r.Portions,
		UserID:      r.UserID,
		ServingDate: r.ServingDate,
	}
}

type serveResponse struct {
	Success bool       `json:"success"`
	Serving servingDTO `json:"serving"`
	Alerts  []alertDTO `json:"alerts"`
}

type alertDTO struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	IsRead  bool      `json:"isRead"`
}

func toAlertDTOs(alerts []*alert.Alert) []alertDTO {
	out := make([]alertDTO, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertDTO{ID: a.ID, Type: string(a.Type), Message: a.Message, Date: a.Date, IsRead: a.IsRead})
	}
	return out
}

type settingsDTO struct {
	KitchenName           string  `json:"kitchenName"`
	LowStockThreshold     float64 `json:"lowStockThreshold"`
	EnableNotifications   bool    `json:"enableNotifications"`
	EnableRealTimeUpdates bool    `json:"enableRealTimeUpdates"`
	MisuseThreshold       float64 `json:"misuseThreshold"`
}

func toSettingsDTO(s settings.Settings) settingsDTO {
	return settingsDTO{
		KitchenName:           s.KitchenName,
		LowStockThreshold:     s.LowStockThreshold,
		EnableNotifications:   s.EnableNotifications,
		EnableRealTimeUpdates: s.EnableRealTimeUpdates,
		MisuseThreshold:       s.MisuseThreshold,
	}
}

// settingsPatchRequest is partial: absent keys keep their stored value.
type settingsPatchRequest struct {
	KitchenName           *string  `json:"kitchenName"`
	LowStockThreshold     *float64 `json:"lowStockThreshold"`
	EnableNotifications   *bool    `json:"enableNotifications"`
	EnableRealTimeUpdates *bool    `json:"enableRealTimeUpdates"`
	MisuseThreshold       *float64 `json:"misuseThreshold"`
}

func (req settingsPatchRequest) patch() settings.Patch {
	return settings.Patch{
		KitchenName:           req.KitchenName,
		LowStockThreshold:     req.LowStockThreshold,
		EnableNotifications:   req.EnableNotifications,
		EnableRealTimeUpdates: req.EnableRealTimeUpdates,
		MisuseThreshold:       req.MisuseThreshold,
	}
}

type monthlyReportDTO struct {
	Year                  int          `json:"year"`
	Month                 int          `json:"month"`
	Servings              []servingDTO `json:"servings"`
	TotalPortions         int          `json:"totalPortions"`
	TotalPossiblePortions int          `json:"totalPossiblePortions"`
	Difference            float64      `json:"difference"`
	IsMisuse              bool         `json:"isMisuse"`
}

func toMonthlyReportDTO(m *appReport.Monthly) monthlyReportDTO {
	servings := make([]servingDTO, 0, len(m.Servings))
	for _, r := range m.Servings {
		servings = append(servings, toServingDTO(r))
	}
	return monthlyReportDTO{
		Year:                  m.Year,
		Month:                 m.Month,
		Servings:              servings,
		TotalPortions:         m.TotalPortions,
		TotalPossiblePortions: m.TotalPossiblePortions,
		Difference:            m.Difference,
		IsMisuse:              m.IsMisuse,
	}
}
