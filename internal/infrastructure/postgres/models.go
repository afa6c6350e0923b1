package postgres

import (
	"time"

	"gorm.io/datatypes"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
)

// Column names follow the hosted schema, which stores camelCase identifiers.

type ingredientModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	Name             string     `gorm:"column:name"`
	Quantity         float64    `gorm:"column:quantity"`
	Unit             string     `gorm:"column:unit"`
	MinimumQuantity  float64    `gorm:"column:minimumQuantity"`
	Category         string     `gorm:"column:category"`
	LastDeliveryDate *time.Time `gorm:"column:lastDeliveryDate"`
}

func (ingredientModel) TableName() string { return "ingredients" }

type mealModel struct {
	ID          string                               `gorm:"column:id;primaryKey"`
	Name        string                               `gorm:"column:name"`
	Ingredients datatypes.JSONSlice[meal.Ingredient] `gorm:"column:ingredients"`
	Category    string                               `gorm:"column:category"`
	Description *string                              `gorm:"column:description"`
}

func (mealModel) TableName() string { return "meals" }

type servingModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	MealID      string    `gorm:"column:mealId"`
	Portions    int       `gorm:"column:portions"`
	UserID      string    `gorm:"column:userId"`
	ServingDate time.Time `gorm:"column:servingDate"`
}

func (servingModel) TableName() string { return "serving_records" }

type alertModel struct {
	ID      string    `gorm:"column:id;primaryKey"`
	Type    string    `gorm:"column:type"`
	Message string    `gorm:"column:message"`
	Date    time.Time `gorm:"column:date"`
	IsRead  bool      `gorm:"column:isRead"`
}

func (alertModel) TableName() string { return "alerts" }

type settingsModel struct {
	ID                    string  `gorm:"column:id;primaryKey"`
	KitchenName           string  `gorm:"column:kitchenName"`
	LowStockThreshold     float64 `gorm:"column:lowStockThreshold"`
	EnableNotifications   bool    `gorm:"column:enableNotifications"`
	EnableRealTimeUpdates bool    `gorm:"column:enableRealTimeUpdates"`
	MisuseThreshold       float64 `gorm:"column:misuseThreshold"`
}

func (settingsModel) TableName() string { return "settings" }

func ingredientToModel(i *ingredient.Ingredient) *ingredientModel {
	return &ingredientModel{
		ID:               i.ID,
		Name:             i.Name,
		Quantity:         i.Quantity,
		Unit:             i.Unit,
		MinimumQuantity:  i.MinimumQuantity,
		Category:         i.Category,
		LastDeliveryDate: i.LastDeliveryDate,
	}
}

func ingredientFromModel(m *ingredientModel) *ingredient.Ingredient {
	out := &ingredient.Ingredient{
		ID:              m.ID,
		Name:            m.Name,
		Quantity:        m.Quantity,
		Unit:            m.Unit,
		MinimumQuantity: m.MinimumQuantity,
		Category:        m.Category,
	}
	if m.LastDeliveryDate != nil {
		d := m.LastDeliveryDate.UTC()
		out.LastDeliveryDate = &d
	}
	return out
}

func mealToModel(m *meal.Meal) *mealModel {
	return &mealModel{
		ID:          m.ID,
		Name:        m.Name,
		Ingredients: datatypes.NewJSONSlice(append([]meal.Ingredient{}, m.Ingredients...)),
		Category:    m.Category,
		Description: m.Description,
	}
}

func mealFromModel(m *mealModel) *meal.Meal {
	return &meal.Meal{
		ID:          m.ID,
		Name:        m.Name,
		Ingredients: append([]meal.Ingredient(nil), m.Ingredients...),
		Category:    m.Category,
		Description: m.Description,
	}
}

func servingToModel(r *serving.Record) *servingModel {
	return &servingModel{
		ID:          r.ID,
		MealID:      r.MealID,
		Portions:    r.Portions,
		UserID:      r.UserID,
		ServingDate: r.ServingDate.UTC(),
	}
}

func servingFromModel(m *servingModel) *serving.Record {
	return &serving.Record{
		ID:          m.ID,
		MealID:      m.MealID,
		Portions:    m.Portions,
		UserID:      m.UserID,
		ServingDate: m.ServingDate.UTC(),
	}
}

func alertToModel(a *alert.Alert) *alertModel {
	return &alertModel{
		ID:      a.ID,
		Type:    string(a.Type),
		Message: a.Message,
		Date:    a.Date.UTC(),
		IsRead:  a.IsRead,
	}
}

func alertFromModel(m *alertModel) *alert.Alert {
	return &alert.Alert{
		ID:      m.ID,
		Type:    alert.Type(m.Type),
		Message: m.Message,
		Date:    m.Date.UTC(),
		IsRead:  m.IsRead,
	}
}

func settingsToModel(id string, s *settings.Settings) *settingsModel {
	return &settingsModel{
		ID:                    id,
		KitchenName:           s.KitchenName,
		LowStockThreshold:     s.LowStockThreshold,
		EnableNotifications:   s.EnableNotifications,
		EnableRealTimeUpdates: s.EnableRealTimeUpdates,
		MisuseThreshold:       s.MisuseThreshold,
	}
}

func settingsFromModel(m *settingsModel) *settings.Settings {
	return &settings.Settings{
		KitchenName:           m.KitchenName,
		LowStockThreshold:     m.LowStockThreshold,
		EnableNotifications:   m.EnableNotifications,
		EnableRealTimeUpdates: m.EnableRealTimeUpdates,
		MisuseThreshold:       m.MisuseThreshold,
	}
}
