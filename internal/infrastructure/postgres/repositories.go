package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
)

type ingredientRepository struct {
	db *gorm.DB
}

func (r *ingredientRepository) List(ctx context.Context) ([]*ingredient.Ingredient, error) {
	var rows []ingredientModel
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, wrapDB(err)
	}
	out := make([]*ingredient.Ingredient, 0, len(rows))
	for i := range rows {
		out = append(out, ingredientFromModel(&rows[i]))
	}
	return out, nil
}

func (r *ingredientRepository) Get(ctx context.Context, id string) (*ingredient.Ingredient, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *ingredientRepository) GetForUpdate(ctx context.Context, id string) (*ingredient.Ingredient, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

func (r *ingredientRepository) get(db *gorm.DB, id string) (*ingredient.Ingredient, error) {
	var row ingredientModel
	err := db.Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ingredient.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, wrapDB(err)
	}
	return ingredientFromModel(&row), nil
}

func (r *ingredientRepository) Insert(ctx context.Context, i *ingredient.Ingredient) error {
	return wrapDB(r.db.WithContext(ctx).Create(ingredientToModel(i)).Error)
}

func (r *ingredientRepository) Update(ctx context.Context, i *ingredient.Ingredient) error {
	m := ingredientToModel(i)
	res := r.db.WithContext(ctx).Model(m).Select("*").Updates(m)
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return &ingredient.NotFoundError{ID: i.ID}
	}
	return nil
}

func (r *ingredientRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ingredientModel{})
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return &ingredient.NotFoundError{ID: id}
	}
	return nil
}

// Deduct is a conditional update, so a concurrent writer can never drive the quantity negative.
func (r *ingredientRepository) Deduct(ctx context.Context, id string, amount float64) error {
	if amount <= 0 {
		return ingredient.ErrInvalidQuantity
	}
	db := r.db.WithContext(ctx)
	res := db.Model(&ingredientModel{}).
		Where("id = ? AND quantity >= ?", id, amount).
		Update("quantity", gorm.Expr("quantity - ?", amount))
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	current, err := r.get(db, id)
	if err != nil {
		return err
	}
	return current.CheckAvailable(amount)
}

type mealRepository struct {
	db *gorm.DB
}

func (r *mealRepository) List(ctx context.Context) ([]*meal.Meal, error) {
	var rows []mealModel
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, wrapDB(err)
	}
	out := make([]*meal.Meal, 0, len(rows))
	for i := range rows {
		out = append(out, mealFromModel(&rows[i]))
	}
	return out, nil
}

func (r *mealRepository) Get(ctx context.Context, id string) (*meal.Meal, error) {
	var row mealModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &meal.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, wrapDB(err)
	}
	return mealFromModel(&row), nil
}

func (r *mealRepository) Insert(ctx context.Context, m *meal.Meal) error {
	return wrapDB(r.db.WithContext(ctx).Create(mealToModel(m)).Error)
}

func (r *mealRepository) Update(ctx context.Context, m *meal.Meal) error {
	row := mealToModel(m)
	res := r.db.WithContext(ctx).Model(row).Select("*").Updates(row)
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return &meal.NotFoundError{ID: m.ID}
	}
	return nil
}

func (r *mealRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&mealModel{})
	if res.Error != nil {
		return wrapDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return &meal.NotFoundError{ID: id}
	}
	return nil
}

type servingRepository struct {
	db *gorm.DB
}

func (r *servingRepository) Insert(ctx context.Context, rec *serving.Record) error {
	return wrapDB(r.db.WithContext(ctx).Create(servingToModel(rec)).Error)
}

func (r *servingRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*serving.Record, error) {
	var rows []servingModel
	err := r.db.WithContext(ctx).
		Where(`"servingDate" >= ? AND "servingDate" < ?`, from.UTC(), to.UTC()).
		Order(`"servingDate"`).
		Find(&rows).Error
	if err != nil {
		return nil, wrapDB(err)
	}
	out := make([]*serving.Record, 0, len(rows))
	for i := range rows {
		out = append(out, servingFromModel(&rows[i]))
	}
	return out, nil
}

type alertRepository struct {
	db *gorm.DB
}

func (r *alertRepository) Insert(ctx context.Context, a *alert.Alert) error {
	return wrapDB(r.db.WithContext(ctx).Create(alertToModel(a)).Error)
}

func (r *alertRepository) List(ctx context.Context, unreadOnly bool) ([]*alert.Alert, error) {
	q := r.db.WithContext(ctx).Order(`"date" DESC`)
	if unreadOnly {
		q = q.Where(`"isRead" = ?`, false)
	}
	var rows []alertModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrapDB(err)
	}
	out := make([]*alert.Alert, 0, len(rows))
	for i := range rows {
		out = append(out, alertFromModel(&rows[i]))
	}
	return out, nil
}

// settingsRowID keys the single settings row this service writes.
const settingsRowID = "kitchen"

// settingsRepository treats the first row of the settings table as the kitchen's settings.
// Inside a transaction the row is read with FOR UPDATE so concurrent merges queue up.
type settingsRepository struct {
	db        *gorm.DB
	forUpdate bool
}

func (r *settingsRepository) first(ctx context.Context) (*settingsModel, error) {
	q := r.db.WithContext(ctx)
	if r.forUpdate {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var row settingsModel
	if err := q.Order("id").Limit(1).Find(&row).Error; err != nil {
		return nil, wrapDB(err)
	}
	if row.ID == "" {
		return nil, settings.ErrNotFound
	}
	return &row, nil
}

func (r *settingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	row, err := r.first(ctx)
	if err != nil {
		return nil, err
	}
	return settingsFromModel(row), nil
}

// Insert writes the singleton row. A concurrent first insert turns into an
// update of the same key, so the table keeps one row.
func (r *settingsRepository) Insert(ctx context.Context, s *settings.Settings) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(settingsToModel(settingsRowID, s)).Error
	if err != nil {
		return fmt.Errorf("postgres: insert settings: %w", wrapDB(err))
	}
	return nil
}

func (r *settingsRepository) Update(ctx context.Context, s *settings.Settings) error {
	row, err := r.first(ctx)
	if err != nil {
		return err
	}
	m := settingsToModel(row.ID, s)
	res := r.db.WithContext(ctx).Model(m).Select("*").Updates(m)
	if res.Error != nil {
		return fmt.Errorf("postgres: update settings: %w", wrapDB(res.Error))
	}
	if res.RowsAffected == 0 {
		return settings.ErrNotFound
	}
	return nil
}
