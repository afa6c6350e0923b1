package settings

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrNotFound = errors.New("settings: not found")
	ErrInvalid  = errors.New("settings: invalid")
)

const (
	DefaultKitchenName       = "KinderKitchen"
	DefaultLowStockThreshold = 10
	DefaultMisuseThreshold   = 15
)

// Settings is the single configuration row of a kitchen.
type Settings struct {
	KitchenName           string
	LowStockThreshold     float64
	EnableNotifications   bool
	EnableRealTimeUpdates bool
	MisuseThreshold       float64
}

func Defaults() Settings {
	return Settings{
		KitchenName:           DefaultKitchenName,
		LowStockThreshold:     DefaultLowStockThreshold,
		EnableNotifications:   true,
		EnableRealTimeUpdates: true,
		MisuseThreshold:       DefaultMisuseThreshold,
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.KitchenName) == "" {
		return fmt.Errorf("%w: kitchenName is required", ErrInvalid)
	}
	if !percent(s.LowStockThreshold) {
		return fmt.Errorf("%w: lowStockThreshold must be between 0 and 100", ErrInvalid)
	}
	if !percent(s.MisuseThreshold) {
		return fmt.Errorf("%w: misuseThreshold must be between 0 and 100", ErrInvalid)
	}
	return nil
}

// Patch is a partial update; nil fields keep the current value.
type Patch struct {
	KitchenName           *string
	LowStockThreshold     *float64
	EnableNotifications   *bool
	EnableRealTimeUpdates *bool
	MisuseThreshold       *float64
}

func (p Patch) Apply(s Settings) Settings {
	if p.KitchenName != nil {
		s.KitchenName = strings.TrimSpace(*p.KitchenName)
	}
	if p.LowStockThreshold != nil {
		s.LowStockThreshold = *p.LowStockThreshold
	}
	if p.EnableNotifications != nil {
		s.EnableNotifications = *p.EnableNotifications
	}
	if p.EnableRealTimeUpdates != nil {
		s.EnableRealTimeUpdates = *p.EnableRealTimeUpdates
	}
	if p.MisuseThreshold != nil {
		s.MisuseThreshold = *p.MisuseThreshold
	}
	return s
}

func percent(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}
