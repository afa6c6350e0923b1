package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsAreValid(t *testing.T) {
	d := Defaults()
	assert.NoError(t, d.Validate())
	assert.Equal(t, "KinderKitchen", d.KitchenName)
	assert.InDelta(t, 10, d.LowStockThreshold, 1e-9)
	assert.InDelta(t, 15, d.MisuseThreshold, 1e-9)
	assert.True(t, d.EnableNotifications)
	assert.True(t, d.EnableRealTimeUpdates)
}

func TestPatchApplyKeepsUnsetFields(t *testing.T) {
	name := "Sunflower"
	off := false
	got := Patch{KitchenName: &name, EnableNotifications: &off}.Apply(Defaults())

	assert.Equal(t, "Sunflower", got.KitchenName)
	assert.False(t, got.EnableNotifications)
	assert.True(t, got.EnableRealTimeUpdates)
	assert.InDelta(t, 10, got.LowStockThreshold, 1e-9)
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	s := Defaults()
	s.LowStockThreshold = 101
	assert.ErrorIs(t, s.Validate(), ErrInvalid)

	s = Defaults()
	s.MisuseThreshold = -1
	assert.ErrorIs(t, s.Validate(), ErrInvalid)

	s = Defaults()
	s.KitchenName = "  "
	assert.ErrorIs(t, s.Validate(), ErrInvalid)
}
