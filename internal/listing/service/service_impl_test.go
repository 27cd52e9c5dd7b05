package service

import (
	"testing"

	"github.com/openhaus/atrium/internal/listing/domain"
	"github.com/stretchr/testify/assert"
)

func TestApplyAttributesFlattensPoolFeatureList(t *testing.T) {
	var l domain.Listing
	applyAttributes(&l, map[string]any{
		"ListingId":    "MLS-100",
		"PoolFeatures": []any{"In Ground", "Heated"},
	})
	assert.Equal(t, "In Ground, Heated", l.PoolFeatures)

	var s domain.Listing
	applyAttributes(&s, map[string]any{
		"ListingId":    "MLS-101",
		"PoolFeatures": []string{" Above Ground "},
	})
	assert.Equal(t, "Above Ground", s.PoolFeatures)

	var n domain.Listing
	applyAttributes(&n, map[string]any{
		"ListingId":    "MLS-102",
		"PoolFeatures": 42,
	})
	assert.Equal(t, "", n.PoolFeatures)
}

func TestApplyAttributesDoesNotPersistAddressPlaceholder(t *testing.T) {
	var l domain.Listing
	applyAttributes(&l, map[string]any{
		"ListingId":  "MLS-103",
		"LivingArea": float64(1500),
	})
	assert.Equal(t, "", l.Address)

	var composed domain.Listing
	applyAttributes(&composed, map[string]any{
		"ListingId":     "MLS-104",
		"StreetAddress": "12 Main St",
		"City":          "Austin",
	})
	assert.Equal(t, "12 Main St, Austin", composed.Address)
}
