package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected Category
	}{
		{"canonical flooding", "Flooding", CategoryFlooding},
		{"lowercase flooding", "flooding", CategoryFlooding},
		{"canonical tsunami", "Tsunami", CategoryTsunami},
		{"legacy tsunami alert", "Tsunami Alert", CategoryTsunami},
		{"legacy tsunami alert collapsed", "tsunamialert", CategoryTsunami},
		{"high waves with space", "High Waves", CategoryHighWaves},
		{"high waves collapsed", "highwaves", CategoryHighWaves},
		{"high waves shouting", "HIGH WAVES", CategoryHighWaves},
		{"high waves extra whitespace", "High \t  Waves", CategoryHighWaves},
		{"coastal damage", "Coastal Damage", CategoryCoastalDamage},
		{"coastal damage collapsed", "coastaldamage", CategoryCoastalDamage},
		{"other", "Other", CategoryOther},
		{"unknown label", "banana", CategoryOther},
		{"empty label", "", CategoryOther},
		{"whitespace only", "   \t ", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.label))
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	// Classifying a category's own display name must return the category,
	// so classification composed with rendering is a fixed point.
	for _, cat := range Categories() {
		assert.Equal(t, cat, Classify(cat.DisplayName()), "display name %q", cat.DisplayName())
		assert.Equal(t, cat, Classify(cat.String()), "slug %q", cat.String())
	}
}

func TestCategory_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(CategoryHighWaves)
	require.NoError(t, err)
	assert.Equal(t, `"highwaves"`, string(data))

	var cat Category
	require.NoError(t, json.Unmarshal([]byte(`"Tsunami Alert"`), &cat))
	assert.Equal(t, CategoryTsunami, cat)
}

func TestCountByCategory(t *testing.T) {
	points := []GeoPoint{
		{Category: CategoryFlooding},
		{Category: CategoryFlooding},
		{Category: CategoryTsunami},
	}

	counts := CountByCategory(points)

	assert.Equal(t, 2, counts[CategoryFlooding])
	assert.Equal(t, 1, counts[CategoryTsunami])
	assert.Equal(t, 0, counts[CategoryHighWaves])
	assert.Equal(t, 0, counts[CategoryCoastalDamage])
	assert.Equal(t, 0, counts[CategoryOther])
	assert.Len(t, counts, len(Categories()))
}
