package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_JSONKeepsCategoryFieldsVariant(t *testing.T) {
	rating := 4.5
	in := Plan{
		PlanID:         "plan_1_abc",
		Name:           "Pet Basic",
		Category:       CategoryPet,
		BasePrice:      12,
		CoverageAmount: 3000,
		Rating:         &rating,
		CompanyID:      3,
		CategoryFields: PetFields{PetTypes: []string{"dog", "cat"}, CoversAccident: true},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"categoryFields":{"petTypes":["dog","cat"]`)
	assert.NotContains(t, string(data), "createdAt")

	var out Plan
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestDecodeCategoryFields(t *testing.T) {
	fields, err := DecodeCategoryFields(CategoryHealth, json.RawMessage(`{"coversEmergency":true}`))
	require.NoError(t, err)
	assert.Equal(t, HealthFields{CoversEmergency: true}, fields)

	fields, err = DecodeCategoryFields(CategoryAuto, nil)
	require.NoError(t, err)
	assert.Nil(t, fields)

	_, err = DecodeCategoryFields("boat", json.RawMessage(`{}`))
	assert.Error(t, err)

	_, err = DecodeCategoryFields(CategoryTravel, json.RawMessage(`{"maxTripDuration":"long"}`))
	assert.Error(t, err)
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.IsValid(), c)
	}
	assert.False(t, Category("Travel").IsValid())
	assert.False(t, Category("").IsValid())
}
