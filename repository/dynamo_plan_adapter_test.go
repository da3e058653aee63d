package repository

import (
	"testing"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDDBPlan_RoundTrip(t *testing.T) {
	rating := 4.2
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	plans := []models.Plan{
		{
			PlanID: "plan_1", Name: "Trip", Category: models.CategoryTravel,
			BasePrice: 20, CoverageAmount: 50000, Provider: "Sura", Rating: &rating,
			Features: []string{"24/7"}, CompanyID: 4, CreatedAt: created,
			CategoryFields: models.TravelFields{Destinations: []string{"Peru"}, CoversMedical: true, MaxTripDuration: 30},
		},
		{
			PlanID: "plan_2", Name: "Car", Category: models.CategoryAuto, CompanyID: 4, CreatedAt: created,
			CategoryFields: models.AutoFields{VehicleTypes: []string{"car"}, Comprehensive: true},
		},
		{
			PlanID: "plan_3", Name: "Dog", Category: models.CategoryPet, CompanyID: 5, CreatedAt: created,
			CategoryFields: models.PetFields{PetTypes: []string{"dog"}},
		},
		{
			PlanID: "plan_4", Name: "Care", Category: models.CategoryHealth, Badge: "Popular", CompanyID: 5, CreatedAt: created,
			CategoryFields: models.HealthFields{CoversEmergency: true},
		},
	}

	for _, p := range plans {
		t.Run(string(p.Category), func(t *testing.T) {
			item, err := attributevalue.MarshalMap(toDDBPlan(p))
			require.NoError(t, err)
			assert.Equal(t, &types.AttributeValueMemberS{Value: p.PlanID}, item["plan_id"])
			assert.Equal(t, &types.AttributeValueMemberS{Value: planKey(p.CompanyID, p.PlanID)}, item["pk"])
			_, hasProvider := item["provider"]
			assert.Equal(t, p.Provider != "", hasProvider)

			var dp ddbPlan
			require.NoError(t, attributevalue.UnmarshalMap(item, &dp))
			assert.Equal(t, p, fromDDBPlan(dp))
		})
	}
}

func TestPlanKey_IsScopedByCompany(t *testing.T) {
	assert.Equal(t, "4#plan_1", planKey(4, "plan_1"))

	mine, err := attributevalue.MarshalMap(toDDBPlan(models.Plan{PlanID: "X", CompanyID: 4}))
	require.NoError(t, err)
	theirs, err := attributevalue.MarshalMap(toDDBPlan(models.Plan{PlanID: "X", CompanyID: 5}))
	require.NoError(t, err)
	assert.NotEqual(t, mine["pk"], theirs["pk"])
	assert.Equal(t, mine["plan_id"], theirs["plan_id"])
}

func TestListCacheKey(t *testing.T) {
	key := listCacheKey(3, PlanFilter{Category: models.CategoryPet, CompanyID: 9, Limit: 50})
	assert.Equal(t, "plans:v:3:c:pet:co:9:l:50", key)

	assert.NotEqual(t,
		listCacheKey(3, PlanFilter{Limit: 50}),
		listCacheKey(4, PlanFilter{Limit: 50}),
	)
}
