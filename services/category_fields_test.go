package services

import (
	"testing"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"

	"github.com/stretchr/testify/assert"
)

func TestExtractCategoryFields_Travel(t *testing.T) {
	fields := ExtractCategoryFields(models.CategoryTravel, record(map[string]string{
		"destinations":       "Peru, Chile",
		"coversMedical":      "true",
		"coversBaggage":      "FALSE",
		"coversCancellation": "yes",
		"maxTripDuration":    "30",
	}))

	assert.Equal(t, models.TravelFields{
		Destinations:       []string{"Peru", "Chile"},
		CoversMedical:      true,
		CoversBaggage:      false,
		CoversCancellation: true,
		MaxTripDuration:    30,
	}, fields)
	assert.Equal(t, models.CategoryTravel, fields.Category())
}

func TestExtractCategoryFields_Auto(t *testing.T) {
	fields := ExtractCategoryFields(models.CategoryAuto, record(map[string]string{
		"vehicleTypes":       "car,motorcycle",
		"comprehensive":      "1",
		"roadsideAssistance": "no",
	}))

	assert.Equal(t, models.AutoFields{
		VehicleTypes:  []string{"car", "motorcycle"},
		Comprehensive: true,
	}, fields)
}

func TestExtractCategoryFields_Pet(t *testing.T) {
	fields := ExtractCategoryFields(models.CategoryPet, record(map[string]string{
		"petTypes":      "dog",
		"coversIllness": "True",
	}))

	assert.Equal(t, models.PetFields{
		PetTypes:      []string{"dog"},
		CoversIllness: true,
	}, fields)
}

func TestExtractCategoryFields_Health(t *testing.T) {
	fields := ExtractCategoryFields(models.CategoryHealth, record(map[string]string{
		"coversPreventive": "true",
		"coversSpecialist": "true",
	}))

	assert.Equal(t, models.HealthFields{
		CoversPreventive: true,
		CoversSpecialist: true,
	}, fields)
}

func TestExtractCategoryFields_MissingFieldsDefault(t *testing.T) {
	fields := ExtractCategoryFields(models.CategoryTravel, record(map[string]string{}))

	travel, ok := fields.(models.TravelFields)
	if assert.True(t, ok) {
		assert.NotNil(t, travel.Destinations)
		assert.Empty(t, travel.Destinations)
		assert.False(t, travel.CoversMedical)
		assert.Zero(t, travel.MaxTripDuration)
	}
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 14, parseInt("14"))
	assert.Equal(t, 14, parseInt("14.0"))
	assert.Equal(t, 0, parseInt("-3"))
	assert.Equal(t, 0, parseInt("two weeks"))
}
