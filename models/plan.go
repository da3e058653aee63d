package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category is one of the insurance product lines a plan belongs to.
type Category string

const (
	CategoryTravel Category = "travel"
	CategoryAuto   Category = "auto"
	CategoryPet    Category = "pet"
	CategoryHealth Category = "health"
)

// Categories lists every supported category in display order.
var Categories = []Category{CategoryTravel, CategoryAuto, CategoryPet, CategoryHealth}

// IsValid reports whether c is a supported category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTravel, CategoryAuto, CategoryPet, CategoryHealth:
		return true
	}
	return false
}

// Plan is an insurance plan that passed row validation.
type Plan struct {
	PlanID         string         `json:"planId"`
	Name           string         `json:"name"`
	Category       Category       `json:"category"`
	BasePrice      float64        `json:"basePrice"`
	CoverageAmount float64        `json:"coverageAmount"`
	Provider       string         `json:"provider,omitempty"`
	Description    string         `json:"description,omitempty"`
	Features       []string       `json:"features,omitempty"`
	Rating         *float64       `json:"rating,omitempty"`
	Badge          string         `json:"badge,omitempty"`
	CompanyID      int64          `json:"companyId"`
	CategoryFields CategoryFields `json:"categoryFields"`
	CreatedAt      time.Time      `json:"createdAt,omitzero"`
}

// CategoryFields holds the category-specific attributes of a plan.
// Exactly one implementation exists per Category.
type CategoryFields interface {
	Category() Category
}

type TravelFields struct {
	Destinations       []string `json:"destinations"`
	CoversMedical      bool     `json:"coversMedical"`
	CoversBaggage      bool     `json:"coversBaggage"`
	CoversCancellation bool     `json:"coversCancellation"`
	MaxTripDuration    int      `json:"maxTripDuration"`
}

func (TravelFields) Category() Category { return CategoryTravel }

type AutoFields struct {
	VehicleTypes       []string `json:"vehicleTypes"`
	Comprehensive      bool     `json:"comprehensive"`
	RoadsideAssistance bool     `json:"roadsideAssistance"`
}

func (AutoFields) Category() Category { return CategoryAuto }

type PetFields struct {
	PetTypes       []string `json:"petTypes"`
	CoversIllness  bool     `json:"coversIllness"`
	CoversAccident bool     `json:"coversAccident"`
}

func (PetFields) Category() Category { return CategoryPet }

type HealthFields struct {
	CoversPreventive bool `json:"coversPreventive"`
	CoversEmergency  bool `json:"coversEmergency"`
	CoversSpecialist bool `json:"coversSpecialist"`
}

func (HealthFields) Category() Category { return CategoryHealth }

// UnmarshalJSON decodes categoryFields into the variant named by category.
func (p *Plan) UnmarshalJSON(data []byte) error {
	type alias Plan
	aux := struct {
		*alias
		CategoryFields json.RawMessage `json:"categoryFields"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	fields, err := DecodeCategoryFields(p.Category, aux.CategoryFields)
	if err != nil {
		return err
	}
	p.CategoryFields = fields
	return nil
}

// DecodeCategoryFields decodes raw JSON into the variant for category.
// Empty input yields nil.
func DecodeCategoryFields(category Category, raw json.RawMessage) (CategoryFields, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var (
		fields CategoryFields
		err    error
	)
	switch category {
	case CategoryTravel:
		var f TravelFields
		err = json.Unmarshal(raw, &f)
		fields = f
	case CategoryAuto:
		var f AutoFields
		err = json.Unmarshal(raw, &f)
		fields = f
	case CategoryPet:
		var f PetFields
		err = json.Unmarshal(raw, &f)
		fields = f
	case CategoryHealth:
		var f HealthFields
		err = json.Unmarshal(raw, &f)
		fields = f
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s fields: %w", category, err)
	}
	return fields, nil
}
