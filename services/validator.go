package services

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/parser"

	"github.com/go-playground/validator/v10"
)

// planInput is a raw record after type coercion, before it becomes a Plan.
type planInput struct {
	PlanID         string   `json:"planId"`
	Name           string   `json:"name" validate:"required,min=2"`
	Category       string   `json:"category" validate:"required,oneof=travel auto pet health"`
	BasePrice      *float64 `json:"basePrice" validate:"required,gt=0"`
	CoverageAmount *float64 `json:"coverageAmount" validate:"required,gt=0"`
	Provider       string   `json:"provider"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	Rating         *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Badge          string   `json:"badge"`
}

// RecordValidator checks single upload rows against the plan schema.
type RecordValidator struct {
	validate *validator.Validate
}

func NewRecordValidator() *RecordValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RecordValidator{validate: v}
}

// Validate coerces and validates rec. It returns the plan and a nil slice on
// success, or the list of "field: message" errors when the row is invalid.
// The returned plan carries no category fields, plan id default or company.
func (rv *RecordValidator) Validate(rec parser.Record) (models.Plan, []string) {
	in, errs, unparsed := coerce(rec)

	if err := rv.validate.Struct(&in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.Plan{}, []string{"Unexpected validation error"}
		}
		for _, fe := range verrs {
			if unparsed[fe.Field()] {
				continue
			}
			errs = append(errs, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
		}
	}
	if len(errs) > 0 {
		return models.Plan{}, errs
	}

	return models.Plan{
		PlanID:         in.PlanID,
		Name:           in.Name,
		Category:       models.Category(in.Category),
		BasePrice:      *in.BasePrice,
		CoverageAmount: *in.CoverageAmount,
		Provider:       in.Provider,
		Description:    in.Description,
		Features:       in.Features,
		Rating:         in.Rating,
		Badge:          in.Badge,
	}, nil
}

// coerce converts the text fields of a row into typed values. Numbers that
// do not parse are reported here and listed in unparsed so the struct
// validator does not report them a second time.
func coerce(rec parser.Record) (planInput, []string, map[string]bool) {
	var errs []string
	unparsed := make(map[string]bool)
	in := planInput{
		PlanID:      rec.Get("planId"),
		Name:        rec.Get("name"),
		Category:    rec.Get("category"),
		Provider:    rec.Get("provider"),
		Description: rec.Get("description"),
		Features:    splitList(rec.Get("features")),
		Badge:       rec.Get("badge"),
	}

	numeric := []struct {
		column string
		dst    **float64
	}{
		{"basePrice", &in.BasePrice},
		{"coverageAmount", &in.CoverageAmount},
		{"rating", &in.Rating},
	}
	for _, n := range numeric {
		raw := rec.Get(n.column)
		if raw == "" {
			continue
		}
		v, err := parseNumber(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: expected number, received %q", n.column, raw))
			unparsed[n.column] = true
			continue
		}
		*n.dst = &v
	}
	return in, errs, unparsed
}

// parseNumber accepts plain decimals only. Grouped or comma-decimal values
// such as "1.500,50" are rejected rather than guessed at.
func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return "must be a positive number"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
