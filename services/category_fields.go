package services

import (
	"strconv"
	"strings"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/parser"
)

// ExtractCategoryFields builds the category-specific part of a plan from a
// row. Absent columns fall back to empty lists, false and zero.
func ExtractCategoryFields(category models.Category, rec parser.Record) models.CategoryFields {
	switch category {
	case models.CategoryTravel:
		return models.TravelFields{
			Destinations:       splitList(rec.Get("destinations")),
			CoversMedical:      parseFlag(rec.Get("coversMedical")),
			CoversBaggage:      parseFlag(rec.Get("coversBaggage")),
			CoversCancellation: parseFlag(rec.Get("coversCancellation")),
			MaxTripDuration:    parseInt(rec.Get("maxTripDuration")),
		}
	case models.CategoryAuto:
		return models.AutoFields{
			VehicleTypes:       splitList(rec.Get("vehicleTypes")),
			Comprehensive:      parseFlag(rec.Get("comprehensive")),
			RoadsideAssistance: parseFlag(rec.Get("roadsideAssistance")),
		}
	case models.CategoryPet:
		return models.PetFields{
			PetTypes:       splitList(rec.Get("petTypes")),
			CoversIllness:  parseFlag(rec.Get("coversIllness")),
			CoversAccident: parseFlag(rec.Get("coversAccident")),
		}
	default:
		return models.HealthFields{
			CoversPreventive: parseFlag(rec.Get("coversPreventive")),
			CoversEmergency:  parseFlag(rec.Get("coversEmergency")),
			CoversSpecialist: parseFlag(rec.Get("coversSpecialist")),
		}
	}
}

// splitList turns "a, b,,c" into [a b c]. It never returns nil.
func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

func parseInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}
