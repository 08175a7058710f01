// Package pricing derives a price breakdown from an analysis result.
// Everything here is pure; validation of the analysis is the analyzer's job.
package pricing

import (
	"math"

	"printforge/internal/models"
)

const (
	basePrice   = 15.0
	supportCost = 10.0

	// One working day covers roughly eight print-hours, plus a buffer day.
	printHoursPerDay = 8.0
	bufferDays       = 1
)

var complexityMultipliers = map[models.Complexity]float64{
	models.ComplexityLow:    1.0,
	models.ComplexityMedium: 1.3,
	models.ComplexityHigh:   1.6,
}

const defaultComplexityMultiplier = 1.2

var materialCosts = map[models.Material]float64{
	models.MaterialPLA:   5,
	models.MaterialABS:   8,
	models.MaterialPETG:  6,
	models.MaterialTPU:   12,
	models.MaterialResin: 15,
}

const defaultMaterialCost = 5.0

// Price maps an analysis result to a price breakdown and delivery estimate.
func Price(analysis models.AnalysisResult) models.PriceBreakdown {
	multiplier, ok := complexityMultipliers[analysis.Complexity]
	if !ok {
		multiplier = defaultComplexityMultiplier
	}
	materialCost, ok := materialCosts[analysis.RecommendedMaterial]
	if !ok {
		materialCost = defaultMaterialCost
	}
	support := 0.0
	if analysis.SupportNeeded {
		support = supportCost
	}

	return models.PriceBreakdown{
		BasePrice:             basePrice,
		MaterialCost:          materialCost,
		SupportCost:           support,
		ComplexityMultiplier:  multiplier,
		TotalPrice:            Round2((basePrice + materialCost + support) * multiplier),
		EstimatedDeliveryDays: deliveryDays(analysis.EstimatedPrintHours),
	}
}

func deliveryDays(printHours float64) int {
	days := int(math.Ceil(printHours/printHoursPerDay)) + bufferDays
	if days < 1 {
		return 1
	}
	return days
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
