package analyzer

import "printforge/internal/models"

// Fallback returns the fixed analysis used whenever the capability is
// unreachable or its response cannot be trusted. The value is a pure
// constant so quotes stay deterministic when the service degrades.
func Fallback() models.AnalysisResult {
	return models.AnalysisResult{
		Complexity:          models.ComplexityMedium,
		EstimatedPrintHours: 4,
		RecommendedMaterial: models.MaterialPLA,
		SupportNeeded:       false,
		LayerHeightMm:       0.2,
		InfillPercent:       20,
		PrintSpeedMmPerSec:  60,
		NozzleTempC:         200,
		BedTempC:            60,
		Notes: []string{
			"Standard print settings applied",
			"Consider 20% infill for a good strength-to-weight balance",
			"0.2mm layer height offers a reasonable detail/speed trade-off",
		},
		MaterialReasoning: "PLA selected as the default material because the analysis service was unavailable",
		SupportReasoning:  "Support requirements could not be assessed; printed without supports by default",
		QualityNotes:      "Automated analysis was unavailable; settings reflect shop defaults",
		PotentialIssues:   "Model was not inspected; verify overhangs and wall thickness manually",
		PostProcessing:    "Standard cleanup; no special post-processing planned",
	}
}
