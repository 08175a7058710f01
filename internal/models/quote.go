package models

// UploadedFile describes one uploaded 3D model. It lives for a single
// quote request and is not persisted.
type UploadedFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Extension string `json:"extension"` // stl, obj or 3mf, lowercase without dot
}

// Complexity buckets produced by the model analysis.
type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

// Material names the filament or resin the analysis recommends.
type Material string

const (
	MaterialPLA   Material = "PLA"
	MaterialABS   Material = "ABS"
	MaterialPETG  Material = "PETG"
	MaterialTPU   Material = "TPU"
	MaterialResin Material = "Resin"
)

// AnalysisResult holds the print-settings recommendation for one model.
// It is produced once per quote and never mutated afterwards.
type AnalysisResult struct {
	Complexity          Complexity `json:"complexity"`
	EstimatedPrintHours float64    `json:"estimated_print_hours"`
	RecommendedMaterial Material   `json:"recommended_material"`
	SupportNeeded       bool       `json:"support_needed"`
	LayerHeightMm       float64    `json:"layer_height_mm"`
	InfillPercent       int        `json:"infill_percent"`
	PrintSpeedMmPerSec  float64    `json:"print_speed_mm_per_sec"`
	NozzleTempC         float64    `json:"nozzle_temp_c"`
	BedTempC            float64    `json:"bed_temp_c"`
	Notes               []string   `json:"notes"`
	MaterialReasoning   string     `json:"material_reasoning"`
	SupportReasoning    string     `json:"support_reasoning"`
	QualityNotes        string     `json:"quality_notes"`
	PotentialIssues     string     `json:"potential_issues"`
	PostProcessing      string     `json:"post_processing"`
}

// PriceBreakdown is derived deterministically from an AnalysisResult.
type PriceBreakdown struct {
	BasePrice             float64 `json:"base_price"`
	MaterialCost          float64 `json:"material_cost"`
	SupportCost           float64 `json:"support_cost"`
	ComplexityMultiplier  float64 `json:"complexity_multiplier"`
	TotalPrice            float64 `json:"total_price"`
	EstimatedDeliveryDays int     `json:"estimated_delivery_days"`
}

// Quote is the full response for one analyzed upload.
type Quote struct {
	Analysis AnalysisResult `json:"analysis"`
	Pricing  PriceBreakdown `json:"pricing"`
	FileName string         `json:"file_name"`
	FileSize int64          `json:"file_size"`
}
