// Package analyzer asks an external model-analysis capability for print
// recommendations. The capability is an LLM behind an eino chat model;
// any failure is absorbed into a fixed fallback result, so Analyze never
// fails visibly to the caller.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"printforge/internal/config"
	"printforge/internal/models"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ChatModel is the narrow slice of an eino chat model the analyzer needs.
// Tests inject a deterministic fake.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

const defaultAnalyzeTimeout = 30 * time.Second

// Service invokes the analysis capability and normalizes its response.
type Service struct {
	chatModel ChatModel
	timeout   time.Duration
}

// New builds a Service for the configured provider.
func New(ctx context.Context, provider string, cfg *config.Config, timeout time.Duration) (*Service, error) {
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	var (
		chatModel ChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	return NewWithModel(chatModel, timeout), nil
}

// NewWithModel wraps an already-built chat model. Used by tests and by
// callers that manage the model lifecycle themselves.
func NewWithModel(chatModel ChatModel, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultAnalyzeTimeout
	}
	return &Service{chatModel: chatModel, timeout: timeout}
}

const systemPrompt = "You are a 3D printing expert analyzing uploaded model files for a print shop. " +
	"Respond with a single JSON object and nothing else, using exactly these keys: " +
	`"complexity" (Low, Medium or High), "estimated_print_hours" (number), ` +
	`"recommended_material" (PLA, ABS, PETG, TPU or Resin), "support_needed" (boolean), ` +
	`"layer_height_mm" (number), "infill_percent" (integer 0-100), "print_speed_mm_per_sec" (number), ` +
	`"nozzle_temp_c" (number), "bed_temp_c" (number), "notes" (array of short advisory strings), ` +
	`"material_reasoning", "support_reasoning", "quality_notes", "potential_issues", "post_processing" (strings).`

// Analyze asks the capability for a recommendation. It never returns an
// error: on timeout, transport failure or a malformed response the fixed
// fallback result is returned instead.
func (s *Service) Analyze(ctx context.Context, file *models.UploadedFile, specialRequests string) models.AnalysisResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Analyze this 3D model file for printing:\n\nFile name: %s\nFile size: %d bytes\nFormat: %s\n",
		file.Name, file.SizeBytes, file.Extension)
	if strings.TrimSpace(specialRequests) != "" {
		userPrompt += fmt.Sprintf("\nCustomer notes: %s\n", specialRequests)
	}

	resp, err := s.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: userPrompt},
	})
	if err != nil {
		log.Printf("model analysis failed for %s, using fallback: %v", file.Name, err)
		return Fallback()
	}

	result, err := parseAnalysis(resp.Content)
	if err != nil {
		log.Printf("model analysis response rejected for %s, using fallback: %v", file.Name, err)
		return Fallback()
	}
	return result
}

// parseAnalysis decodes the capability's response and checks every field
// is in range. Out-of-range values count as a parse failure so the caller
// falls back rather than pricing nonsense.
func parseAnalysis(content string) (models.AnalysisResult, error) {
	var result models.AnalysisResult
	payload := strings.TrimSpace(stripCodeFence(content))
	if payload == "" {
		return result, errors.New("empty response")
	}
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("decode analysis: %w", err)
	}
	if err := validate(result); err != nil {
		return models.AnalysisResult{}, err
	}
	return result, nil
}

func validate(r models.AnalysisResult) error {
	switch r.Complexity {
	case models.ComplexityLow, models.ComplexityMedium, models.ComplexityHigh:
	default:
		return fmt.Errorf("unknown complexity %q", r.Complexity)
	}
	switch r.RecommendedMaterial {
	case models.MaterialPLA, models.MaterialABS, models.MaterialPETG, models.MaterialTPU, models.MaterialResin:
	default:
		return fmt.Errorf("unknown material %q", r.RecommendedMaterial)
	}
	if r.EstimatedPrintHours <= 0 {
		return fmt.Errorf("estimated_print_hours out of range: %v", r.EstimatedPrintHours)
	}
	if r.LayerHeightMm <= 0 {
		return fmt.Errorf("layer_height_mm out of range: %v", r.LayerHeightMm)
	}
	if r.InfillPercent < 0 || r.InfillPercent > 100 {
		return fmt.Errorf("infill_percent out of range: %d", r.InfillPercent)
	}
	if r.PrintSpeedMmPerSec <= 0 {
		return fmt.Errorf("print_speed_mm_per_sec out of range: %v", r.PrintSpeedMmPerSec)
	}
	if r.NozzleTempC <= 0 {
		return fmt.Errorf("nozzle_temp_c out of range: %v", r.NozzleTempC)
	}
	if r.BedTempC < 0 {
		return fmt.Errorf("bed_temp_c out of range: %v", r.BedTempC)
	}
	return nil
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its JSON in one.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}
