package analyzer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"printforge/internal/models"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeChatModel struct {
	content string
	err     error
	delay   time.Duration
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.content}, nil
}

const validResponse = `{
	"complexity": "High",
	"estimated_print_hours": 8,
	"recommended_material": "ABS",
	"support_needed": true,
	"layer_height_mm": 0.15,
	"infill_percent": 40,
	"print_speed_mm_per_sec": 50,
	"nozzle_temp_c": 240,
	"bed_temp_c": 100,
	"notes": ["Overhangs need support", "Use an enclosure for ABS"],
	"material_reasoning": "ABS handles mechanical stress",
	"support_reasoning": "Steep overhangs detected",
	"quality_notes": "Fine detail benefits from 0.15mm layers",
	"potential_issues": "Warping risk without a heated bed",
	"post_processing": "Acetone smoothing optional"
}`

func testFile() *models.UploadedFile {
	return &models.UploadedFile{Name: "gear.stl", SizeBytes: 2_400_000, Extension: "stl"}
}

func TestAnalyzeParsesValidResponse(t *testing.T) {
	svc := NewWithModel(&fakeChatModel{content: validResponse}, time.Second)
	got := svc.Analyze(context.Background(), testFile(), "high precision please")

	if got.Complexity != models.ComplexityHigh {
		t.Fatalf("complexity = %q, want High", got.Complexity)
	}
	if got.RecommendedMaterial != models.MaterialABS {
		t.Fatalf("material = %q, want ABS", got.RecommendedMaterial)
	}
	if !got.SupportNeeded {
		t.Fatalf("expected support needed")
	}
	if got.EstimatedPrintHours != 8 {
		t.Fatalf("hours = %v, want 8", got.EstimatedPrintHours)
	}
	if len(got.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(got.Notes))
	}
}

func TestAnalyzeAcceptsFencedJSON(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	svc := NewWithModel(&fakeChatModel{content: fenced}, time.Second)
	got := svc.Analyze(context.Background(), testFile(), "")
	if got.Complexity != models.ComplexityHigh {
		t.Fatalf("fenced response not parsed, got %+v", got)
	}
}

func TestAnalyzeFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		model ChatModel
	}{
		{"capability error", &fakeChatModel{err: errors.New("connection refused")}},
		{"malformed json", &fakeChatModel{content: "I think this model looks printable."}},
		{"empty response", &fakeChatModel{content: ""}},
		{"negative print hours", &fakeChatModel{content: `{"complexity":"Low","estimated_print_hours":-3,"recommended_material":"PLA","layer_height_mm":0.2,"infill_percent":20,"print_speed_mm_per_sec":60,"nozzle_temp_c":200,"bed_temp_c":60}`}},
		{"infill out of range", &fakeChatModel{content: `{"complexity":"Low","estimated_print_hours":2,"recommended_material":"PLA","layer_height_mm":0.2,"infill_percent":150,"print_speed_mm_per_sec":60,"nozzle_temp_c":200,"bed_temp_c":60}`}},
		{"unknown material", &fakeChatModel{content: `{"complexity":"Low","estimated_print_hours":2,"recommended_material":"Wood","layer_height_mm":0.2,"infill_percent":20,"print_speed_mm_per_sec":60,"nozzle_temp_c":200,"bed_temp_c":60}`}},
		{"timeout", &fakeChatModel{content: validResponse, delay: 500 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeout := time.Second
			if tt.name == "timeout" {
				timeout = 20 * time.Millisecond
			}
			svc := NewWithModel(tt.model, timeout)
			got := svc.Analyze(context.Background(), testFile(), "")
			if !reflect.DeepEqual(got, Fallback()) {
				t.Fatalf("expected fallback result, got %+v", got)
			}
		})
	}
}

func TestFallbackIsConstant(t *testing.T) {
	first := Fallback()
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(Fallback(), first) {
			t.Fatalf("fallback result changed between invocations")
		}
	}
	if first.Complexity != models.ComplexityMedium || first.RecommendedMaterial != models.MaterialPLA {
		t.Fatalf("unexpected fallback defaults: %+v", first)
	}
	if first.SupportNeeded {
		t.Fatalf("fallback must not require support")
	}
	if len(first.Notes) != 3 {
		t.Fatalf("expected 3 advisory notes, got %d", len(first.Notes))
	}

	// Mutating a returned value must not leak into later calls.
	first.Notes[0] = "mutated"
	if Fallback().Notes[0] == "mutated" {
		t.Fatalf("fallback notes alias a shared slice")
	}
}
