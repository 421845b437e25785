package parser

import (
	"testing"

	"meal-analyze-service/faults"
)

func TestExtractAnalysis(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantErr   bool
		wantKind  faults.Kind
		wantFoods int
	}{
		{
			name:      "plain JSON",
			response:  `{"foods":[{"name":"egg","calories":90,"carbs":0.5,"protein":6,"fat":7,"fiber":0,"servingSize":1,"unit":"unit"}]}`,
			wantFoods: 1,
		},
		{
			name: "fenced JSON with language tag and surrounding prose",
			response: "Here you go:\n```json\n" +
				`{"foods":[{"name":"egg","calories":90,"carbs":0.5,"protein":6,"fat":7,"fiber":0,"servingSize":1,"unit":"unit"}]}` +
				"\n```\nEnjoy!",
			wantFoods: 1,
		},
		{
			name: "fenced JSON without language tag",
			response: "```\n" +
				`{"foods":[{"name":"bacon"},{"name":"egg"}]}` +
				"\n```",
			wantFoods: 2,
		},
		{
			name:      "prose around bare JSON object",
			response:  `Sure! Based on the photo: {"foods":[{"name":"steak","calories":400}]} Let me know if you need more.`,
			wantFoods: 1,
		},
		{
			name:     "empty foods list",
			response: `{"foods":[]}`,
			wantErr:  true,
			wantKind: faults.NoItemsDetected,
		},
		{
			name:     "missing foods key",
			response: `{"items":[{"name":"egg"}]}`,
			wantErr:  true,
			wantKind: faults.MalformedResponse,
		},
		{
			name:     "foods is not a list",
			response: `{"foods":"two eggs"}`,
			wantErr:  true,
			wantKind: faults.MalformedResponse,
		},
		{
			name:     "truncated JSON",
			response: `{"foods":[{"name":"egg"`,
			wantErr:  true,
			wantKind: faults.MalformedResponse,
		},
		{
			name:     "no JSON at all",
			response: "I could not identify any food in this image.",
			wantErr:  true,
			wantKind: faults.MalformedResponse,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
			wantKind: faults.MalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExtractAnalysis(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractAnalysis() expected error, got %+v", result)
				}
				if kind := faults.KindOf(err); kind != tt.wantKind {
					t.Errorf("ExtractAnalysis() error kind = %s, want %s", kind, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractAnalysis() unexpected error: %v", err)
			}
			if len(result.Foods) != tt.wantFoods {
				t.Errorf("ExtractAnalysis() foods = %d, want %d", len(result.Foods), tt.wantFoods)
			}
		})
	}
}

func TestExtractAnalysisPreservesContent(t *testing.T) {
	response := "Here you go:\n```json\n" +
		`{"foods":[{"name":"egg","calories":90,"carbs":0.5,"protein":6,"fat":7,"fiber":0,"servingSize":1,"unit":"unit"}]}` +
		"\n```\nEnjoy!"

	result, err := ExtractAnalysis(response)
	if err != nil {
		t.Fatalf("ExtractAnalysis() unexpected error: %v", err)
	}
	food := result.Foods[0]
	if food["name"] != "egg" {
		t.Errorf("name = %v, want egg", food["name"])
	}
	if food["calories"] != float64(90) {
		t.Errorf("calories = %v, want 90", food["calories"])
	}
	if food["carbs"] != 0.5 {
		t.Errorf("carbs = %v, want 0.5", food["carbs"])
	}
	if food["unit"] != "unit" {
		t.Errorf("unit = %v, want unit", food["unit"])
	}
}

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "no fence passes through region",
			response: `{"foods":[]}`,
			want:     `{"foods":[]}`,
		},
		{
			name:     "fence with json tag",
			response: "```json\n{\"foods\":[]}\n```",
			want:     `{"foods":[]}`,
		},
		{
			name:     "fence without tag",
			response: "```\n{\"foods\":[]}\n```",
			want:     `{"foods":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONFromMarkdown(tt.response); got != tt.want {
				t.Errorf("ExtractJSONFromMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}
