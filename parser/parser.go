package parser

import (
	"encoding/json"
	"strings"

	"meal-analyze-service/faults"
)

// RawAnalysis is the untyped shape of a model reply. Items stay as generic
// maps on purpose: model output is untrusted and every field goes through the
// nutrition normalizer before use.
type RawAnalysis struct {
	Foods  []map[string]any `json:"foods"`
	Totals map[string]any   `json:"totalNutrition"`
}

// ExtractJSONFromMarkdown strips markdown code fences (with or without a
// language tag) and falls back to the first-brace-to-last-brace region when
// no fence is present.
func ExtractJSONFromMarkdown(response string) string {
	const marker = "```"

	startIdx := strings.Index(response, marker)
	if startIdx == -1 {
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	endIdx := strings.Index(response[startIdx+len(marker):], marker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(marker)

	content := response[startIdx+len(marker) : endIdx]

	// Drop a language identifier like "json" on the fence's first line.
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		if first == "" || !strings.ContainsAny(first, "{}[]") {
			content = strings.Join(lines[1:], "\n")
		}
	}

	return strings.TrimSpace(content)
}

// jsonRegion locates the greedy object region, first "{" through last "}",
// but only when the region mentions the foods key. Models add prose around
// the object despite instructions; the region cut tolerates it.
func jsonRegion(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	region := s[start : end+1]
	if !strings.Contains(region, `"foods"`) {
		return "", false
	}
	return region, true
}

// ExtractAnalysis parses a model's free-form reply into the raw foods
// structure. The model is treated as an untrusted, best-effort text producer:
// fences and surrounding commentary are tolerated, but the located region
// must parse as JSON and must carry a non-empty foods list.
func ExtractAnalysis(response string) (*RawAnalysis, error) {
	cleaned := ExtractJSONFromMarkdown(strings.TrimSpace(response))

	region, ok := jsonRegion(cleaned)
	if !ok {
		return nil, faults.New(faults.MalformedResponse, "no JSON object with a foods key in model reply")
	}

	var result RawAnalysis
	if err := json.Unmarshal([]byte(region), &result); err != nil {
		return nil, faults.Wrap(faults.MalformedResponse, err, "failed to parse model reply as JSON")
	}
	if result.Foods == nil {
		return nil, faults.New(faults.MalformedResponse, "model reply is missing the foods list")
	}
	if len(result.Foods) == 0 {
		return nil, faults.New(faults.NoItemsDetected, "model reply contains an empty foods list")
	}
	return &result, nil
}
