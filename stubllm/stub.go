package stubllm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"meal-analyze-service/llm"
)

// Client is a deterministic, no-network provider intended for CI and local
// end-to-end runs. It returns schema-valid foods JSON so extraction,
// normalization, and persistence exercise the full pipeline.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

// CompleteChat fabricates a stable foods reply keyed off the input, so
// repeated runs with the same payload produce identical results.
func (c *Client) CompleteChat(_ context.Context, req llm.ChatRequest) (string, error) {
	seed := req.UserText + req.ImageDataURI
	sum := sha256.Sum256([]byte(seed))
	n := binary.BigEndian.Uint32(sum[:4])

	foods := []map[string]any{
		{
			"name":        fmt.Sprintf("Stub food %x", sum[:4]),
			"calories":    float64(100 + n%400),
			"carbs":       float64(n % 30),
			"protein":     float64(5 + n%40),
			"fat":         float64(2 + n%35),
			"fiber":       float64(n % 8),
			"servingSize": 100,
			"unit":        "g",
		},
	}
	out := map[string]any{"foods": foods}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Transcribe returns a canned transcript derived from the audio payload.
func (c *Client) Transcribe(_ context.Context, req llm.TranscriptionRequest) (string, error) {
	if len(req.Audio) == 0 {
		return "", nil
	}
	sum := sha256.Sum256(req.Audio)
	return strings.TrimSpace(fmt.Sprintf("stub transcript %x", sum[:4])), nil
}
