package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/apex/log"

	"meal-analyze-service/faults"
	"meal-analyze-service/llm"
)

const (
	chatEndpoint          = "https://api.openai.com/v1/chat/completions"
	transcriptionEndpoint = "https://api.openai.com/v1/audio/transcriptions"
)

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}

// Client is a thin OpenAI API client. It performs exactly one HTTP call per
// logical call, maps transport and status outcomes onto the failure taxonomy,
// and leaves retrying to the caller.
type Client struct {
	client           *http.Client
	chatURL          string
	transcriptionURL string
}

// NewClient creates a new OpenAI client against the production endpoints.
func NewClient() *Client {
	return &Client{
		client:           &http.Client{},
		chatURL:          chatEndpoint,
		transcriptionURL: transcriptionEndpoint,
	}
}

// NewClientWithEndpoints creates a client against custom endpoints. Used by
// tests to point at a local server.
func NewClientWithEndpoints(httpClient *http.Client, chatURL, transcriptionURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{client: httpClient, chatURL: chatURL, transcriptionURL: transcriptionURL}
}

// SourceName identifies this provider in results and logs.
func (c *Client) SourceName() string {
	return "OpenAI"
}

// CompleteChat sends a chat-completion request and returns the raw text
// content of the first choice.
func (c *Client) CompleteChat(ctx context.Context, req llm.ChatRequest) (string, error) {
	if req.Credential == "" {
		return "", faults.New(faults.MissingCredential, "no API credential supplied")
	}

	var userContent any = req.UserText
	if req.ImageDataURI != "" {
		userContent = []any{
			TextContent{Type: "text", Text: req.UserText},
			ImageContent{Type: "image_url", ImageURL: ImageURL{URL: req.ImageDataURI}},
		}
	}

	reqBody := ChatRequest{
		Model: req.Model,
		Messages: []Message{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", faults.Wrap(faults.InvalidRequest, err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", faults.Wrap(faults.InvalidRequest, err, "failed to create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(httpReq)
	if err != nil {
		return "", err
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", faults.Wrap(faults.MalformedResponse, err, "failed to parse completion response")
	}
	if len(chatResp.Choices) == 0 {
		return "", faults.New(faults.MalformedResponse, "no choices in completion response")
	}

	content := chatResp.Choices[0].Message.Content
	if contentStr, ok := content.(string); ok {
		return contentStr, nil
	}
	// Some responses carry structured content; flatten it back to JSON text.
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", faults.Wrap(faults.MalformedResponse, err, "failed to flatten completion content")
	}
	return string(contentJSON), nil
}

// Transcribe sends audio to the transcription endpoint and returns the raw
// transcript text.
func (c *Client) Transcribe(ctx context.Context, req llm.TranscriptionRequest) (string, error) {
	if req.Credential == "" {
		return "", faults.New(faults.MissingCredential, "no API credential supplied")
	}

	filename := req.Filename
	if filename == "" {
		filename = "audio.webm"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", faults.Wrap(faults.InvalidRequest, err, "failed to build multipart body")
	}
	if _, err := part.Write(req.Audio); err != nil {
		return "", faults.Wrap(faults.InvalidRequest, err, "failed to write audio payload")
	}
	_ = writer.WriteField("model", req.Model)
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	_ = writer.WriteField("response_format", "json")
	if err := writer.Close(); err != nil {
		return "", faults.Wrap(faults.InvalidRequest, err, "failed to finalize multipart body")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.transcriptionURL, &buf)
	if err != nil {
		return "", faults.Wrap(faults.InvalidRequest, err, "failed to create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(httpReq)
	if err != nil {
		return "", err
	}

	var transcription TranscriptionResponse
	if err := json.Unmarshal(body, &transcription); err != nil {
		return "", faults.Wrap(faults.MalformedResponse, err, "failed to parse transcription response")
	}
	return transcription.Text, nil
}

// do executes the request and maps transport errors and non-2xx statuses to
// the failure taxonomy. Raw provider bodies go to the log, never upward.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, faults.Wrap(faults.RequestTimeout, err, "request deadline exceeded")
		}
		return nil, faults.Wrap(faults.ProviderUnavailable, err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Wrap(faults.ProviderUnavailable, err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Errorf("OpenAI API error: %s", truncate(string(body), 500))
		return nil, faults.New(classifyStatus(resp.StatusCode), "API error (status %d)", resp.StatusCode)
	}
	return body, nil
}

func classifyStatus(status int) faults.Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return faults.InvalidCredential
	case status == http.StatusTooManyRequests:
		return faults.RateLimited
	case status == http.StatusBadRequest:
		return faults.InvalidRequest
	default:
		return faults.ProviderUnavailable
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes total)", strings.TrimSpace(s[:max]), len(s))
}
