package llm

import "context"

// ChatRequest describes one chat-completion call. The credential is supplied
// per call by the orchestrator; implementations never cache it.
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserText     string
	// ImageDataURI, when set, makes the user content multimodal: a text
	// instruction plus an image_url part carrying this data URI.
	ImageDataURI string
	Temperature  float64
	MaxTokens    int
	Credential   string
}

// TranscriptionRequest describes one audio transcription call.
type TranscriptionRequest struct {
	Audio      []byte
	Filename   string
	Model      string
	Language   string
	Credential string
}

// Client abstracts an inference provider. Implementations must be
// concurrency-safe, must honor ctx deadlines, and must not retry on their
// own: retry and fallback policy belongs to the analyzer.
type Client interface {
	// CompleteChat returns the raw text content of the first choice.
	CompleteChat(ctx context.Context, req ChatRequest) (string, error)
	// Transcribe returns the raw transcript text.
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
	// SourceName returns a short provider label for logs and results.
	SourceName() string
}
