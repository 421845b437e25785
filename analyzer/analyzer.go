package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/apex/log"

	"meal-analyze-service/config"
	"meal-analyze-service/datauri"
	"meal-analyze-service/faults"
	"meal-analyze-service/imageproc"
	"meal-analyze-service/llm"
	"meal-analyze-service/metrics"
	"meal-analyze-service/models"
	"meal-analyze-service/nutrition"
	"meal-analyze-service/parser"
)

// Service sequences the analysis pipeline per modality. It holds no
// per-request state: credential and payload are arguments on every call, so
// concurrent invocations need no coordination.
type Service struct {
	cfg *config.Config
	llm llm.Client
}

// NewService creates a new analysis service over the given provider client.
func NewService(cfg *config.Config, client llm.Client) *Service {
	return &Service{cfg: cfg, llm: client}
}

// AnalyzeText runs the text pipeline: one completion call, then extraction
// and normalization. Any failure is terminal; there is no retry here.
func (s *Service) AnalyzeText(ctx context.Context, description, credential string) (*models.AnalysisResult, error) {
	if credential == "" {
		return nil, faults.New(faults.MissingCredential, "no API credential configured")
	}
	if strings.TrimSpace(description) == "" {
		return nil, faults.New(faults.InvalidRequest, "empty meal description")
	}

	raw, err := s.completeWithTimeout(ctx, s.cfg.TextTimeout, llm.ChatRequest{
		Model:        s.cfg.TextModel,
		SystemPrompt: textSystemPrompt,
		UserText:     description,
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
		Credential:   credential,
	})
	if err != nil {
		return nil, err
	}
	return s.buildResult(raw, s.cfg.TextModel, "")
}

// AnalyzePhoto runs the photo pipeline: image normalization, then a vision
// completion with model fallback, then extraction and normalization.
//
// The fallback is a flat iteration over (model, attempt) pairs. Transient
// failure classes move on to the next pair; InvalidCredential short-circuits
// immediately because the credential is not model-specific. The last observed
// error is carried into the final failure when every candidate is exhausted.
func (s *Service) AnalyzePhoto(ctx context.Context, imageDataURI, credential string) (*models.AnalysisResult, error) {
	if credential == "" {
		return nil, faults.New(faults.MissingCredential, "no API credential configured")
	}

	mediaType, data, err := datauri.Parse(imageDataURI)
	if err != nil {
		return nil, faults.Wrap(faults.ImageLoad, err, "invalid image payload")
	}
	metrics.ImageInputBytes.Observe(float64(len(data)))

	normalized, err := imageproc.Normalize(data, mediaType, "", s.imageOptions())
	if err != nil {
		return nil, err
	}
	metrics.ImageOutputBytes.Observe(float64(normalized.Bytes))
	if normalized.AtFloor {
		metrics.QualityFloorTotal.Inc()
	}

	var lastErr error
	for _, model := range s.cfg.VisionModels {
		for attempt := 1; attempt <= s.cfg.VisionAttempts; attempt++ {
			if lastErr != nil {
				metrics.VisionFallbackTotal.Inc()
			}
			raw, err := s.completeWithTimeout(ctx, s.cfg.VisionTimeout, llm.ChatRequest{
				Model:        model,
				SystemPrompt: visionSystemPrompt,
				UserText:     visionUserInstruction,
				ImageDataURI: normalized.DataURI,
				Temperature:  s.cfg.Temperature,
				MaxTokens:    s.cfg.MaxTokens,
				Credential:   credential,
			})
			if err == nil {
				return s.buildResult(raw, model, "")
			}
			kind := faults.KindOf(err)
			log.WithError(err).Warnf("Vision analysis with %s failed (attempt %d/%d)", model, attempt, s.cfg.VisionAttempts)
			if !faults.Retryable(kind) {
				return nil, err
			}
			lastErr = err
		}
	}
	if lastErr == nil {
		return nil, faults.New(faults.ProviderUnavailable, "no vision models configured")
	}
	return nil, faults.Wrap(faults.KindOf(lastErr), lastErr, "all vision candidates exhausted")
}

// AnalyzeVoice runs the voice pipeline: transcription, then the text
// pipeline over the transcript. A transcription failure is terminal without
// attempting text analysis; a blank transcript is its own soft failure,
// distinct from transport errors.
func (s *Service) AnalyzeVoice(ctx context.Context, audioDataURI, credential string) (*models.AnalysisResult, error) {
	if credential == "" {
		return nil, faults.New(faults.MissingCredential, "no API credential configured")
	}

	mediaType, audio, err := datauri.Parse(audioDataURI)
	if err != nil {
		return nil, faults.Wrap(faults.InvalidRequest, err, "invalid audio payload")
	}
	if len(audio) == 0 {
		return nil, faults.New(faults.InvalidRequest, "empty audio payload")
	}

	tctx, cancel := context.WithTimeout(ctx, s.cfg.TranscriptionTimeout)
	defer cancel()
	transcript, err := s.llm.Transcribe(tctx, llm.TranscriptionRequest{
		Audio:      audio,
		Filename:   audioFilename(mediaType),
		Model:      s.cfg.TranscriptionModel,
		Language:   s.cfg.TranscriptionLanguage,
		Credential: credential,
	})
	if err != nil {
		return nil, err
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, faults.New(faults.EmptyTranscript, "transcription returned no text")
	}
	log.Debugf("Voice transcript: %s", transcript)

	raw, err := s.completeWithTimeout(ctx, s.cfg.TextTimeout, llm.ChatRequest{
		Model:        s.cfg.TextModel,
		SystemPrompt: textSystemPrompt,
		UserText:     transcript,
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
		Credential:   credential,
	})
	if err != nil {
		return nil, err
	}
	return s.buildResult(raw, s.cfg.TextModel, transcript)
}

// completeWithTimeout wraps one completion call in its own deadline. Expiry
// aborts only this call.
func (s *Service) completeWithTimeout(ctx context.Context, timeout time.Duration, req llm.ChatRequest) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.llm.CompleteChat(cctx, req)
}

// buildResult extracts, normalizes, and totals a model reply.
func (s *Service) buildResult(raw, model, transcript string) (*models.AnalysisResult, error) {
	parsed, err := parser.ExtractAnalysis(raw)
	if err != nil {
		return nil, err
	}
	items := nutrition.NormalizeItems(parsed.Foods)
	return &models.AnalysisResult{
		Foods:      items,
		Totals:     nutrition.Totals(items),
		Model:      model,
		Provider:   s.llm.SourceName(),
		Transcript: transcript,
	}, nil
}

func (s *Service) imageOptions() imageproc.Options {
	return imageproc.Options{
		MaxEdge:         s.cfg.ImageMaxEdge,
		ByteBudget:      s.cfg.ImageByteBudget,
		QualityStart:    s.cfg.ImageQualityStart,
		QualityStep:     s.cfg.ImageQualityStep,
		QualityFloor:    s.cfg.ImageQualityFloor,
		HighResPixels:   s.cfg.ImageHighResPixels,
		HighResScaleCap: s.cfg.ImageHighResScaleCap,
		MaxUploadBytes:  s.cfg.MaxUploadBytes,
	}
}

// audioFilename picks a filename whose extension matches the declared media
// type; the transcription endpoint sniffs the container from it.
func audioFilename(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "audio.m4a"
	case "audio/mpeg", "audio/mp3":
		return "audio.mp3"
	case "audio/wav", "audio/x-wav":
		return "audio.wav"
	case "audio/ogg":
		return "audio.ogg"
	default:
		return "audio.webm"
	}
}
