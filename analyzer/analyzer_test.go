package analyzer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"meal-analyze-service/config"
	"meal-analyze-service/datauri"
	"meal-analyze-service/faults"
	"meal-analyze-service/llm"
)

// fakeClient is a scriptable llm.Client. Nil funcs fail the test if called.
type fakeClient struct {
	t               *testing.T
	completeChat    func(ctx context.Context, req llm.ChatRequest) (string, error)
	transcribe      func(ctx context.Context, req llm.TranscriptionRequest) (string, error)
	chatCalls       []llm.ChatRequest
	transcribeCalls []llm.TranscriptionRequest
}

func (f *fakeClient) CompleteChat(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.chatCalls = append(f.chatCalls, req)
	if f.completeChat == nil {
		f.t.Fatal("unexpected CompleteChat call")
	}
	return f.completeChat(ctx, req)
}

func (f *fakeClient) Transcribe(ctx context.Context, req llm.TranscriptionRequest) (string, error) {
	f.transcribeCalls = append(f.transcribeCalls, req)
	if f.transcribe == nil {
		f.t.Fatal("unexpected Transcribe call")
	}
	return f.transcribe(ctx, req)
}

func (f *fakeClient) SourceName() string { return "Fake" }

func testConfig() *config.Config {
	return &config.Config{
		TextModel:            "gpt-4o-mini",
		VisionModels:         []string{"gpt-4o", "gpt-4o-mini"},
		TranscriptionModel:   "whisper-1",
		Temperature:          0.2,
		MaxTokens:            1000,
		TextTimeout:          5 * time.Second,
		VisionTimeout:        5 * time.Second,
		TranscriptionTimeout: 5 * time.Second,
		VisionAttempts:       1,
		ImageMaxEdge:         1024,
		ImageByteBudget:      200 * 1024,
		ImageQualityStart:    0.7,
		ImageQualityStep:     0.1,
		ImageQualityFloor:    0.15,
		ImageHighResPixels:   5_000_000,
		ImageHighResScaleCap: 0.4,
		MaxUploadBytes:       10 * 1024 * 1024,
	}
}

const eggsAndBaconReply = "```json\n" + `{
  "foods": [
    {"name": "fried egg", "calories": 180, "carbs": 1, "protein": 12, "fat": 14, "fiber": 0, "servingSize": 2, "unit": "unit"},
    {"name": "bacon", "calories": 135, "carbs": 0.5, "protein": 9, "fat": 10.5, "fiber": 0, "servingSize": 3, "unit": "strip"}
  ],
  "totalNutrition": {"calories": 999, "carbs": 999, "protein": 999, "fat": 999, "fiber": 999, "netCarbs": 999}
}` + "\n```"

func photoDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return datauri.Encode("image/jpeg", buf.Bytes())
}

func TestAnalyzeText(t *testing.T) {
	fake := &fakeClient{t: t, completeChat: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return eggsAndBaconReply, nil
	}}
	svc := NewService(testConfig(), fake)

	result, err := svc.AnalyzeText(context.Background(), "2 fried eggs with 3 strips of bacon", "sk-test")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}

	if len(result.Foods) != 2 {
		t.Fatalf("got %d foods, want 2", len(result.Foods))
	}
	if result.Foods[0].Name != "fried egg" || result.Foods[1].Name != "bacon" {
		t.Errorf("foods = %q, %q", result.Foods[0].Name, result.Foods[1].Name)
	}
	// Zero fiber means net carbs track carbs exactly.
	for _, f := range result.Foods {
		if f.NetCarbs != f.Carbs {
			t.Errorf("%s: netCarbs %v != carbs %v with zero fiber", f.Name, f.NetCarbs, f.Carbs)
		}
	}
	// Totals are recomputed from the items; the model's own totals block is
	// never trusted.
	if result.Totals.Calories != 315 {
		t.Errorf("total calories = %v, want 315", result.Totals.Calories)
	}
	if result.Totals.Carbs != 1.5 {
		t.Errorf("total carbs = %v, want 1.5", result.Totals.Carbs)
	}
	if result.Model != "gpt-4o-mini" || result.Provider != "Fake" {
		t.Errorf("model/provider = %q/%q", result.Model, result.Provider)
	}
	if result.Transcript != "" {
		t.Errorf("transcript = %q, want empty for text", result.Transcript)
	}

	if len(fake.chatCalls) != 1 {
		t.Fatalf("got %d chat calls, want 1", len(fake.chatCalls))
	}
	call := fake.chatCalls[0]
	if call.UserText != "2 fried eggs with 3 strips of bacon" {
		t.Errorf("user text = %q", call.UserText)
	}
	if call.Credential != "sk-test" {
		t.Errorf("credential = %q", call.Credential)
	}
}

func TestAnalyzeTextMissingCredential(t *testing.T) {
	fake := &fakeClient{t: t}
	svc := NewService(testConfig(), fake)

	_, err := svc.AnalyzeText(context.Background(), "eggs", "")
	if got := faults.KindOf(err); got != faults.MissingCredential {
		t.Errorf("kind = %v, want %v", got, faults.MissingCredential)
	}
	if len(fake.chatCalls) != 0 {
		t.Errorf("provider called %d times, want 0", len(fake.chatCalls))
	}
}

func TestAnalyzeTextBlankDescription(t *testing.T) {
	fake := &fakeClient{t: t}
	svc := NewService(testConfig(), fake)

	_, err := svc.AnalyzeText(context.Background(), "   \n\t", "sk-test")
	if got := faults.KindOf(err); got != faults.InvalidRequest {
		t.Errorf("kind = %v, want %v", got, faults.InvalidRequest)
	}
}

func TestAnalyzePhoto(t *testing.T) {
	fake := &fakeClient{t: t, completeChat: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		if req.ImageDataURI == "" {
			t.Error("vision call carried no image")
		}
		return eggsAndBaconReply, nil
	}}
	svc := NewService(testConfig(), fake)

	result, err := svc.AnalyzePhoto(context.Background(), photoDataURI(t), "sk-test")
	if err != nil {
		t.Fatalf("AnalyzePhoto: %v", err)
	}
	if result.Model != "gpt-4o" {
		t.Errorf("model = %q, want the first candidate", result.Model)
	}
	if len(fake.chatCalls) != 1 {
		t.Errorf("got %d chat calls, want 1", len(fake.chatCalls))
	}
}

func TestAnalyzePhotoFallback(t *testing.T) {
	fake := &fakeClient{t: t}
	fake.completeChat = func(ctx context.Context, req llm.ChatRequest) (string, error) {
		if req.Model == "gpt-4o" {
			return "", faults.New(faults.RateLimited, "API error (status 429)")
		}
		return eggsAndBaconReply, nil
	}
	svc := NewService(testConfig(), fake)

	result, err := svc.AnalyzePhoto(context.Background(), photoDataURI(t), "sk-test")
	if err != nil {
		t.Fatalf("AnalyzePhoto: %v", err)
	}
	if result.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want the fallback candidate", result.Model)
	}
	if len(fake.chatCalls) != 2 {
		t.Errorf("got %d chat calls, want 2", len(fake.chatCalls))
	}
}

func TestAnalyzePhotoInvalidCredentialShortCircuits(t *testing.T) {
	fake := &fakeClient{t: t, completeChat: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return "", faults.New(faults.InvalidCredential, "API error (status 401)")
	}}
	svc := NewService(testConfig(), fake)

	_, err := svc.AnalyzePhoto(context.Background(), photoDataURI(t), "sk-bad")
	if got := faults.KindOf(err); got != faults.InvalidCredential {
		t.Errorf("kind = %v, want %v", got, faults.InvalidCredential)
	}
	if len(fake.chatCalls) != 1 {
		t.Errorf("got %d chat calls, want 1: a bad credential is bad for every model", len(fake.chatCalls))
	}
}

func TestAnalyzePhotoExhaustsCandidates(t *testing.T) {
	fake := &fakeClient{t: t, completeChat: func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return "", faults.New(faults.ProviderUnavailable, "API error (status 503)")
	}}
	cfg := testConfig()
	cfg.VisionAttempts = 2
	svc := NewService(cfg, fake)

	_, err := svc.AnalyzePhoto(context.Background(), photoDataURI(t), "sk-test")
	if got := faults.KindOf(err); got != faults.ProviderUnavailable {
		t.Errorf("kind = %v, want %v", got, faults.ProviderUnavailable)
	}
	// 2 models x 2 attempts.
	if len(fake.chatCalls) != 4 {
		t.Errorf("got %d chat calls, want 4", len(fake.chatCalls))
	}
}

func TestAnalyzePhotoBadPayload(t *testing.T) {
	fake := &fakeClient{t: t}
	svc := NewService(testConfig(), fake)

	tests := []struct {
		name string
		uri  string
	}{
		{"not a data URI", "http://example.com/meal.jpg"},
		{"not an image", datauri.Encode("image/jpeg", []byte("junk"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AnalyzePhoto(context.Background(), tt.uri, "sk-test")
			if got := faults.KindOf(err); got != faults.ImageLoad {
				t.Errorf("kind = %v, want %v", got, faults.ImageLoad)
			}
		})
	}
	if len(fake.chatCalls) != 0 {
		t.Errorf("provider called %d times, want 0", len(fake.chatCalls))
	}
}

func TestAnalyzeVoice(t *testing.T) {
	fake := &fakeClient{t: t}
	fake.transcribe = func(ctx context.Context, req llm.TranscriptionRequest) (string, error) {
		return "  two eggs and bacon  ", nil
	}
	fake.completeChat = func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return eggsAndBaconReply, nil
	}
	svc := NewService(testConfig(), fake)

	result, err := svc.AnalyzeVoice(context.Background(), datauri.Encode("audio/webm", []byte("audio bytes")), "sk-test")
	if err != nil {
		t.Fatalf("AnalyzeVoice: %v", err)
	}
	if result.Transcript != "two eggs and bacon" {
		t.Errorf("transcript = %q", result.Transcript)
	}

	if len(fake.transcribeCalls) != 1 {
		t.Fatalf("got %d transcribe calls, want 1", len(fake.transcribeCalls))
	}
	tr := fake.transcribeCalls[0]
	if string(tr.Audio) != "audio bytes" || tr.Model != "whisper-1" || tr.Filename != "audio.webm" {
		t.Errorf("transcription request = %+v", tr)
	}
	// The trimmed transcript is what feeds the text pipeline.
	if len(fake.chatCalls) != 1 || fake.chatCalls[0].UserText != "two eggs and bacon" {
		t.Errorf("chat calls = %+v", fake.chatCalls)
	}
}

func TestAnalyzeVoiceBlankTranscript(t *testing.T) {
	fake := &fakeClient{t: t}
	fake.transcribe = func(ctx context.Context, req llm.TranscriptionRequest) (string, error) {
		return "   ", nil
	}
	svc := NewService(testConfig(), fake)

	_, err := svc.AnalyzeVoice(context.Background(), datauri.Encode("audio/webm", []byte("silence")), "sk-test")
	if got := faults.KindOf(err); got != faults.EmptyTranscript {
		t.Errorf("kind = %v, want %v", got, faults.EmptyTranscript)
	}
	if len(fake.chatCalls) != 0 {
		t.Errorf("text analysis ran on a blank transcript")
	}
}

func TestAnalyzeVoiceTranscriptionFailure(t *testing.T) {
	fake := &fakeClient{t: t}
	fake.transcribe = func(ctx context.Context, req llm.TranscriptionRequest) (string, error) {
		return "", faults.New(faults.ProviderUnavailable, "API error (status 500)")
	}
	svc := NewService(testConfig(), fake)

	_, err := svc.AnalyzeVoice(context.Background(), datauri.Encode("audio/mp4", []byte("a")), "sk-test")
	if got := faults.KindOf(err); got != faults.ProviderUnavailable {
		t.Errorf("kind = %v, want %v", got, faults.ProviderUnavailable)
	}
	if len(fake.chatCalls) != 0 {
		t.Errorf("text analysis ran after a transcription failure")
	}
}

func TestAnalyzeVoiceEmptyAudio(t *testing.T) {
	fake := &fakeClient{t: t}
	svc := NewService(testConfig(), fake)

	_, err := svc.AnalyzeVoice(context.Background(), datauri.Encode("audio/webm", nil), "sk-test")
	if got := faults.KindOf(err); got != faults.InvalidRequest {
		t.Errorf("kind = %v, want %v", got, faults.InvalidRequest)
	}
}

func TestAudioFilename(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
	}{
		{"audio/mp4", "audio.m4a"},
		{"audio/x-m4a", "audio.m4a"},
		{"audio/mpeg", "audio.mp3"},
		{"audio/wav", "audio.wav"},
		{"audio/ogg", "audio.ogg"},
		{"audio/webm", "audio.webm"},
		{"", "audio.webm"},
	}
	for _, tt := range tests {
		if got := audioFilename(tt.mediaType); got != tt.want {
			t.Errorf("audioFilename(%q) = %q, want %q", tt.mediaType, got, tt.want)
		}
	}
}
