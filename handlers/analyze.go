package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"meal-analyze-service/datauri"
	"meal-analyze-service/faults"
	"meal-analyze-service/metrics"
)

type analyzeTextRequest struct {
	Description string `json:"description"`
}

type analyzePhotoRequest struct {
	Image string `json:"image"`
}

type analyzeVoiceRequest struct {
	Audio string `json:"audio"`
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(faults.KindOf(err))
}

// AnalyzeText runs the text modality pipeline.
func (h *Handlers) AnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Description) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A meal description is required."})
		return
	}

	start := time.Now()
	result, err := h.analyzer.AnalyzeText(c.Request.Context(), req.Description, h.credential(c))
	h.observe("text", start, err)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AnalyzePhoto runs the photo modality pipeline. The image arrives either as
// a JSON data URI or as a multipart "image" file.
func (h *Handlers) AnalyzePhoto(c *gin.Context) {
	imageURI, ok := h.imagePayload(c)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.analyzer.AnalyzePhoto(c.Request.Context(), imageURI, h.credential(c))
	h.observe("photo", start, err)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AnalyzeVoice runs the voice modality pipeline. The clip arrives either as
// a JSON data URI or as a multipart "audio" file.
func (h *Handlers) AnalyzeVoice(c *gin.Context) {
	audioURI, ok := h.audioPayload(c)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.analyzer.AnalyzeVoice(c.Request.Context(), audioURI, h.credential(c))
	h.observe("voice", start, err)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) observe(modality string, start time.Time, err error) {
	metrics.AnalysisDurationSeconds.WithLabelValues(modality).Observe(time.Since(start).Seconds())
	metrics.AnalysesTotal.WithLabelValues(modality, resultLabel(err)).Inc()
}

// imagePayload extracts the photo as a data URI from either request form.
// Multipart filenames are kept relevant by folding the extension into the
// declared media type, which is how HEIC uploads get routed to conversion.
func (h *Handlers) imagePayload(c *gin.Context) (string, bool) {
	if file, err := c.FormFile("image"); err == nil {
		data, ok := h.readUpload(c, file)
		if !ok {
			return "", false
		}
		return datauri.Encode(mediaTypeFor(file, data), data), true
	}

	var req analyzePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image is required, as a data URI or multipart file."})
		return "", false
	}
	return req.Image, true
}

// audioPayload extracts the voice clip as a data URI from either request form.
func (h *Handlers) audioPayload(c *gin.Context) (string, bool) {
	if file, err := c.FormFile("audio"); err == nil {
		data, ok := h.readUpload(c, file)
		if !ok {
			return "", false
		}
		mediaType := file.Header.Get("Content-Type")
		if mediaType == "" {
			mediaType = "audio/webm"
		}
		return datauri.Encode(mediaType, data), true
	}

	var req analyzeVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Audio == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An audio clip is required, as a data URI or multipart file."})
		return "", false
	}
	return req.Audio, true
}

// readUpload reads a multipart file fully, enforcing the upload ceiling
// before any processing.
func (h *Handlers) readUpload(c *gin.Context, file *multipart.FileHeader) ([]byte, bool) {
	if h.cfg.MaxUploadBytes > 0 && file.Size > h.cfg.MaxUploadBytes {
		writeFailure(c, faults.New(faults.ImageLoad, "upload of %d bytes exceeds the %d byte ceiling", file.Size, h.cfg.MaxUploadBytes))
		return nil, false
	}
	f, err := file.Open()
	if err != nil {
		writeFailure(c, faults.Wrap(faults.ImageLoad, err, "failed to open upload"))
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeFailure(c, faults.Wrap(faults.ImageLoad, err, "failed to read upload"))
		return nil, false
	}
	return data, true
}

// mediaTypeFor resolves an upload's media type, preferring the declared
// header and falling back to the file extension. HEIC must be identified
// here; content sniffing does not recognize it.
func mediaTypeFor(file *multipart.FileHeader, data []byte) string {
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return http.DetectContentType(data)
	}
}
