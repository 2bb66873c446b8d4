package server

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/basel-ax/genrelay/internal/domain"
	"github.com/basel-ax/genrelay/internal/upload"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	// A body that does not bind is treated like one without a prompt.
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeClientError(c, "Request body is too large")
			return
		}
	}

	res, err := s.gen.GenerateText(c.Request.Context(), req.Prompt)
	if errors.Is(err, domain.ErrPromptRequired) {
		writeClientError(c, "Prompt is required")
		return
	}
	if err != nil {
		writeFailure(c, err, "Failed to generate content")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "output": res.Output})
}

func (s *Server) handleGenerateImage(c *gin.Context) {
	up, ok := s.receiveUpload(c, "image", "Image")
	if !ok {
		return
	}
	defer up.Release()

	data, err := up.ReadAll()
	if err != nil {
		writeFailure(c, err, "Failed to generate image")
		return
	}

	res, err := s.gen.GenerateFromImage(c.Request.Context(), c.PostForm("prompt"), data)
	if err != nil {
		writeFailure(c, err, "Failed to generate image")
		return
	}

	var image any
	if res.Image != nil {
		image = base64.StdEncoding.EncodeToString(res.Image.Data)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "output": res.Output, "image": image})
}

func (s *Server) handleGenerateFromDocument(c *gin.Context) {
	up, ok := s.receiveUpload(c, "document", "Document")
	if !ok {
		return
	}
	defer up.Release()

	data, err := up.ReadAll()
	if err != nil {
		writeFailure(c, err, "Failed to analyze document")
		return
	}

	res, err := s.gen.GenerateFromDocument(c.Request.Context(), data, up.MIMEType)
	if err != nil {
		writeFailure(c, err, "Failed to analyze document")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "output": res.Output})
}

func (s *Server) handleGenerateFromAudio(c *gin.Context) {
	up, ok := s.receiveUpload(c, "audio", "Audio")
	if !ok {
		return
	}
	defer up.Release()

	data, err := up.ReadAll()
	if err != nil {
		writeFailure(c, err, "Failed to process audio")
		return
	}

	res, err := s.gen.GenerateFromAudio(c.Request.Context(), data, up.MIMEType)
	if err != nil {
		writeFailure(c, err, "Failed to process audio")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "output": res.Output})
}

// receiveUpload stores the multipart file in field. On false the response has
// already been written; on true the caller owns the upload and must release it.
func (s *Server) receiveUpload(c *gin.Context, field, label string) (*upload.Upload, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeClientError(c, label+" file is too large")
			return nil, false
		}
		writeClientError(c, label+" file is required")
		return nil, false
	}

	up, err := s.uploads.Save(fh)
	if errors.Is(err, domain.ErrFileTooLarge) {
		writeClientError(c, label+" file is too large")
		return nil, false
	}
	if err != nil {
		writeFailure(c, err, "Failed to store upload")
		return nil, false
	}

	s.metrics.ObserveUpload(c.FullPath(), up.Size)
	return up, true
}

func writeClientError(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func writeFailure(c *gin.Context, err error, fallback string) {
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	logEntry(c).Errorf("%s: %v", c.FullPath(), err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": msg})
}
