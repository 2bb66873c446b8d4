package service

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/basel-ax/genrelay/internal/config"
	"github.com/basel-ax/genrelay/internal/domain"
	"github.com/basel-ax/genrelay/internal/repository"
	"github.com/basel-ax/genrelay/internal/requestid"
)

const (
	// DefaultImagePrompt is used when an image upload arrives without a prompt
	DefaultImagePrompt = "Generate an image based on the provided input."
	// DocumentInstruction precedes every document sent to the model
	DocumentInstruction = "Analyze this document"
	// ImageMIMEType labels every uploaded image regardless of its actual encoding
	ImageMIMEType = "image/png"
)

// Endpoints as recorded in the request ledger
const (
	EndpointText     = "/generate"
	EndpointImage    = "/generate-image"
	EndpointDocument = "/generate-from-document"
	EndpointAudio    = "/generate-from-audio"
)

const ledgerWriteTimeout = 5 * time.Second

// GenerationService turns relay requests into model calls
type GenerationService struct {
	generator domain.Generator
	requests  repository.RequestRepository
	timeout   time.Duration
}

// NewGenerationService creates a new generation service
func NewGenerationService(cfg *config.Config, generator domain.Generator, requests repository.RequestRepository) *GenerationService {
	if requests == nil {
		requests = repository.NopRequestRepository{}
	}
	return &GenerationService{
		generator: generator,
		requests:  requests,
		timeout:   cfg.GenerationTimeout,
	}
}

// GenerateText sends a bare prompt
func (s *GenerationService) GenerateText(ctx context.Context, prompt string) (*domain.GenerationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrPromptRequired
	}
	return s.generate(ctx, EndpointText, "", 0, domain.TextPart(prompt))
}

// GenerateFromImage sends the prompt followed by the image. Only an empty prompt
// is replaced by DefaultImagePrompt; whitespace is forwarded as given.
func (s *GenerationService) GenerateFromImage(ctx context.Context, prompt string, image []byte) (*domain.GenerationResult, error) {
	if prompt == "" {
		prompt = DefaultImagePrompt
	}
	return s.generate(ctx, EndpointImage, ImageMIMEType, int64(len(image)),
		domain.TextPart(prompt),
		domain.BlobPart(image, ImageMIMEType),
	)
}

// GenerateFromDocument sends the fixed analysis instruction followed by the document
func (s *GenerationService) GenerateFromDocument(ctx context.Context, document []byte, mimeType string) (*domain.GenerationResult, error) {
	return s.generate(ctx, EndpointDocument, mimeType, int64(len(document)),
		domain.TextPart(DocumentInstruction),
		domain.BlobPart(document, mimeType),
	)
}

// GenerateFromAudio sends the audio alone, without instruction text
func (s *GenerationService) GenerateFromAudio(ctx context.Context, audio []byte, mimeType string) (*domain.GenerationResult, error) {
	return s.generate(ctx, EndpointAudio, mimeType, int64(len(audio)),
		domain.BlobPart(audio, mimeType),
	)
}

func (s *GenerationService) generate(ctx context.Context, endpoint, mimeType string, size int64, parts ...domain.Part) (*domain.GenerationResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, err := s.generator.Generate(callCtx, parts)
	latency := time.Since(start)

	rec := domain.RequestRecord{
		RequestID:   requestid.FromContext(ctx),
		Endpoint:    endpoint,
		MIMEType:    mimeType,
		UploadBytes: size,
		Status:      domain.RequestStatusOK,
		Latency:     latency,
		CreatedAt:   start,
	}
	if err != nil {
		rec.Status = domain.RequestStatusError
		rec.Error = err.Error()
	}
	s.record(ctx, rec)

	// The model's own message is what the client sees in the 500 body.
	if err != nil {
		return nil, err
	}
	return res, nil
}

// record writes to the ledger; failures are logged and never reach the caller.
func (s *GenerationService) record(ctx context.Context, rec domain.RequestRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()

	if err := s.requests.Record(ctx, rec); err != nil {
		log.WithField("request_id", rec.RequestID).Warnf("error recording generation request: %v", err)
	}
}
