package domain

import (
	"context"
	"errors"
)

var (
	// ErrPromptRequired is returned when a text generation request carries no prompt
	ErrPromptRequired = errors.New("prompt is required")
	// ErrFileTooLarge is returned when an upload exceeds the configured size limit
	ErrFileTooLarge = errors.New("file is too large")
)

// Part is a single unit of model input: either text or MIME-tagged bytes
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextPart builds a text-only part
func TextPart(text string) Part {
	return Part{Text: text}
}

// BlobPart builds a binary part tagged with its MIME type
func BlobPart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// IsBlob reports whether the part carries binary data
func (p Part) IsBlob() bool {
	return p.Data != nil
}

// InlineImage is an image the model returned alongside its text
type InlineImage struct {
	Data     []byte
	MIMEType string
}

// GenerationResult represents the output of one model call
type GenerationResult struct {
	Output string
	Image  *InlineImage
}

// Generator defines the external generative model operation
type Generator interface {
	// Generate sends the parts as one user turn and returns the model output
	Generate(ctx context.Context, parts []Part) (*GenerationResult, error)
}
