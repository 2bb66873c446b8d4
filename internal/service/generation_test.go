package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/genrelay/internal/config"
	"github.com/basel-ax/genrelay/internal/domain"
	"github.com/basel-ax/genrelay/internal/requestid"
)

type fakeGenerator struct {
	parts    []domain.Part
	calls    int
	deadline bool
	result   *domain.GenerationResult
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, parts []domain.Part) (*domain.GenerationResult, error) {
	f.calls++
	f.parts = parts
	_, f.deadline = ctx.Deadline()
	return f.result, f.err
}

type fakeLedger struct {
	records []domain.RequestRecord
	err     error
}

func (f *fakeLedger) Record(_ context.Context, rec domain.RequestRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func newService(gen domain.Generator, ledger *fakeLedger) *GenerationService {
	cfg := &config.Config{GenerationTimeout: time.Minute}
	if ledger == nil {
		return NewGenerationService(cfg, gen, nil)
	}
	return NewGenerationService(cfg, gen, ledger)
}

func TestGenerateTextRequiresPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newService(gen, nil)

	for _, prompt := range []string{"", "   "} {
		_, err := svc.GenerateText(context.Background(), prompt)
		assert.ErrorIs(t, err, domain.ErrPromptRequired)
	}
	assert.Zero(t, gen.calls)
}

func TestGenerateTextSendsSinglePart(t *testing.T) {
	gen := &fakeGenerator{result: &domain.GenerationResult{Output: "hi"}}
	svc := newService(gen, nil)

	res, err := svc.GenerateText(context.Background(), "Say hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Output)
	assert.Equal(t, []domain.Part{domain.TextPart("Say hi")}, gen.parts)
	assert.True(t, gen.deadline, "model call must run under a deadline")
}

func TestGenerateFromImageDefaultsPrompt(t *testing.T) {
	gen := &fakeGenerator{result: &domain.GenerationResult{Output: "a cat"}}
	svc := newService(gen, nil)

	png := []byte{0x89, 'P', 'N', 'G'}
	_, err := svc.GenerateFromImage(context.Background(), "", png)
	require.NoError(t, err)
	assert.Equal(t, []domain.Part{
		domain.TextPart(DefaultImagePrompt),
		domain.BlobPart(png, "image/png"),
	}, gen.parts)

	_, err = svc.GenerateFromImage(context.Background(), "describe it", png)
	require.NoError(t, err)
	assert.Equal(t, "describe it", gen.parts[0].Text)
}

func TestGenerateFromImageForwardsWhitespacePrompt(t *testing.T) {
	gen := &fakeGenerator{result: &domain.GenerationResult{Output: "a cat"}}
	svc := newService(gen, nil)

	_, err := svc.GenerateFromImage(context.Background(), "   ", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.Len(t, gen.parts, 2)
	assert.Equal(t, "   ", gen.parts[0].Text)
}

func TestGenerateFromDocumentPrependsInstruction(t *testing.T) {
	gen := &fakeGenerator{result: &domain.GenerationResult{Output: "summary"}}
	svc := newService(gen, nil)

	_, err := svc.GenerateFromDocument(context.Background(), []byte("doc"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, []domain.Part{
		domain.TextPart("Analyze this document"),
		domain.BlobPart([]byte("doc"), "application/pdf"),
	}, gen.parts)
}

func TestGenerateFromAudioSendsAudioOnly(t *testing.T) {
	gen := &fakeGenerator{result: &domain.GenerationResult{Output: "transcript"}}
	svc := newService(gen, nil)

	_, err := svc.GenerateFromAudio(context.Background(), []byte("RIFF"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, []domain.Part{domain.BlobPart([]byte("RIFF"), "audio/wav")}, gen.parts)
}

func TestGenerateReturnsModelErrorAndCallsOnce(t *testing.T) {
	cause := errors.New("upstream unavailable")
	gen := &fakeGenerator{err: cause}
	svc := newService(gen, nil)

	_, err := svc.GenerateText(context.Background(), "x")
	require.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "upstream unavailable")
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateRecordsLedgerEntry(t *testing.T) {
	ledger := &fakeLedger{}
	gen := &fakeGenerator{result: &domain.GenerationResult{Output: "ok"}}
	svc := newService(gen, ledger)

	ctx := requestid.WithContext(context.Background(), "rid-1")
	_, err := svc.GenerateFromAudio(ctx, []byte("abc"), "audio/ogg")
	require.NoError(t, err)

	gen.err = errors.New("boom")
	_, err = svc.GenerateText(ctx, "again")
	require.Error(t, err)

	require.Len(t, ledger.records, 2)
	first := ledger.records[0]
	assert.Equal(t, "rid-1", first.RequestID)
	assert.Equal(t, EndpointAudio, first.Endpoint)
	assert.Equal(t, "audio/ogg", first.MIMEType)
	assert.EqualValues(t, 3, first.UploadBytes)
	assert.Equal(t, domain.RequestStatusOK, first.Status)
	assert.Empty(t, first.Error)

	second := ledger.records[1]
	assert.Equal(t, EndpointText, second.Endpoint)
	assert.Equal(t, domain.RequestStatusError, second.Status)
	assert.Equal(t, "boom", second.Error)
}

func TestLedgerFailureDoesNotFailGeneration(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("db down")}
	gen := &fakeGenerator{result: &domain.GenerationResult{Output: "fine"}}
	svc := newService(gen, ledger)

	res, err := svc.GenerateText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "fine", res.Output)
	assert.Len(t, ledger.records, 1)
}
