package providers

import (
	"context"
	"strings"
)

// MockProviders back local development and the worker's mock mode: everything
// is deterministic and offline.
type MockProviders struct{}

func NewMockProviders() *MockProviders {
	return &MockProviders{}
}

func (m *MockProviders) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, error) {
	_ = ctx
	return TranscribeResponse{
		Text:     "Deterministic mock transcript for " + req.AudioURL + ".",
		Language: "en",
	}, nil
}

func (m *MockProviders) GenerateNotes(ctx context.Context, req NotesRequest) (NotesResponse, error) {
	_ = ctx
	b := strings.Builder{}
	b.WriteString("# " + req.Title + "\n\n")
	b.WriteString("## Cues\n- What is the main topic?\n\n")
	b.WriteString("## Notes\nDeterministic mock notes generated from the transcript.\n\n")
	b.WriteString("## Summary\nMock summary of the lecture.\n")
	return NotesResponse{
		Markdown: b.String(),
		Cues:     "- What is the main topic?",
		Summary:  "Mock summary of the lecture.",
	}, nil
}

func (m *MockProviders) RenderPDF(ctx context.Context, req RenderRequest) ([]byte, error) {
	_ = ctx
	// Minimal valid-enough PDF header so downstream storage behaves.
	return []byte("%PDF-1.4\n% mock render of " + req.Title + "\n%%EOF\n"), nil
}
