package providers

import "context"

type TranscribeRequest struct {
	AudioURL string `json:"audio_url"`
}

type TranscribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type NotesRequest struct {
	Transcript string `json:"transcript"`
	Title      string `json:"title"`
	Subject    string `json:"subject,omitempty"`
	Language   string `json:"language,omitempty"`
	Format     string `json:"format"`
}

// NotesResponse is the fixed cornell-notes structure the generator returns:
// markdown body plus optional cue and summary extractions.
type NotesResponse struct {
	Markdown string `json:"markdown"`
	Cues     string `json:"cues,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

type RenderRequest struct {
	HTML      string `json:"html"`
	Title     string `json:"title,omitempty"`
	Bookmarks bool   `json:"bookmarks"`
}

type Transcriber interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, error)
}

type NoteGenerator interface {
	GenerateNotes(ctx context.Context, req NotesRequest) (NotesResponse, error)
}

type PDFRenderer interface {
	RenderPDF(ctx context.Context, req RenderRequest) ([]byte, error)
}

// NotesFormatCornell is the only format directive the pipeline sends.
const NotesFormatCornell = "cornell-notes"
