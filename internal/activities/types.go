package activities

type SignSourceURLInput struct {
	Path string `json:"path"`
}

type SignSourceURLOutput struct {
	URL string `json:"url"`
}

type TranscribeInput struct {
	AudioURL string `json:"audio_url"`
}

type TranscribeOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type ExtractPDFTextInput struct {
	Path string `json:"path"`
}

type ExtractPDFTextOutput struct {
	Text string `json:"text"`
}

type GenerateNotesInput struct {
	Transcript string `json:"transcript"`
	Title      string `json:"title"`
	Subject    string `json:"subject,omitempty"`
	Language   string `json:"language,omitempty"`
}

type GenerateNotesOutput struct {
	Markdown string `json:"markdown"`
	Cues     string `json:"cues,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

type RenderPDFInput struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

type RenderPDFOutput struct {
	PDF []byte `json:"pdf"`
}

type UploadArtifactInput struct {
	Key  string `json:"key"`
	Data []byte `json:"data"`
}

type SaveNoteInput struct {
	JobID      string `json:"job_id"`
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
	Markdown   string `json:"markdown"`
	Cues       string `json:"cues,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

type SaveNoteOutput struct {
	NoteID string `json:"note_id"`
}

type UpdateJobStatusInput struct {
	UserID       string `json:"user_id"`
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type CompleteJobInput struct {
	UserID       string `json:"user_id"`
	JobID        string `json:"job_id"`
	PDFPath      string `json:"pdf_path"`
	MDPath       string `json:"md_path,omitempty"`
	TXTPath      string `json:"txt_path,omitempty"`
	DurationMins int    `json:"duration_minutes"`
}

type GetNoteContentInput struct {
	UserID string `json:"user_id"`
	JobID  string `json:"job_id"`
}

type GetNoteContentOutput struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

type UpdateOutputPDFInput struct {
	UserID  string `json:"user_id"`
	JobID   string `json:"job_id"`
	PDFPath string `json:"pdf_path"`
}

type NotifyInput struct {
	UserID  string `json:"user_id"`
	JobID   string `json:"job_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}
