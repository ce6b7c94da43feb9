package workflows

type NoteGenerateInput struct {
	JobID                string `json:"job_id"`
	UserID               string `json:"user_id"`
	LectureTitle         string `json:"lecture_title"`
	CourseSubject        string `json:"course_subject,omitempty"`
	InputType            string `json:"input_type"` // "audio" or "pdf"
	SourcePath           string `json:"source_path"`
	ReportedDurationMins int    `json:"reported_duration_minutes,omitempty"`
}

// BestEffort records which non-critical steps actually landed, so the caller
// is never told plain "success" while secondary writes silently failed.
type BestEffort struct {
	MarkdownUploaded   bool `json:"markdown_uploaded"`
	TranscriptUploaded bool `json:"transcript_uploaded"`
	NoteSaved          bool `json:"note_saved"`
	JobCompleted       bool `json:"job_completed"`
}

type NoteGenerateResult struct {
	JobID            string     `json:"job_id"`
	PDFPath          string     `json:"pdf_path"`
	MDPath           string     `json:"md_path,omitempty"`
	TXTPath          string     `json:"txt_path,omitempty"`
	DurationMins     int        `json:"duration_minutes"`
	Language         string     `json:"language,omitempty"`
	BestEffort       BestEffort `json:"best_effort"`
	ProcessingTimeMS int64      `json:"processing_time_ms"`
}

type GenerateStatus struct {
	JobID       string            `json:"job_id"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Steps       map[string]string `json:"steps"`
}

type RegeneratePDFInput struct {
	UserID string `json:"user_id"`
	JobID  string `json:"job_id"`
}

type RegeneratePDFResult struct {
	JobID   string `json:"job_id"`
	PDFPath string `json:"pdf_path"`
}
