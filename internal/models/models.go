package models

import "time"

type JobStatus string

const (
	JobUploading  JobStatus = "uploading"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// CanTransition reports whether a job may move from one status to another.
// Transitions are forward-only; completed and failed are terminal.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case JobUploading:
		return to == JobProcessing || to == JobFailed
	case JobProcessing:
		return to == JobCompleted || to == JobFailed
	default:
		return false
	}
}

// AllowedStatusUpdate gates status writes. Re-invoking generation for an
// existing job flips it back to processing from any state, so that write is
// always permitted; every other write must follow CanTransition.
func AllowedStatusUpdate(from, to JobStatus) bool {
	if to == JobProcessing {
		return true
	}
	return CanTransition(from, to)
}

type Job struct {
	JobID         string     `json:"job_id"`
	UserID        string     `json:"user_id"`
	LectureTitle  string     `json:"lecture_title"`
	CourseSubject string     `json:"course_subject,omitempty"`
	StudyNodeID   *string    `json:"study_node_id,omitempty"`
	Status        JobStatus  `json:"status"`
	InputType     string     `json:"input_type"` // "audio" or "pdf"
	AudioPath     string     `json:"audio_path,omitempty"`
	SourcePDFPath string     `json:"source_pdf_path,omitempty"`
	OutputPDFPath string     `json:"output_pdf_path,omitempty"`
	MDFilePath    string     `json:"md_file_path,omitempty"`
	TXTFilePath   string     `json:"txt_file_path,omitempty"`
	DurationMins  int        `json:"duration_minutes,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type Note struct {
	NoteID     string    `json:"note_id"`
	JobID      string    `json:"job_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Transcript string    `json:"transcript,omitempty"`
	Cues       string    `json:"cues,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StudyNodeType string

const (
	NodeCourse   StudyNodeType = "course"
	NodeYear     StudyNodeType = "year"
	NodeSubject  StudyNodeType = "subject"
	NodeSemester StudyNodeType = "semester"
	NodeCustom   StudyNodeType = "custom"
)

func ValidNodeType(t StudyNodeType) bool {
	switch t {
	case NodeCourse, NodeYear, NodeSubject, NodeSemester, NodeCustom:
		return true
	}
	return false
}

type StudyNode struct {
	NodeID      string        `json:"node_id"`
	UserID      string        `json:"user_id"`
	ParentID    *string       `json:"parent_id,omitempty"`
	Name        string        `json:"name"`
	NodeType    StudyNodeType `json:"node_type"`
	Description string        `json:"description,omitempty"`
	Color       string        `json:"color,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	Pinned      bool          `json:"pinned"`
	SortOrder   int           `json:"sort_order"`
	NoteCount   int           `json:"note_count,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Notification struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Kind           string    `json:"kind"`
	Read           bool      `json:"read"`
	LinkJobID      *string   `json:"link_job_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Subscription struct {
	UserID             string     `json:"user_id"`
	Tier               string     `json:"tier"`
	StripeCustomerID   string     `json:"stripe_customer_id,omitempty"`
	StripeSubID        string     `json:"stripe_subscription_id,omitempty"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
