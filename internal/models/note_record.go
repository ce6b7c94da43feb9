package models

import (
	"encoding/json"
	"strings"
	"time"
)

// RawNoteRecord carries a note row as stored, across both schema generations.
// The original schema kept generated text in notes_column with an embedded
// JSON blob for structure; the newer schema has dedicated content, cues and
// summary columns. Repos scan into this and call Canonical once.
type RawNoteRecord struct {
	NoteID      string
	JobID       string
	UserID      string
	Title       string
	Content     string // new schema
	Cues        string // new schema
	Summary     string // new schema
	NotesColumn string // old schema
	Transcript  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// legacyNotesBlob is the JSON layout some old notes_column rows used.
type legacyNotesBlob struct {
	Notes   string `json:"notes"`
	Cues    string `json:"cues"`
	Summary string `json:"summary"`
}

// Canonical maps a raw row to the single in-memory Note shape. New-schema
// columns win when present; otherwise notes_column is parsed, first as the
// legacy JSON blob, then as plain text.
func (r RawNoteRecord) Canonical() Note {
	n := Note{
		NoteID:     r.NoteID,
		JobID:      r.JobID,
		UserID:     r.UserID,
		Title:      r.Title,
		Transcript: r.Transcript,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if strings.TrimSpace(r.Content) != "" {
		n.Content = r.Content
		n.Cues = r.Cues
		n.Summary = r.Summary
		return n
	}
	raw := strings.TrimSpace(r.NotesColumn)
	if raw == "" {
		return n
	}
	if strings.HasPrefix(raw, "{") {
		var blob legacyNotesBlob
		if err := json.Unmarshal([]byte(raw), &blob); err == nil && strings.TrimSpace(blob.Notes) != "" {
			n.Content = blob.Notes
			n.Cues = blob.Cues
			n.Summary = blob.Summary
			return n
		}
	}
	n.Content = raw
	return n
}
