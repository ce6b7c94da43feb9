package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalPrefersNewSchema(t *testing.T) {
	r := RawNoteRecord{
		NoteID:      "n1",
		JobID:       "j1",
		Content:     "# Notes\nbody",
		Cues:        "- cue",
		Summary:     "summary",
		NotesColumn: `{"notes":"old body"}`,
	}
	n := r.Canonical()
	require.Equal(t, "# Notes\nbody", n.Content)
	require.Equal(t, "- cue", n.Cues)
	require.Equal(t, "summary", n.Summary)
}

func TestCanonicalParsesLegacyJSONBlob(t *testing.T) {
	r := RawNoteRecord{
		NotesColumn: `{"notes":"legacy notes","cues":"legacy cues","summary":"legacy summary"}`,
	}
	n := r.Canonical()
	require.Equal(t, "legacy notes", n.Content)
	require.Equal(t, "legacy cues", n.Cues)
	require.Equal(t, "legacy summary", n.Summary)
}

func TestCanonicalFallsBackToPlainText(t *testing.T) {
	n := RawNoteRecord{NotesColumn: "just plain markdown"}.Canonical()
	require.Equal(t, "just plain markdown", n.Content)
	require.Empty(t, n.Cues)

	// Malformed JSON degrades to plain text rather than dropping content.
	n = RawNoteRecord{NotesColumn: `{"notes": broken`}.Canonical()
	require.Equal(t, `{"notes": broken`, n.Content)
}

func TestCanonicalEmptyRow(t *testing.T) {
	n := RawNoteRecord{NoteID: "n1"}.Canonical()
	require.Empty(t, n.Content)
	require.Equal(t, "n1", n.NoteID)
}
