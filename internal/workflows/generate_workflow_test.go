package workflows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"mindsy/internal/activities"
)

type generateHarness struct {
	env *testsuite.TestWorkflowEnvironment

	transcript    string
	language      string
	transcribed   bool
	extracted     bool
	statusUpdates []activities.UpdateJobStatusInput
	uploadedKeys  []string
	failUploadExt string
	failNoteGen   bool
	noteSaved     bool
	jobCompleted  bool
	notifications []activities.NotifyInput
}

func newGenerateHarness(t *testing.T) *generateHarness {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	h := &generateHarness{
		env:        ts.NewTestWorkflowEnvironment(),
		transcript: strings.Repeat("word ", 300),
		language:   "en",
	}
	h.env.RegisterWorkflow(NoteGenerateWorkflow)

	register := func(name string, fn any) {
		h.env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
	register("UpdateJobStatusActivity", func(_ context.Context, in activities.UpdateJobStatusInput) error {
		h.statusUpdates = append(h.statusUpdates, in)
		return nil
	})
	register("SignSourceURLActivity", func(_ context.Context, in activities.SignSourceURLInput) (activities.SignSourceURLOutput, error) {
		return activities.SignSourceURLOutput{URL: "https://signed.example/" + in.Path}, nil
	})
	register("TranscribeActivity", func(_ context.Context, in activities.TranscribeInput) (activities.TranscribeOutput, error) {
		h.transcribed = true
		return activities.TranscribeOutput{Text: h.transcript, Language: h.language}, nil
	})
	register("ExtractPDFTextActivity", func(_ context.Context, in activities.ExtractPDFTextInput) (activities.ExtractPDFTextOutput, error) {
		h.extracted = true
		return activities.ExtractPDFTextOutput{Text: h.transcript}, nil
	})
	register("GenerateNotesActivity", func(_ context.Context, in activities.GenerateNotesInput) (activities.GenerateNotesOutput, error) {
		if h.failNoteGen {
			return activities.GenerateNotesOutput{}, errors.New("notes error 500: model overloaded")
		}
		return activities.GenerateNotesOutput{Markdown: "# Notes\nbody", Cues: "- cue", Summary: "sum"}, nil
	})
	register("RenderPDFActivity", func(_ context.Context, in activities.RenderPDFInput) (activities.RenderPDFOutput, error) {
		return activities.RenderPDFOutput{PDF: []byte("%PDF-1.4")}, nil
	})
	register("UploadArtifactActivity", func(_ context.Context, in activities.UploadArtifactInput) error {
		if h.failUploadExt != "" && strings.HasSuffix(in.Key, h.failUploadExt) {
			return errors.New("storage unavailable")
		}
		h.uploadedKeys = append(h.uploadedKeys, in.Key)
		return nil
	})
	register("SaveNoteActivity", func(_ context.Context, in activities.SaveNoteInput) (activities.SaveNoteOutput, error) {
		h.noteSaved = true
		return activities.SaveNoteOutput{NoteID: "note-1"}, nil
	})
	register("CompleteJobActivity", func(_ context.Context, in activities.CompleteJobInput) error {
		h.jobCompleted = true
		return nil
	})
	register("NotifyActivity", func(_ context.Context, in activities.NotifyInput) error {
		h.notifications = append(h.notifications, in)
		return nil
	})
	return h
}

func audioInput() NoteGenerateInput {
	return NoteGenerateInput{
		JobID:        "job-1",
		UserID:       "user-1",
		LectureTitle: "Intro to Biology",
		InputType:    "audio",
		SourcePath:   "user-1/lecture.mp3",
	}
}

func TestNoteGenerateWorkflowSuccess(t *testing.T) {
	h := newGenerateHarness(t)
	h.env.ExecuteWorkflow(NoteGenerateWorkflow, audioInput())
	require.True(t, h.env.IsWorkflowCompleted())
	require.NoError(t, h.env.GetWorkflowError())

	var out NoteGenerateResult
	require.NoError(t, h.env.GetWorkflowResult(&out))
	require.Equal(t, "job-1", out.JobID)
	require.True(t, strings.HasSuffix(out.PDFPath, ".pdf"))
	require.True(t, strings.HasSuffix(out.MDPath, ".md"))
	require.True(t, strings.HasSuffix(out.TXTPath, ".txt"))
	require.True(t, strings.HasPrefix(out.PDFPath, "user-1/"))
	require.Contains(t, out.PDFPath, "intro-to-biology")

	// 300 words and no caller-supplied value estimates to 2 minutes.
	require.Equal(t, 2, out.DurationMins)
	require.Equal(t, "en", out.Language)

	require.True(t, out.BestEffort.MarkdownUploaded)
	require.True(t, out.BestEffort.TranscriptUploaded)
	require.True(t, out.BestEffort.NoteSaved)
	require.True(t, out.BestEffort.JobCompleted)
	require.True(t, h.noteSaved)
	require.True(t, h.jobCompleted)
	require.Len(t, h.uploadedKeys, 3)

	require.NotEmpty(t, h.statusUpdates)
	require.Equal(t, "processing", h.statusUpdates[0].Status)
}

func TestNoteGenerateWorkflowReportedDurationWins(t *testing.T) {
	h := newGenerateHarness(t)
	in := audioInput()
	in.ReportedDurationMins = 45
	h.env.ExecuteWorkflow(NoteGenerateWorkflow, in)
	require.True(t, h.env.IsWorkflowCompleted())

	var out NoteGenerateResult
	require.NoError(t, h.env.GetWorkflowResult(&out))
	require.Equal(t, 45, out.DurationMins)
}

func TestNoteGenerateWorkflowOneWordTranscript(t *testing.T) {
	h := newGenerateHarness(t)
	h.transcript = "word"
	h.env.ExecuteWorkflow(NoteGenerateWorkflow, audioInput())

	var out NoteGenerateResult
	require.NoError(t, h.env.GetWorkflowResult(&out))
	require.Equal(t, 1, out.DurationMins)
}

func TestNoteGenerateWorkflowNoteGenFailure(t *testing.T) {
	h := newGenerateHarness(t)
	h.failNoteGen = true
	h.env.ExecuteWorkflow(NoteGenerateWorkflow, audioInput())
	require.True(t, h.env.IsWorkflowCompleted())
	require.Error(t, h.env.GetWorkflowError())

	// Job flipped to failed with a non-empty message, nothing uploaded.
	last := h.statusUpdates[len(h.statusUpdates)-1]
	require.Equal(t, "failed", last.Status)
	require.NotEmpty(t, last.ErrorMessage)
	require.Empty(t, h.uploadedKeys)
	require.False(t, h.noteSaved)
	require.False(t, h.jobCompleted)
}

func TestNoteGenerateWorkflowBestEffortMarkdownFailure(t *testing.T) {
	h := newGenerateHarness(t)
	h.failUploadExt = ".md"
	h.env.ExecuteWorkflow(NoteGenerateWorkflow, audioInput())
	require.True(t, h.env.IsWorkflowCompleted())
	require.NoError(t, h.env.GetWorkflowError())

	var out NoteGenerateResult
	require.NoError(t, h.env.GetWorkflowResult(&out))
	require.False(t, out.BestEffort.MarkdownUploaded)
	require.Empty(t, out.MDPath)
	require.True(t, out.BestEffort.TranscriptUploaded)
	require.NotEmpty(t, out.TXTPath)
	require.True(t, out.BestEffort.JobCompleted)
}

func TestNoteGenerateWorkflowPDFMode(t *testing.T) {
	h := newGenerateHarness(t)
	in := audioInput()
	in.InputType = "pdf"
	in.SourcePath = "user-1/slides.pdf"
	h.env.ExecuteWorkflow(NoteGenerateWorkflow, in)
	require.True(t, h.env.IsWorkflowCompleted())
	require.NoError(t, h.env.GetWorkflowError())

	require.True(t, h.extracted)
	require.False(t, h.transcribed)
}

func TestRegeneratePDFWorkflow(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(RegeneratePDFWorkflow)

	register := func(name string, fn any) {
		env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
	var uploadedKey, updatedPath string
	register("GetNoteContentActivity", func(_ context.Context, in activities.GetNoteContentInput) (activities.GetNoteContentOutput, error) {
		return activities.GetNoteContentOutput{Title: "Edited Lecture", Markdown: "# updated"}, nil
	})
	register("RenderPDFActivity", func(_ context.Context, in activities.RenderPDFInput) (activities.RenderPDFOutput, error) {
		return activities.RenderPDFOutput{PDF: []byte("%PDF-1.4")}, nil
	})
	register("UploadArtifactActivity", func(_ context.Context, in activities.UploadArtifactInput) error {
		uploadedKey = in.Key
		return nil
	})
	register("UpdateOutputPDFActivity", func(_ context.Context, in activities.UpdateOutputPDFInput) error {
		updatedPath = in.PDFPath
		return nil
	})

	env.ExecuteWorkflow(RegeneratePDFWorkflow, RegeneratePDFInput{UserID: "user-1", JobID: "job-1"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out RegeneratePDFResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, uploadedKey, out.PDFPath)
	require.Equal(t, updatedPath, out.PDFPath)
	require.Contains(t, out.PDFPath, "edited-lecture")
}
