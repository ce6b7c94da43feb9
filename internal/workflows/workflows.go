package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"mindsy/internal/activities"
	"mindsy/internal/blob"
	"mindsy/internal/models"
	"mindsy/internal/util"
)

const QueryGetGenerateStatus = "GetGenerateStatus"

// Provider calls run once: a failed transcription or generation fails the
// whole pipeline rather than retrying against a paid API. Job-store and
// storage writes get one extra attempt since they are idempotent.
func providerOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
}

func storeOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 2,
		},
	})
}

func NoteGenerateWorkflow(ctx workflow.Context, input NoteGenerateInput) (NoteGenerateResult, error) {
	started := workflow.Now(ctx)
	status := GenerateStatus{
		JobID:       input.JobID,
		CurrentStep: "init",
		Status:      string(models.JobProcessing),
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetGenerateStatus, func() (GenerateStatus, error) {
		return status, nil
	}); err != nil {
		return NoteGenerateResult{}, err
	}

	provCtx := providerOptions(ctx)
	storeCtx := storeOptions(ctx)

	fail := func(step string, err error) (NoteGenerateResult, error) {
		status.Status = string(models.JobFailed)
		status.FailReason = err.Error()
		status.Steps[step] = "failed"
		_ = workflow.ExecuteActivity(storeCtx, "UpdateJobStatusActivity", activities.UpdateJobStatusInput{
			UserID:       input.UserID,
			JobID:        input.JobID,
			Status:       string(models.JobFailed),
			ErrorMessage: err.Error(),
		}).Get(ctx, nil)
		_ = workflow.ExecuteActivity(storeCtx, "NotifyActivity", activities.NotifyInput{
			UserID:  input.UserID,
			JobID:   input.JobID,
			Title:   "Note generation failed",
			Message: input.LectureTitle + ": " + err.Error(),
			Kind:    "generation_failed",
		}).Get(ctx, nil)
		return NoteGenerateResult{}, err
	}

	status.CurrentStep = "mark_processing"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(storeCtx, "UpdateJobStatusActivity", activities.UpdateJobStatusInput{
		UserID: input.UserID,
		JobID:  input.JobID,
		Status: string(models.JobProcessing),
	}).Get(ctx, nil); err != nil {
		return fail(status.CurrentStep, err)
	}
	status.Steps[status.CurrentStep] = "done"

	var transcript, language string
	if input.InputType == "pdf" {
		status.CurrentStep = "extract_text"
		status.Steps[status.CurrentStep] = "processing"
		var out activities.ExtractPDFTextOutput
		if err := workflow.ExecuteActivity(provCtx, "ExtractPDFTextActivity", activities.ExtractPDFTextInput{
			Path: input.SourcePath,
		}).Get(ctx, &out); err != nil {
			return fail(status.CurrentStep, err)
		}
		transcript = out.Text
		status.Steps[status.CurrentStep] = "done"
	} else {
		status.CurrentStep = "sign_url"
		status.Steps[status.CurrentStep] = "processing"
		var signed activities.SignSourceURLOutput
		if err := workflow.ExecuteActivity(storeCtx, "SignSourceURLActivity", activities.SignSourceURLInput{
			Path: input.SourcePath,
		}).Get(ctx, &signed); err != nil {
			return fail(status.CurrentStep, err)
		}
		status.Steps[status.CurrentStep] = "done"

		status.CurrentStep = "transcribe"
		status.Steps[status.CurrentStep] = "processing"
		var tr activities.TranscribeOutput
		if err := workflow.ExecuteActivity(provCtx, "TranscribeActivity", activities.TranscribeInput{
			AudioURL: signed.URL,
		}).Get(ctx, &tr); err != nil {
			return fail(status.CurrentStep, err)
		}
		transcript = tr.Text
		language = tr.Language
		status.Steps[status.CurrentStep] = "done"
	}

	durationMins := util.EstimateDurationMinutes(transcript, input.ReportedDurationMins)

	status.CurrentStep = "generate_notes"
	status.Steps[status.CurrentStep] = "processing"
	var notes activities.GenerateNotesOutput
	if err := workflow.ExecuteActivity(provCtx, "GenerateNotesActivity", activities.GenerateNotesInput{
		Transcript: transcript,
		Title:      input.LectureTitle,
		Subject:    input.CourseSubject,
		Language:   language,
	}).Get(ctx, &notes); err != nil {
		return fail(status.CurrentStep, err)
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "render_pdf"
	status.Steps[status.CurrentStep] = "processing"
	var rendered activities.RenderPDFOutput
	if err := workflow.ExecuteActivity(provCtx, "RenderPDFActivity", activities.RenderPDFInput{
		Title:    input.LectureTitle,
		Markdown: notes.Markdown,
	}).Get(ctx, &rendered); err != nil {
		return fail(status.CurrentStep, err)
	}
	status.Steps[status.CurrentStep] = "done"

	at := workflow.Now(ctx)
	pdfKey := blob.ArtifactKey(input.UserID, input.LectureTitle, "pdf", at)
	mdKey := blob.ArtifactKey(input.UserID, input.LectureTitle, "md", at)
	txtKey := blob.ArtifactKey(input.UserID, input.LectureTitle, "txt", at)

	status.CurrentStep = "upload_pdf"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(storeCtx, "UploadArtifactActivity", activities.UploadArtifactInput{
		Key:  pdfKey,
		Data: rendered.PDF,
	}).Get(ctx, nil); err != nil {
		return fail(status.CurrentStep, err)
	}
	status.Steps[status.CurrentStep] = "done"

	result := NoteGenerateResult{
		JobID:        input.JobID,
		PDFPath:      pdfKey,
		DurationMins: durationMins,
		Language:     language,
	}

	status.CurrentStep = "upload_secondary"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(storeCtx, "UploadArtifactActivity", activities.UploadArtifactInput{
		Key:  mdKey,
		Data: []byte(notes.Markdown),
	}).Get(ctx, nil); err == nil {
		result.BestEffort.MarkdownUploaded = true
		result.MDPath = mdKey
	}
	if err := workflow.ExecuteActivity(storeCtx, "UploadArtifactActivity", activities.UploadArtifactInput{
		Key:  txtKey,
		Data: []byte(transcript),
	}).Get(ctx, nil); err == nil {
		result.BestEffort.TranscriptUploaded = true
		result.TXTPath = txtKey
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "save_note"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(storeCtx, "SaveNoteActivity", activities.SaveNoteInput{
		JobID:      input.JobID,
		UserID:     input.UserID,
		Title:      input.LectureTitle,
		Markdown:   notes.Markdown,
		Cues:       notes.Cues,
		Summary:    notes.Summary,
		Transcript: transcript,
	}).Get(ctx, nil); err == nil {
		result.BestEffort.NoteSaved = true
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "complete_job"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(storeCtx, "CompleteJobActivity", activities.CompleteJobInput{
		UserID:       input.UserID,
		JobID:        input.JobID,
		PDFPath:      pdfKey,
		MDPath:       result.MDPath,
		TXTPath:      result.TXTPath,
		DurationMins: durationMins,
	}).Get(ctx, nil); err == nil {
		result.BestEffort.JobCompleted = true
	}
	status.Steps[status.CurrentStep] = "done"

	_ = workflow.ExecuteActivity(storeCtx, "NotifyActivity", activities.NotifyInput{
		UserID:  input.UserID,
		JobID:   input.JobID,
		Title:   "Your notes are ready",
		Message: input.LectureTitle,
		Kind:    "generation_completed",
	}).Get(ctx, nil)

	status.CurrentStep = "done"
	status.Status = string(models.JobCompleted)
	result.ProcessingTimeMS = workflow.Now(ctx).Sub(started).Milliseconds()
	return result, nil
}

// RegeneratePDFWorkflow re-renders the stored note content and replaces the
// job's output PDF. Used after content edits.
func RegeneratePDFWorkflow(ctx workflow.Context, input RegeneratePDFInput) (RegeneratePDFResult, error) {
	provCtx := providerOptions(ctx)
	storeCtx := storeOptions(ctx)

	var note activities.GetNoteContentOutput
	if err := workflow.ExecuteActivity(storeCtx, "GetNoteContentActivity", activities.GetNoteContentInput{
		UserID: input.UserID,
		JobID:  input.JobID,
	}).Get(ctx, &note); err != nil {
		return RegeneratePDFResult{}, err
	}

	var rendered activities.RenderPDFOutput
	if err := workflow.ExecuteActivity(provCtx, "RenderPDFActivity", activities.RenderPDFInput{
		Title:    note.Title,
		Markdown: note.Markdown,
	}).Get(ctx, &rendered); err != nil {
		return RegeneratePDFResult{}, err
	}

	pdfKey := blob.ArtifactKey(input.UserID, note.Title, "pdf", workflow.Now(ctx))
	if err := workflow.ExecuteActivity(storeCtx, "UploadArtifactActivity", activities.UploadArtifactInput{
		Key:  pdfKey,
		Data: rendered.PDF,
	}).Get(ctx, nil); err != nil {
		return RegeneratePDFResult{}, err
	}

	if err := workflow.ExecuteActivity(storeCtx, "UpdateOutputPDFActivity", activities.UpdateOutputPDFInput{
		UserID:  input.UserID,
		JobID:   input.JobID,
		PDFPath: pdfKey,
	}).Get(ctx, nil); err != nil {
		return RegeneratePDFResult{}, err
	}

	return RegeneratePDFResult{JobID: input.JobID, PDFPath: pdfKey}, nil
}
