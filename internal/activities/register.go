package activities

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
)

func Register(w worker.Worker, a *Activities) {
	register := func(name string, fn any) {
		w.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
	register("SignSourceURLActivity", a.SignSourceURLActivity)
	register("TranscribeActivity", a.TranscribeActivity)
	register("ExtractPDFTextActivity", a.ExtractPDFTextActivity)
	register("GenerateNotesActivity", a.GenerateNotesActivity)
	register("RenderPDFActivity", a.RenderPDFActivity)
	register("UploadArtifactActivity", a.UploadArtifactActivity)
	register("SaveNoteActivity", a.SaveNoteActivity)
	register("UpdateJobStatusActivity", a.UpdateJobStatusActivity)
	register("CompleteJobActivity", a.CompleteJobActivity)
	register("GetNoteContentActivity", a.GetNoteContentActivity)
	register("UpdateOutputPDFActivity", a.UpdateOutputPDFActivity)
	register("NotifyActivity", a.NotifyActivity)
}
