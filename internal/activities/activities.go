package activities

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"mindsy/internal/blob"
	"mindsy/internal/config"
	"mindsy/internal/logger"
	"mindsy/internal/markdown"
	"mindsy/internal/models"
	"mindsy/internal/providers"
	"mindsy/internal/storage"
	"mindsy/internal/util"
)

type Activities struct {
	cfg         config.Config
	log         *logger.Logger
	jobRepo     *storage.JobRepo
	noteRepo    *storage.NoteRepo
	notifRepo   *storage.NotificationRepo
	store       blob.Store
	transcriber providers.Transcriber
	notegen     providers.NoteGenerator
	renderer    providers.PDFRenderer
}

func New(cfg config.Config, log *logger.Logger, db *storage.DB, store blob.Store) *Activities {
	a := &Activities{
		cfg:       cfg,
		log:       log.With("component", "activities"),
		jobRepo:   storage.NewJobRepo(db),
		noteRepo:  storage.NewNoteRepo(db),
		notifRepo: storage.NewNotificationRepo(db),
		store:     store,
	}
	if cfg.ProvidersMocked {
		mock := providers.NewMockProviders()
		a.transcriber, a.notegen, a.renderer = mock, mock, mock
		return a
	}
	a.transcriber = providers.NewHTTPTranscriber(cfg.TranscribeURL, cfg.TranscribeKey)
	a.notegen = providers.NewHTTPNoteGenerator(cfg.NoteGenURL, cfg.NoteGenKey, cfg.NoteGenModel)
	a.renderer = providers.NewHTTPPDFRenderer(cfg.PDFRenderURL, cfg.PDFRenderKey)
	return a
}

func (a *Activities) SignSourceURLActivity(ctx context.Context, in SignSourceURLInput) (SignSourceURLOutput, error) {
	ttl := time.Duration(a.cfg.SignedURLTTLSecs) * time.Second
	url, err := a.store.SignedURL(ctx, in.Path, ttl)
	if err != nil {
		return SignSourceURLOutput{}, err
	}
	return SignSourceURLOutput{URL: url}, nil
}

func (a *Activities) TranscribeActivity(ctx context.Context, in TranscribeInput) (TranscribeOutput, error) {
	resp, err := a.transcriber.Transcribe(ctx, providers.TranscribeRequest{AudioURL: in.AudioURL})
	if err != nil {
		return TranscribeOutput{}, err
	}
	return TranscribeOutput{Text: util.SanitizeText(resp.Text), Language: resp.Language}, nil
}

// ExtractPDFTextActivity handles pdf-mode jobs: the source document is pulled
// from storage and read locally instead of going through the transcriber.
func (a *Activities) ExtractPDFTextActivity(ctx context.Context, in ExtractPDFTextInput) (ExtractPDFTextOutput, error) {
	rc, err := a.store.Download(ctx, in.Path)
	if err != nil {
		return ExtractPDFTextOutput{}, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "mindsy-src-*.pdf")
	if err != nil {
		return ExtractPDFTextOutput{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		return ExtractPDFTextOutput{}, fmt.Errorf("spool source pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ExtractPDFTextOutput{}, err
	}

	f, r, err := pdf.Open(tmp.Name())
	if err != nil {
		return ExtractPDFTextOutput{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	reader, err := r.GetPlainText()
	if err != nil {
		return ExtractPDFTextOutput{}, fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return ExtractPDFTextOutput{}, fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return ExtractPDFTextOutput{}, fmt.Errorf("no extractable text found in source pdf")
	}
	return ExtractPDFTextOutput{Text: text}, nil
}

func (a *Activities) GenerateNotesActivity(ctx context.Context, in GenerateNotesInput) (GenerateNotesOutput, error) {
	resp, err := a.notegen.GenerateNotes(ctx, providers.NotesRequest{
		Transcript: in.Transcript,
		Title:      in.Title,
		Subject:    in.Subject,
		Language:   in.Language,
		Format:     providers.NotesFormatCornell,
	})
	if err != nil {
		return GenerateNotesOutput{}, err
	}
	return GenerateNotesOutput{Markdown: resp.Markdown, Cues: resp.Cues, Summary: resp.Summary}, nil
}

func (a *Activities) RenderPDFActivity(ctx context.Context, in RenderPDFInput) (RenderPDFOutput, error) {
	html, err := markdown.ToHTML(in.Title, in.Markdown)
	if err != nil {
		return RenderPDFOutput{}, err
	}
	data, err := a.renderer.RenderPDF(ctx, providers.RenderRequest{HTML: html, Title: in.Title, Bookmarks: true})
	if err != nil {
		return RenderPDFOutput{}, err
	}
	return RenderPDFOutput{PDF: data}, nil
}

func (a *Activities) UploadArtifactActivity(ctx context.Context, in UploadArtifactInput) error {
	return a.store.Upload(ctx, in.Key, bytes.NewReader(in.Data))
}

func (a *Activities) SaveNoteActivity(ctx context.Context, in SaveNoteInput) (SaveNoteOutput, error) {
	noteID := uuid.NewString()
	err := a.noteRepo.Insert(ctx, models.Note{
		NoteID:     noteID,
		JobID:      in.JobID,
		UserID:     in.UserID,
		Title:      in.Title,
		Content:    in.Markdown,
		Cues:       in.Cues,
		Summary:    in.Summary,
		Transcript: in.Transcript,
	})
	if err != nil {
		return SaveNoteOutput{}, err
	}
	return SaveNoteOutput{NoteID: noteID}, nil
}

func (a *Activities) UpdateJobStatusActivity(ctx context.Context, in UpdateJobStatusInput) error {
	job, err := a.jobRepo.GetByID(ctx, in.UserID, in.JobID)
	if err != nil {
		return err
	}
	to := models.JobStatus(in.Status)
	if !models.AllowedStatusUpdate(job.Status, to) {
		return fmt.Errorf("status transition %s -> %s is not allowed", job.Status, to)
	}
	return a.jobRepo.UpdateStatus(ctx, in.UserID, in.JobID, to, in.ErrorMessage)
}

func (a *Activities) CompleteJobActivity(ctx context.Context, in CompleteJobInput) error {
	return a.jobRepo.Complete(ctx, in.UserID, in.JobID, in.PDFPath, in.MDPath, in.TXTPath, in.DurationMins)
}

func (a *Activities) GetNoteContentActivity(ctx context.Context, in GetNoteContentInput) (GetNoteContentOutput, error) {
	n, err := a.noteRepo.GetByJob(ctx, in.UserID, in.JobID)
	if err != nil {
		return GetNoteContentOutput{}, err
	}
	return GetNoteContentOutput{Title: n.Title, Markdown: n.Content}, nil
}

func (a *Activities) UpdateOutputPDFActivity(ctx context.Context, in UpdateOutputPDFInput) error {
	return a.jobRepo.UpdateOutputPDF(ctx, in.UserID, in.JobID, in.PDFPath)
}

func (a *Activities) NotifyActivity(ctx context.Context, in NotifyInput) error {
	var linkJobID *string
	if in.JobID != "" {
		linkJobID = &in.JobID
	}
	return a.notifRepo.Create(ctx, models.Notification{
		NotificationID: uuid.NewString(),
		UserID:         in.UserID,
		Title:          in.Title,
		Message:        in.Message,
		Kind:           in.Kind,
		LinkJobID:      linkJobID,
	})
}
