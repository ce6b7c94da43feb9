package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mindsy/internal/auth"
	"mindsy/internal/models"
	"mindsy/internal/storage"
	"mindsy/internal/workflows"

	"github.com/google/uuid"
	tclient "go.temporal.io/sdk/client"
)

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		f := storage.JobFilter{
			Status:      r.URL.Query().Get("status"),
			StudyNodeID: r.URL.Query().Get("study_node_id"),
			Query:       r.URL.Query().Get("q"),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			f.Limit, _ = strconv.Atoi(v)
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			f.Offset, _ = strconv.Atoi(v)
		}
		jobs, err := s.jobRepo.List(r.Context(), userID, f)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notes": jobs})
	case http.MethodPost:
		var req struct {
			LectureTitle  string  `json:"lecture_title"`
			CourseSubject string  `json:"course_subject"`
			InputType     string  `json:"input_type"`
			FilePath      string  `json:"file_path"`
			StudyNodeID   *string `json:"study_node_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.LectureTitle = strings.TrimSpace(req.LectureTitle)
		if req.LectureTitle == "" {
			writeErr(w, http.StatusBadRequest, errors.New("lecture_title is required"))
			return
		}
		if req.FilePath == "" {
			writeErr(w, http.StatusBadRequest, errors.New("file_path is required"))
			return
		}
		if req.InputType == "" {
			req.InputType = "audio"
		}
		if req.InputType != "audio" && req.InputType != "pdf" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("input_type must be audio or pdf"))
			return
		}
		if err := s.checkStudyNode(r.Context(), userID, req.StudyNodeID); err != nil {
			s.writeStudyNodeErr(w, err)
			return
		}

		job := models.Job{
			JobID:         uuid.NewString(),
			UserID:        userID,
			LectureTitle:  req.LectureTitle,
			CourseSubject: req.CourseSubject,
			StudyNodeID:   req.StudyNodeID,
			Status:        models.JobUploading,
			InputType:     req.InputType,
		}
		if req.InputType == "pdf" {
			job.SourcePDFPath = req.FilePath
		} else {
			job.AudioPath = req.FilePath
		}
		if err := s.jobRepo.Create(r.Context(), job); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"job": job})
	default:
		writeErr(w, http.StatusMethodNotAllowed, nil)
	}
}

// handleGenerate runs the full pipeline synchronously. The caller has already
// uploaded the source file and created a job for it; the newest job matching
// the given path is the one that runs.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		FilePath     string `json:"file_path"`
		DurationMins int    `json:"duration_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if req.FilePath == "" {
		writeErr(w, http.StatusBadRequest, errors.New("file_path is required"))
		return
	}

	job, err := s.jobRepo.LatestByAudioPath(r.Context(), userID, req.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("no job found for file path"))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	input := workflows.NoteGenerateInput{
		JobID:                job.JobID,
		UserID:               userID,
		LectureTitle:         job.LectureTitle,
		CourseSubject:        job.CourseSubject,
		InputType:            job.InputType,
		SourcePath:           req.FilePath,
		ReportedDurationMins: req.DurationMins,
	}
	run, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:        "notegen-" + job.JobID + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.NoteGenerateWorkflow, input)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	var result workflows.NoteGenerateResult
	if err := run.Get(r.Context(), &result); err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id": result.JobID,
		"files": map[string]string{
			"pdf":        result.PDFPath,
			"markdown":   result.MDPath,
			"transcript": result.TXTPath,
		},
		"duration_minutes":   result.DurationMins,
		"language":           result.Language,
		"best_effort":        result.BestEffort,
		"processing_time_ms": result.ProcessingTimeMS,
	})
}

func (s *Server) handleNotesScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/notes/"), "/")
	if rest == "" {
		writeErr(w, http.StatusNotFound, nil)
		return
	}
	if rest == "search" {
		s.handleNoteSearch(w, r)
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	jobID := parts[0]
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}
	// A malformed id can never match a row; reject it before it reaches the
	// database as a type error.
	if _, err := uuid.Parse(jobID); err != nil {
		writeErr(w, http.StatusNotFound, nil)
		return
	}

	switch sub {
	case "":
		s.handleNoteByID(w, r, jobID)
	case "content":
		s.handleNoteContent(w, r, jobID)
	case "regenerate-pdf":
		s.handleRegeneratePDF(w, r, jobID)
	default:
		writeErr(w, http.StatusNotFound, nil)
	}
}

func (s *Server) handleNoteByID(w http.ResponseWriter, r *http.Request, jobID string) {
	userID, _ := auth.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		job, err := s.jobRepo.GetByID(r.Context(), userID, jobID)
		if err != nil {
			writeRepoErr(w, err)
			return
		}
		resp := map[string]any{"job": job}
		if note, err := s.noteRepo.GetByJob(r.Context(), userID, jobID); err == nil {
			resp["note"] = note
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodPut:
		var req struct {
			LectureTitle  string  `json:"lecture_title"`
			CourseSubject string  `json:"course_subject"`
			StudyNodeID   *string `json:"study_node_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.LectureTitle = strings.TrimSpace(req.LectureTitle)
		if req.LectureTitle == "" {
			writeErr(w, http.StatusBadRequest, errors.New("lecture_title is required"))
			return
		}
		if err := s.checkStudyNode(r.Context(), userID, req.StudyNodeID); err != nil {
			s.writeStudyNodeErr(w, err)
			return
		}
		if err := s.jobRepo.UpdateMeta(r.Context(), userID, jobID, req.LectureTitle, req.CourseSubject, req.StudyNodeID); err != nil {
			writeRepoErr(w, err)
			return
		}
		job, err := s.jobRepo.GetByID(r.Context(), userID, jobID)
		if err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"job": job})
	case http.MethodDelete:
		job, err := s.jobRepo.GetByID(r.Context(), userID, jobID)
		if err != nil {
			writeRepoErr(w, err)
			return
		}
		// Artifact deletes are best-effort; a missing blob must not keep the
		// row alive.
		for _, path := range []string{job.OutputPDFPath, job.MDFilePath, job.TXTFilePath, job.AudioPath, job.SourcePDFPath} {
			if path == "" {
				continue
			}
			if err := s.store.Delete(r.Context(), path); err != nil {
				s.log.Warn("delete artifact", "path", path, "error", err)
			}
		}
		if err := s.jobRepo.Delete(r.Context(), userID, jobID); err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": jobID})
	default:
		writeErr(w, http.StatusMethodNotAllowed, nil)
	}
}

func (s *Server) handleNoteContent(w http.ResponseWriter, r *http.Request, jobID string) {
	userID, _ := auth.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		note, err := s.noteRepo.GetByJob(r.Context(), userID, jobID)
		if err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id":  jobID,
			"title":   note.Title,
			"content": note.Content,
			"cues":    note.Cues,
			"summary": note.Summary,
		})
	case http.MethodPut:
		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if req.Content == "" {
			writeErr(w, http.StatusBadRequest, errors.New("content is required"))
			return
		}
		if err := s.noteRepo.UpdateContent(r.Context(), userID, jobID, req.Content); err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"job_id": jobID, "updated": true})
	default:
		writeErr(w, http.StatusMethodNotAllowed, nil)
	}
}

func (s *Server) handleNoteSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, map[string]any{"results": []models.Note{}})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	notes, err := s.noteRepo.SearchContent(r.Context(), userID, q, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": notes})
}

func (s *Server) handleRegeneratePDF(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	if _, err := s.jobRepo.GetByID(r.Context(), userID, jobID); err != nil {
		writeRepoErr(w, err)
		return
	}

	run, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:        "regen-pdf-" + jobID + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.RegeneratePDFWorkflow, workflows.RegeneratePDFInput{UserID: userID, JobID: jobID})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	var result workflows.RegeneratePDFResult
	if err := run.Get(r.Context(), &result); err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": jobID, "pdf_path": result.PDFPath})
}

var errStudyNodeMissing = errors.New("study node does not exist")

// checkStudyNode validates a node reference from a request body: it must be a
// well-formed id resolving to a node owned by the caller. Linking a job to a
// foreign node is indistinguishable from linking to a missing one.
func (s *Server) checkStudyNode(ctx context.Context, userID string, nodeID *string) error {
	if nodeID == nil {
		return nil
	}
	if _, err := uuid.Parse(*nodeID); err != nil {
		return errStudyNodeMissing
	}
	if _, err := s.nodeRepo.GetByID(ctx, userID, *nodeID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errStudyNodeMissing
		}
		return err
	}
	return nil
}

func (s *Server) writeStudyNodeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, errStudyNodeMissing) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeErr(w, http.StatusInternalServerError, err)
}

func writeRepoErr(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeErr(w, http.StatusInternalServerError, err)
}
