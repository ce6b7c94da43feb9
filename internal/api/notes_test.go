package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"mindsy/internal/auth"
	"mindsy/internal/logger"
	"mindsy/internal/models"
	"mindsy/internal/storage"
)

type fakeJobStore struct {
	jobs map[string]models.Job
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]models.Job{}}
}

func (f *fakeJobStore) Create(_ context.Context, j models.Job) error {
	f.jobs[j.JobID] = j
	return nil
}

func (f *fakeJobStore) GetByID(_ context.Context, userID, jobID string) (models.Job, error) {
	j, ok := f.jobs[jobID]
	if !ok || j.UserID != userID {
		return models.Job{}, storage.ErrNotFound
	}
	return j, nil
}

func (f *fakeJobStore) LatestByAudioPath(_ context.Context, userID, audioPath string) (models.Job, error) {
	var best models.Job
	found := false
	for _, j := range f.jobs {
		if j.UserID != userID || (j.AudioPath != audioPath && j.SourcePDFPath != audioPath) {
			continue
		}
		if !found || j.CreatedAt.After(best.CreatedAt) {
			best = j
			found = true
		}
	}
	if !found {
		return models.Job{}, storage.ErrNotFound
	}
	return best, nil
}

func (f *fakeJobStore) List(_ context.Context, userID string, filter storage.JobFilter) ([]models.Job, error) {
	out := make([]models.Job, 0)
	for _, j := range f.jobs {
		if j.UserID != userID {
			continue
		}
		if filter.Status != "" && string(j.Status) != filter.Status {
			continue
		}
		if filter.StudyNodeID != "" && (j.StudyNodeID == nil || *j.StudyNodeID != filter.StudyNodeID) {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(j.LectureTitle), strings.ToLower(filter.Query)) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (f *fakeJobStore) UpdateMeta(_ context.Context, userID, jobID, title, subject string, studyNodeID *string) error {
	j, ok := f.jobs[jobID]
	if !ok || j.UserID != userID {
		return storage.ErrNotFound
	}
	j.LectureTitle = title
	j.CourseSubject = subject
	j.StudyNodeID = studyNodeID
	f.jobs[jobID] = j
	return nil
}

func (f *fakeJobStore) Delete(_ context.Context, userID, jobID string) error {
	j, ok := f.jobs[jobID]
	if !ok || j.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.jobs, jobID)
	return nil
}

type fakeNoteStore struct {
	notes map[string]models.Note // keyed by job id
}

func newFakeNoteStore() *fakeNoteStore {
	return &fakeNoteStore{notes: map[string]models.Note{}}
}

func (f *fakeNoteStore) GetByJob(_ context.Context, userID, jobID string) (models.Note, error) {
	n, ok := f.notes[jobID]
	if !ok || n.UserID != userID {
		return models.Note{}, storage.ErrNotFound
	}
	return n, nil
}

func (f *fakeNoteStore) UpdateContent(_ context.Context, userID, jobID, content string) error {
	n, ok := f.notes[jobID]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	n.Content = content
	f.notes[jobID] = n
	return nil
}

func (f *fakeNoteStore) SearchContent(_ context.Context, userID, query string, _ int) ([]models.Note, error) {
	out := make([]models.Note, 0)
	for _, n := range f.notes {
		if n.UserID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(n.Content), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(n.Title), strings.ToLower(query)) {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeNodeStore struct {
	nodes map[string]models.StudyNode
}

func newFakeNodeStore() *fakeNodeStore {
	return &fakeNodeStore{nodes: map[string]models.StudyNode{}}
}

func (f *fakeNodeStore) Create(_ context.Context, n models.StudyNode) error {
	f.nodes[n.NodeID] = n
	return nil
}

func (f *fakeNodeStore) GetByID(_ context.Context, userID, nodeID string) (models.StudyNode, error) {
	n, ok := f.nodes[nodeID]
	if !ok || n.UserID != userID {
		return models.StudyNode{}, storage.ErrNotFound
	}
	return n, nil
}

func (f *fakeNodeStore) ListRoots(_ context.Context, userID string) ([]models.StudyNode, error) {
	out := make([]models.StudyNode, 0)
	for _, n := range f.nodes {
		if n.UserID == userID && n.ParentID == nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNodeStore) ListChildren(_ context.Context, userID, nodeID string) ([]models.StudyNode, error) {
	out := make([]models.StudyNode, 0)
	for _, n := range f.nodes {
		if n.UserID == userID && n.ParentID != nil && *n.ParentID == nodeID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNodeStore) ListDescendants(ctx context.Context, userID, nodeID string, _ int) ([]models.StudyNode, error) {
	return f.ListChildren(ctx, userID, nodeID)
}

func (f *fakeNodeStore) ListWithCounts(ctx context.Context, userID string) ([]models.StudyNode, error) {
	return f.ListRoots(ctx, userID)
}

func (f *fakeNodeStore) ListPinned(_ context.Context, userID string) ([]models.StudyNode, error) {
	out := make([]models.StudyNode, 0)
	for _, n := range f.nodes {
		if n.UserID == userID && n.Pinned {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNodeStore) Update(_ context.Context, n models.StudyNode) error {
	old, ok := f.nodes[n.NodeID]
	if !ok || old.UserID != n.UserID {
		return storage.ErrNotFound
	}
	f.nodes[n.NodeID] = n
	return nil
}

func (f *fakeNodeStore) Delete(_ context.Context, userID, nodeID string) error {
	n, ok := f.nodes[nodeID]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.nodes, nodeID)
	return nil
}

func (f *fakeNodeStore) CheckParent(ctx context.Context, userID, nodeID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if _, err := f.GetByID(ctx, userID, *parentID); err != nil {
		return err
	}
	cycle, err := storage.WouldCreateCycle(nodeID, *parentID, func(id string) (*string, error) {
		n, err := f.GetByID(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		return n.ParentID, nil
	})
	if err != nil {
		return err
	}
	if cycle {
		return storage.ErrNodeCycle
	}
	return nil
}

func newTestServer() (*Server, *fakeJobStore, *fakeNoteStore, *fakeNodeStore) {
	jobs := newFakeJobStore()
	notes := newFakeNoteStore()
	nodes := newFakeNodeStore()
	s := &Server{
		log:       logger.NewNop(),
		jobRepo:   jobs,
		noteRepo:  notes,
		nodeRepo:  nodes,
		notifRepo: nil,
		store:     &fakeStore{objects: map[string][]byte{}},
	}
	return s, jobs, notes, nodes
}

func authedRequest(userID, method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func TestNoteContentRoundTrip(t *testing.T) {
	s, jobs, notes, _ := newTestServer()
	jobID := uuid.NewString()
	jobs.jobs[jobID] = models.Job{JobID: jobID, UserID: "user-1", Status: models.JobCompleted}
	notes.notes[jobID] = models.Note{NoteID: uuid.NewString(), JobID: jobID, UserID: "user-1", Title: "Lecture", Content: "old"}

	content := "# Edited\n\nwith trailing space \nand unicode: café\n"
	payload, err := json.Marshal(map[string]string{"content": content})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.handleNotesScoped(rec, authedRequest("user-1", http.MethodPut, "/api/notes/"+jobID+"/content", string(payload)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handleNotesScoped(rec, authedRequest("user-1", http.MethodGet, "/api/notes/"+jobID+"/content", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, content, got.Content)
}

func TestDeleteJobThenGetReturns404(t *testing.T) {
	s, jobs, _, _ := newTestServer()
	jobID := uuid.NewString()
	jobs.jobs[jobID] = models.Job{JobID: jobID, UserID: "user-1", Status: models.JobCompleted, OutputPDFPath: "user-1/1-x.pdf"}

	rec := httptest.NewRecorder()
	s.handleNotesScoped(rec, authedRequest("user-1", http.MethodDelete, "/api/notes/"+jobID, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handleNotesScoped(rec, authedRequest("user-1", http.MethodGet, "/api/notes/"+jobID, ""))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "MS-API-4004")
}

func TestListJobsStatusFilter(t *testing.T) {
	s, jobs, _, _ := newTestServer()
	for _, status := range []models.JobStatus{models.JobUploading, models.JobProcessing, models.JobCompleted, models.JobCompleted, models.JobFailed} {
		id := uuid.NewString()
		jobs.jobs[id] = models.Job{JobID: id, UserID: "user-1", LectureTitle: "L", Status: status}
	}

	rec := httptest.NewRecorder()
	s.handleNotes(rec, authedRequest("user-1", http.MethodGet, "/api/notes?status=completed", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Notes []models.Job `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Notes, 2)
	for _, j := range got.Notes {
		require.Equal(t, models.JobCompleted, j.Status)
	}
}

func TestNoteByIDRejectsMalformedID(t *testing.T) {
	s, _, _, _ := newTestServer()

	rec := httptest.NewRecorder()
	s.handleNotesScoped(rec, authedRequest("user-1", http.MethodGet, "/api/notes/abc", ""))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "MS-API-4004")
}

func TestUpdateMetaRejectsForeignStudyNode(t *testing.T) {
	s, jobs, _, nodes := newTestServer()
	jobID := uuid.NewString()
	jobs.jobs[jobID] = models.Job{JobID: jobID, UserID: "user-1", LectureTitle: "Mine", Status: models.JobCompleted}

	foreignNode := uuid.NewString()
	nodes.nodes[foreignNode] = models.StudyNode{NodeID: foreignNode, UserID: "user-2", Name: "Theirs", NodeType: models.NodeCustom}

	payload := `{"lecture_title":"Mine","study_node_id":"` + foreignNode + `"}`
	rec := httptest.NewRecorder()
	s.handleNotesScoped(rec, authedRequest("user-1", http.MethodPut, "/api/notes/"+jobID, payload))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// The job keeps its previous node link.
	require.Nil(t, jobs.jobs[jobID].StudyNodeID)

	// A syntactically invalid node id is rejected the same way.
	payload = `{"lecture_title":"Mine","study_node_id":"not-a-uuid"}`
	rec = httptest.NewRecorder()
	s.handleNotesScoped(rec, authedRequest("user-1", http.MethodPut, "/api/notes/"+jobID, payload))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJobRejectsForeignStudyNode(t *testing.T) {
	s, jobs, _, nodes := newTestServer()
	foreignNode := uuid.NewString()
	nodes.nodes[foreignNode] = models.StudyNode{NodeID: foreignNode, UserID: "user-2", Name: "Theirs", NodeType: models.NodeCustom}

	payload := `{"lecture_title":"New","file_path":"user-1/a.mp3","study_node_id":"` + foreignNode + `"}`
	rec := httptest.NewRecorder()
	s.handleNotes(rec, authedRequest("user-1", http.MethodPost, "/api/notes", payload))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, jobs.jobs)
}
