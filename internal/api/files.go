package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mindsy/internal/auth"
	"mindsy/internal/blob"
)

// File access always re-checks ownership against the key itself. A valid
// token for one user must never stream another user's artifacts, no matter
// how the path was obtained.
func (s *Server) handleFileView(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, false)
}

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, true)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, attachment bool) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeErr(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	if !blob.OwnedBy(path, userID) {
		writeErr(w, http.StatusForbidden, fmt.Errorf("file is not owned by requester"))
		return
	}

	rc, err := s.store.Download(r.Context(), path)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", blob.ContentTypeForKey(path))
	if attachment {
		filename := strings.TrimSpace(r.URL.Query().Get("filename"))
		if filename == "" {
			if i := strings.LastIndex(path, "/"); i >= 0 {
				filename = path[i+1:]
			} else {
				filename = path
			}
		}
		filename = strings.ReplaceAll(filename, `"`, "")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Warn("stream file", "path", path, "error", err)
	}
}
