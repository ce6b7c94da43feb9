package api

import (
	"net/http"
	"strconv"
	"strings"

	"mindsy/internal/auth"

	"github.com/google/uuid"
)

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	notifications, err := s.notifRepo.List(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *Server) handleNotificationsScoped(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/notifications/"), "/")
	if rest == "" {
		writeErr(w, http.StatusNotFound, nil)
		return
	}

	if rest == "read-all" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, nil)
			return
		}
		if err := s.notifRepo.MarkAllRead(r.Context(), userID); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"read": "all"})
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	notificationID := parts[0]
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}
	if _, err := uuid.Parse(notificationID); err != nil {
		writeErr(w, http.StatusNotFound, nil)
		return
	}

	switch {
	case sub == "read" && r.Method == http.MethodPost:
		if err := s.notifRepo.MarkRead(r.Context(), userID, notificationID); err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"read": notificationID})
	case sub == "" && r.Method == http.MethodDelete:
		if err := s.notifRepo.Delete(r.Context(), userID, notificationID); err != nil {
			writeRepoErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": notificationID})
	case sub == "" || sub == "read":
		writeErr(w, http.StatusMethodNotAllowed, nil)
	default:
		writeErr(w, http.StatusNotFound, nil)
	}
}
