package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"mindsy/internal/auth"
	"mindsy/internal/blob"
	"mindsy/internal/config"
	"mindsy/internal/logger"
	"mindsy/internal/models"
	"mindsy/internal/providers"
	"mindsy/internal/storage"

	tclient "go.temporal.io/sdk/client"
)

// The handler layer depends on these store interfaces rather than the
// concrete pgx repos; storage.* satisfies them in production.
type jobStore interface {
	Create(ctx context.Context, j models.Job) error
	GetByID(ctx context.Context, userID, jobID string) (models.Job, error)
	LatestByAudioPath(ctx context.Context, userID, audioPath string) (models.Job, error)
	List(ctx context.Context, userID string, f storage.JobFilter) ([]models.Job, error)
	UpdateMeta(ctx context.Context, userID, jobID, title, subject string, studyNodeID *string) error
	Delete(ctx context.Context, userID, jobID string) error
}

type noteStore interface {
	GetByJob(ctx context.Context, userID, jobID string) (models.Note, error)
	UpdateContent(ctx context.Context, userID, jobID, content string) error
	SearchContent(ctx context.Context, userID, query string, limit int) ([]models.Note, error)
}

type studyNodeStore interface {
	Create(ctx context.Context, n models.StudyNode) error
	GetByID(ctx context.Context, userID, nodeID string) (models.StudyNode, error)
	ListRoots(ctx context.Context, userID string) ([]models.StudyNode, error)
	ListChildren(ctx context.Context, userID, nodeID string) ([]models.StudyNode, error)
	ListDescendants(ctx context.Context, userID, nodeID string, maxDepth int) ([]models.StudyNode, error)
	ListWithCounts(ctx context.Context, userID string) ([]models.StudyNode, error)
	ListPinned(ctx context.Context, userID string) ([]models.StudyNode, error)
	Update(ctx context.Context, n models.StudyNode) error
	Delete(ctx context.Context, userID, nodeID string) error
	CheckParent(ctx context.Context, userID, nodeID string, parentID *string) error
}

type notificationStore interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
}

type subscriptionStore interface {
	Upsert(ctx context.Context, s models.Subscription) error
	UserIDForCustomer(ctx context.Context, customerID string) (string, error)
}

type Server struct {
	cfg       config.Config
	log       *logger.Logger
	db        *storage.DB
	jobRepo   jobStore
	noteRepo  noteStore
	nodeRepo  studyNodeStore
	notifRepo notificationStore
	subRepo   subscriptionStore
	store     blob.Store
	verifier  *auth.Verifier
	temporal  tclient.Client
}

func NewServer(cfg config.Config, log *logger.Logger, store blob.Store, tc tclient.Client) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		panic(err)
	}
	return &Server{
		cfg:       cfg,
		log:       log,
		db:        db,
		jobRepo:   storage.NewJobRepo(db),
		noteRepo:  storage.NewNoteRepo(db),
		nodeRepo:  storage.NewStudyNodeRepo(db),
		notifRepo: storage.NewNotificationRepo(db),
		subRepo:   storage.NewSubscriptionRepo(db),
		store:     store,
		verifier:  auth.NewVerifier(cfg.JWTSecret),
		temporal:  tc,
	}
}

func (s *Server) Routes() http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("/api/generate", s.handleGenerate)
	protected.HandleFunc("/api/notes", s.handleNotes)
	protected.HandleFunc("/api/notes/", s.handleNotesScoped)
	protected.HandleFunc("/api/studies/nodes", s.handleStudyNodes)
	protected.HandleFunc("/api/studies/nodes/", s.handleStudyNodesScoped)
	protected.HandleFunc("/api/files/view", s.handleFileView)
	protected.HandleFunc("/api/files/download", s.handleFileDownload)
	protected.HandleFunc("/api/notifications", s.handleNotifications)
	protected.HandleFunc("/api/notifications/", s.handleNotificationsScoped)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/stripe/webhook", s.handleStripeWebhook)
	mux.Handle("/api/", auth.RequireAuth(s.verifier)(protected))
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type apiError struct {
	Code    string
	Message string
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "MS-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500 && status != http.StatusBadGateway:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "MS-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "MS-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "MS-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "MS-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusUnauthorized:
		code = "MS-API-4010"
		msg = "Authentication required."
	case status == http.StatusForbidden:
		code = "MS-API-4030"
		msg = "You do not have access to this resource."
	case status == http.StatusNotFound:
		code = "MS-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "MS-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusBadGateway:
		switch providers.ClassifyError(err) {
		case providers.ErrorQuota:
			return apiError{
				Code:    "MS-API-5021",
				Message: "Provider quota exhausted. Check plan limits before retrying.",
			}
		case providers.ErrorRate:
			return apiError{
				Code:    "MS-API-5022",
				Message: "Provider rate limit hit. Retry shortly.",
			}
		case providers.ErrorTransient:
			return apiError{
				Code:    "MS-API-5023",
				Message: "Upstream provider temporarily unavailable. Retry shortly.",
			}
		}
		code = "MS-API-5020"
		msg = "Upstream provider unavailable. Retry shortly."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "lecture_title is required"):
			msg = "A lecture title is required."
		case strings.Contains(raw, "file_path is required"):
			msg = "A source file path is required."
		case strings.Contains(raw, "name is required"):
			msg = "A node name is required."
		case strings.Contains(raw, "content is required"):
			msg = "Note content is required."
		case strings.Contains(raw, "path is required"):
			msg = "A file path is required."
		case strings.Contains(raw, "invalid node type"):
			msg = "Node type must be one of course, year, subject, semester, custom."
		case strings.Contains(raw, "cycle"):
			msg = "Moving the node there would create a cycle."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
