package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docchat/internal/config"
	"docchat/internal/models"
	"docchat/internal/providers"
	"docchat/internal/qa"
	"docchat/internal/storage"
	"docchat/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg       config.Config
	db        *storage.DB
	store     *storage.Store
	providers *providers.Manager
	qa        *qa.Service
	temporal  tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	if err := db.Init(ctx, cfg.EmbedDim); err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	store := storage.NewStore(db)
	return &Server{
		cfg:       cfg,
		db:        db,
		store:     store,
		providers: pm,
		qa:        qa.NewService(cfg, store, pm),
		temporal:  tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/documents/", s.handleDocumentsScoped)
	mux.HandleFunc("/ask", s.handleAsk)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Name            string          `json:"name"`
		Content         string          `json:"content"`
		StructuredFacts json.RawMessage `json:"structured_facts,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("content is required"))
		return
	}

	documentID := uuid.NewString()
	doc := models.Document{
		DocumentID:      documentID,
		Name:            req.Name,
		RawContent:      req.Content,
		StructuredFacts: req.StructuredFacts,
		Status:          "pending",
	}
	if err := s.store.Documents.UpsertDocument(r.Context(), doc); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"document_id": documentID, "name": req.Name, "status": "pending"})
}

func (s *Server) handleDocumentsScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/documents/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	documentID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		doc, err := s.store.GetDocument(r.Context(), documentID)
		if errors.Is(err, storage.ErrDocumentNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
		return
	}

	if len(parts) == 2 && parts[1] == "ingest" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		if _, err := s.store.GetDocument(r.Context(), documentID); err != nil {
			if errors.Is(err, storage.ErrDocumentNotFound) {
				writeErr(w, http.StatusNotFound, err)
			} else {
				writeErr(w, http.StatusInternalServerError, err)
			}
			return
		}
		wfID := "ingest-" + documentID
		we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
			ID:                                       wfID,
			TaskQueue:                                s.cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
		}, workflows.DocumentIngestWorkflow, workflows.DocumentIngestInput{
			DocumentID:   documentID,
			ChunkSize:    s.cfg.ChunkSize,
			ChunkOverlap: s.cfg.ChunkOverlap,
		})
		if err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": we.GetID(), "run_id": we.GetRunID()})
		return
	}

	if len(parts) == 2 && parts[1] == "progress" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		var prog workflows.DocumentIngestProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), "ingest-"+documentID, "", workflows.QueryGetIngestProgress)
		if err != nil {
			// Fallback to DB-derived progress when no active workflow query is available.
			doc, dErr := s.store.GetDocument(r.Context(), documentID)
			if errors.Is(dErr, storage.ErrDocumentNotFound) {
				writeErr(w, http.StatusNotFound, dErr)
				return
			}
			if dErr != nil {
				writeErr(w, http.StatusInternalServerError, dErr)
				return
			}
			writeJSON(w, http.StatusOK, workflows.DocumentIngestProgress{
				DocumentID: documentID,
				Status:     doc.Status,
				FailReason: doc.FailReason,
			})
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
		return
	}

	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req qa.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	resp, err := s.qa.AnswerQuestion(r.Context(), req)
	if errors.Is(err, qa.ErrMissingInput) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("question and one of document_id or inline_content are required"))
		return
	}
	if errors.Is(err, qa.ErrDocumentNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
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

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "DC-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "DC-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "DC-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "DC-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "DC-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "DC-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "DC-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "DC-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusBadGateway:
		code = "DC-API-5020"
		msg = "Upstream provider unavailable. Retry shortly."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "name is required"):
			msg = "Document name is required."
		case strings.Contains(low, "content is required"):
			msg = "Document content is required."
		case strings.Contains(low, "question and one of"):
			msg = "A question and either a document id or inline content are required."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
