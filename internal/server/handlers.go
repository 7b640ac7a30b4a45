package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salulink/specialist-aid/internal/analysis"
	"github.com/salulink/specialist-aid/internal/matcher"
	"github.com/salulink/specialist-aid/internal/models"
	"github.com/salulink/specialist-aid/internal/notes"
	"github.com/salulink/specialist-aid/internal/storage"
)

const analysisIDHeader = "X-Analysis-ID"

// envelopeSlack allows for the JSON wrapping around a note of max_note_bytes.
const envelopeSlack = 4 << 10

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": ServiceName, "version": s.version})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Status()
	if !st.Ready {
		body := map[string]string{"status": "not ready"}
		if st.LastError != "" {
			body["error"] = st.LastError
		}
		s.respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ready", "conditions": st.Conditions})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.config.Server.MaxNoteBytes
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes+envelopeSlack))
	}
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "note too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(maxBytes); err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	s.analyze(w, r, req.Text, req.IncludeContext)
}

func (s *Server) handleAnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.config.Server.MaxNoteBytes)
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+envelopeSlack)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "note too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	text, err := s.notes.ReadBytes(content, filepath.Ext(header.Filename))
	switch {
	case errors.Is(err, notes.ErrTooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, notes.ErrUnsupportedFormat):
		s.respondError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case err != nil:
		s.logger.Debug("note upload unreadable", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusBadRequest, "could not read note: "+err.Error())
		return
	}
	includeContext, _ := strconv.ParseBool(r.FormValue("include_context"))
	s.analyze(w, r, text, includeContext)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, text string, includeContext bool) {
	var opts []analysis.AnalyzeOption
	if includeContext {
		opts = append(opts, analysis.WithContextTerms())
	}
	id := uuid.NewString()
	result, err := s.engine.Analyze(r.Context(), text, opts...)
	if err != nil {
		s.respondEngineError(w, "analysis failed", err)
		return
	}
	s.logger.Debug("analysis complete",
		zap.String("analysis_id", id),
		zap.Int("terms", len(result.ExtractedTerms)),
		zap.Int("matches", len(result.MatchedConditions)),
	)
	w.Header().Set(analysisIDHeader, id)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	conditions, err := s.engine.Conditions()
	if err != nil {
		s.respondEngineError(w, "list conditions failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, conditions)
}

func (s *Server) handleConditionSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit := s.config.Search.DefaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if maxLimit := s.config.Search.MaxLimit; maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	fuzzy := false
	if v := q.Get("fuzzy"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "fuzzy must be a boolean")
			return
		}
		fuzzy = b
	}
	resp, err := s.engine.SearchConditions(r.Context(), query, limit, fuzzy)
	if err != nil {
		s.respondEngineError(w, "condition search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTreatmentBaskets(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusServiceUnavailable, "treatment baskets not configured")
		return
	}
	code := chi.URLParam(r, "code")
	baskets, err := s.catalog.GetBaskets(r.Context(), code)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "no treatment baskets for "+code)
		return
	}
	if err != nil {
		s.logger.Error("treatment basket lookup failed", zap.String("code", code), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, baskets)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := models.StatusResponse{
		Version: s.version,
		Engine:  s.engine.Status(),
	}
	if s.catalog != nil {
		cat, err := storage.Stats(r.Context(), s.catalog, s.config.Storage.DatabasePath)
		if err != nil {
			s.logger.Error("status: catalogue stats failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Catalog = cat
	}
	if s.watch != nil {
		resp.Watched = s.watch.Files()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondEngineError maps engine failures: not ready and cancelled requests are 503,
// anything else is 500.
func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, matcher.ErrNotReady):
		s.respondError(w, http.StatusServiceUnavailable, "service not ready")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, msg+": "+err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
