package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/usecase"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{false, msg})
}

// errStatus maps domain errors onto HTTP codes.
func errStatus(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEngineUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/trigger-scraping
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req usecase.TriggerScrapingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.triggerUC.Start(ctx, req)
	if err != nil {
		code := errStatus(err)
		if code == http.StatusBadGateway {
			writeError(w, code, "failed to start scraping process")
			return
		}
		writeError(w, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success     bool   `json:"success"`
		SessionID   string `json:"sessionId"`
		ExecutionID string `json:"executionId"`
		Status      string `json:"status"`
	}{true, session.ID, session.ExecutionID, string(session.Status)})
}

// POST /api/scraping-results — callback from the workflow engine.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	session, err := s.ingestUC.Ingest(ctx, body)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success     bool   `json:"success"`
		SessionID   string `json:"sessionId"`
		TotalVideos int    `json:"totalVideos"`
	}{true, session.ID, session.TotalVideos})
}

// POST /api/n8n-proxy — verbatim forward; the webhook is chosen by the
// presence of a hashtags field in the payload.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var probe struct {
		Hashtags []string `json:"hashtags"`
	}
	_ = json.Unmarshal(body, &probe)

	status, respBody, err := s.forwarder.Forward(ctx, body, len(probe.Hashtags) > 0)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to reach workflow engine")
		return
	}

	resp := struct {
		Success  bool            `json:"success"`
		Status   int             `json:"status"`
		Response json.RawMessage `json:"response"`
	}{
		Success: status >= 200 && status < 300,
		Status:  status,
	}
	if json.Valid(respBody) {
		resp.Response = respBody
	} else {
		quoted, _ := json.Marshal(string(respBody))
		resp.Response = quoted
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/scraping-sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessionUC.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success  bool                     `json:"success"`
		Sessions []*model.ScrapingSession `json:"sessions"`
		Total    int                      `json:"total"`
	}{true, sessions, len(sessions)})
}

// GET /api/scraping-sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessionUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Session *model.ScrapingSession `json:"session"`
	}{true, session})
}

// GET /api/results — the global append-only pool.
func (s *Server) handleAllResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.sessionUC.AllResults(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Results []model.ScrapingResult `json:"results"`
		Total   int                    `json:"total"`
	}{true, results, len(results)})
}

// GET /api/results/{sessionId} — the polling read path.
func (s *Server) handleSessionResults(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessionUC.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success     bool                   `json:"success"`
		SessionID   string                 `json:"sessionId"`
		Status      string                 `json:"status"`
		Results     []model.ScrapingResult `json:"results"`
		TotalVideos int                    `json:"totalVideos"`
	}{true, session.ID, string(session.Status), session.Results, session.TotalVideos})
}

// PUT /api/scraping-results/{id} — full-session replace.
func (s *Server) handleReplaceSession(w http.ResponseWriter, r *http.Request) {
	var updated model.ScrapingSession
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.sessionUC.Replace(r.Context(), chi.URLParam(r, "id"), &updated)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Session *model.ScrapingSession `json:"session"`
	}{true, session})
}

// DELETE /api/scraping-results/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessionUC.Delete(r.Context(), id); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{true, "session deleted"})
}
