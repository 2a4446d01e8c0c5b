package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/ingest"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/search"
	"github.com/go-chi/chi/v5"
)

// QuoteStore is the part of the backend the HTTP layer reads directly.
type QuoteStore interface {
	LineItems(ctx context.Context, quoteID string) ([]models.CommitRequest, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	sessions  *search.Registry
	store     QuoteStore
	publisher ingest.Publisher
	channel   string
	logger    *slog.Logger
}

func NewHandler(sessions *search.Registry, store QuoteStore, pub ingest.Publisher, channel string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sessions: sessions, store: store, publisher: pub, channel: channel, logger: logger}
}

// session resolves {quoteID}, writing the error response itself on failure.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*search.Session, bool) {
	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "quoteID"))
	if err != nil {
		writeErr(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var f models.SearchFilters
	if _, err := decodeJSON(w, r, &f); err != nil {
		BadRequest(w, err.Error(), nil)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.RunSearch(r.Context(), f)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) GroupSearch(w http.ResponseWriter, r *http.Request) {
	var o models.GroupOverride
	present, err := decodeJSON(w, r, &o)
	if err != nil {
		BadRequest(w, err.Error(), nil)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var override *models.GroupOverride
	if present {
		override = &o
	}
	res, err := s.RunGroupSearch(r.Context(), chi.URLParam(r, "supplierCode"), override)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// IngestEvent feeds one push event straight into the quote's session.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		BadRequest(w, err.Error(), nil)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	out, err := s.IngestPushEvent(r.Context(), raw)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// PublishEvent puts an event on the push channel for every subscribed session.
func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		ServiceUnavailable(w, "push transport disabled", nil)
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		BadRequest(w, err.Error(), nil)
		return
	}
	if err := h.publisher.Publish(r.Context(), h.channel, raw); err != nil {
		writeErr(w, r, &models.TransportError{Op: "publish " + h.channel, Err: err})
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "published", "channel": h.channel})
}

type toggleRequest struct {
	SelectionKey string `json:"selectionKey"`
}

func (h *Handler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if _, err := decodeJSON(w, r, &req); err != nil {
		BadRequest(w, err.Error(), nil)
		return
	}
	if req.SelectionKey == "" {
		BadRequest(w, "selectionKey is required", nil)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	selected, err := s.ToggleSelection(r.Context(), req.SelectionKey)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"selectionKey": req.SelectionKey, "selected": selected})
}

func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.ClearSelection(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearResults(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.ClearResults(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resizeRequest struct {
	Count *int `json:"count"`
}

func (h *Handler) ResizeRooms(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if _, err := decodeJSON(w, r, &req); err != nil {
		BadRequest(w, err.Error(), nil)
		return
	}
	if req.Count == nil {
		BadRequest(w, "count is required", nil)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	rooms, err := s.SetRoomCount(r.Context(), *req.Count)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

type editRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (h *Handler) EditRoom(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		BadRequest(w, "room index must be a number", nil)
		return
	}
	var req editRequest
	if _, err := decodeJSON(w, r, &req); err != nil {
		BadRequest(w, err.Error(), nil)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	rooms, err := s.EditRoom(r.Context(), index, req.Field, req.Value)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	out, err := s.CommitSelected(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    out.Status,
		"summary":   out.Summary(),
		"succeeded": out.Succeeded,
		"failed":    out.Failed,
		"committed": out.Committed,
		"failures":  out.Failures,
	})
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	v, err := s.View(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap search.Snapshot
	if _, err := decodeJSONLimit(w, r, &snap, maxEventBytes); err != nil {
		BadRequest(w, err.Error(), nil)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Restore(r.Context(), snap); err != nil {
		writeErr(w, r, err)
		return
	}
	v, err := s.View(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Drop(chi.URLParam(r, "quoteID")) {
		NotFound(w, "no open session", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LineItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.LineItems(r.Context(), chi.URLParam(r, "quoteID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if items == nil {
		items = []models.CommitRequest{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"lineItems": items})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the quote backend answers.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		ServiceUnavailable(w, "store unavailable", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"sessions": len(h.sessions.QuoteIDs()),
	})
}
