// Package httpapi serves the topology pipeline over HTTP: snapshot upload
// and retrieval, graph and layout queries, and rendered artifacts.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/topolens/topolens/internal/metrics"
	apperrors "github.com/topolens/topolens/pkg/errors"
	"github.com/topolens/topolens/pkg/inventory"
	"github.com/topolens/topolens/pkg/pipeline"
	"github.com/topolens/topolens/pkg/scene"
	"github.com/topolens/topolens/pkg/store"
)

// Handler is the HTTP API surface.
type Handler struct {
	log          *log.Logger
	store        store.Store
	runner       *pipeline.Runner
	metrics      *metrics.Metrics
	maxBodyBytes int64
	theme        *scene.Theme
}

// NewHandler wires the store and pipeline runner into an HTTP handler.
// Metrics may be nil, which disables the scrape endpoint. A nil theme
// renders with the shipped palette.
func NewHandler(logger *log.Logger, st store.Store, runner *pipeline.Runner, m *metrics.Metrics, maxBodyBytes int64, theme *scene.Theme) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 20
	}
	return &Handler{
		log:          logger,
		store:        st,
		runner:       runner,
		metrics:      m,
		maxBodyBytes: maxBodyBytes,
		theme:        theme,
	}
}

// Router assembles the chi route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(h.accessLog)

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/snapshots", func(r chi.Router) {
				r.Get("/", h.handleListSnapshots)
				r.Post("/", h.handleCreateSnapshot)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.handleGetSnapshot)
					r.Delete("/", h.handleDeleteSnapshot)
					r.Get("/graph", h.handleGraph)
					r.Get("/layout", h.handleLayout)
					r.Get("/render", h.handleRender)
				})
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		h.log.Info("http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", elapsed)
		h.metrics.ObserveHTTPRequest(r.Method, routePattern(r), ww.Status(), elapsed)
	})
}

// routePattern returns the chi route template so metrics don't explode on
// per-id paths.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps application error codes onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeSnapshotNotFound, apperrors.ErrCodeNodeNotFound, apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidSnapshot, apperrors.ErrCodeInvalidFormat,
		apperrors.ErrCodeInvalidFocus, apperrors.ErrCodeInvalidCanvas:
		status = http.StatusBadRequest
	case "":
		code = apperrors.ErrCodeInternal
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
	}
	h.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    string(code),
			"message": apperrors.UserMessage(err),
		},
	})
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// =============================================================================
// Snapshot CRUD
// =============================================================================

func (h *Handler) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var snap inventory.Snapshot
	if err := decodeJSONStrict(r, &snap); err != nil {
		h.writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidSnapshot, err, "decode snapshot body"))
		return
	}
	if len(snap.VMs) == 0 && len(snap.Hosts) == 0 {
		h.writeError(w, apperrors.New(apperrors.ErrCodeInvalidSnapshot, "snapshot has no vms and no hosts"))
		return
	}

	name := r.URL.Query().Get("name")
	rec, err := h.store.Save(r.Context(), name, snap)
	if err != nil {
		h.writeError(w, err)
		return
	}

	meta := *rec
	meta.Snapshot = inventory.Snapshot{}
	h.writeJSON(w, http.StatusCreated, meta)
}

func (h *Handler) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []store.Record{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"snapshots": list})
}

func (h *Handler) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	rec, err := h.loadRecord(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := apperrors.ValidateSnapshotID(id); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Pipeline endpoints
// =============================================================================

func (h *Handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	rec, err := h.loadRecord(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	opts := pipeline.Options{
		SnapshotID: rec.ID,
		Focus:      r.URL.Query().Get("focus"),
	}
	g, err := h.runner.Build(r.Context(), rec.Snapshot, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, g)
}

func (h *Handler) handleLayout(w http.ResponseWriter, r *http.Request) {
	rec, err := h.loadRecord(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	opts, err := h.pipelineOptions(r, rec.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	g, err := h.runner.Build(r.Context(), rec.Snapshot, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	lay, err := h.runner.ComputeLayout(r.Context(), g, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lay)
}

var formatContentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	rec, err := h.loadRecord(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	opts, err := h.pipelineOptions(r, rec.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := apperrors.ValidateFormat(format); err != nil {
		h.writeError(w, err)
		return
	}
	opts.Formats = []string{format}

	result, err := h.runner.Execute(r.Context(), rec.Snapshot, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", formatContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) loadRecord(r *http.Request) (*store.Record, error) {
	id := chi.URLParam(r, "id")
	if err := apperrors.ValidateSnapshotID(id); err != nil {
		return nil, err
	}
	return h.store.Get(r.Context(), id)
}

// pipelineOptions reads the shared query parameters for layout and render.
func (h *Handler) pipelineOptions(r *http.Request, snapshotID string) (pipeline.Options, error) {
	opts := pipeline.Options{
		SnapshotID: snapshotID,
		Focus:      r.URL.Query().Get("focus"),
		Refresh:    r.URL.Query().Get("refresh") == "true",
		Detailed:   r.URL.Query().Get("detailed") == "true",
		Theme:      h.theme,
	}

	var err error
	if opts.Width, err = queryInt(r, "width"); err != nil {
		return opts, err
	}
	if opts.Height, err = queryInt(r, "height"); err != nil {
		return opts, err
	}

	if raw := r.URL.Query().Get("scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 || scale > 8 {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid scale: %q", raw)
		}
		opts.Scale = scale
	}

	return opts, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid %s: %q", name, raw)
	}
	return v, nil
}
