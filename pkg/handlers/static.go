package handlers

import (
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// StaticHandler serves the single-page UI. Files that exist in the bundle
// are served as-is; any other path falls back to index.html so client-side
// routes survive a browser refresh. API and auth paths never reach this
// handler because the mux routes them first.
type StaticHandler struct {
	dist   fs.FS
	server http.Handler
	logger *zap.Logger
}

// NewStaticHandler creates a handler serving the given UI filesystem.
func NewStaticHandler(dist fs.FS, logger *zap.Logger) *StaticHandler {
	return &StaticHandler{
		dist:   dist,
		server: http.FileServerFS(dist),
		logger: logger,
	}
}

// RegisterRoutes registers the catch-all UI route on the given mux.
func (h *StaticHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/", h)
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}

	if _, err := fs.Stat(h.dist, path); err == nil {
		h.server.ServeHTTP(w, r)
		return
	}

	// SPA fallback: unknown paths get the app shell, which routes client-side.
	index, err := fs.ReadFile(h.dist, "index.html")
	if err != nil {
		h.logger.Error("UI bundle missing index.html", zap.Error(err))
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(index); err != nil {
		h.logger.Error("Failed to write index.html", zap.Error(err))
	}
}
