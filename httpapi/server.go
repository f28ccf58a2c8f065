package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/codepane/core"
	"pkt.systems/codepane/internal/logx"
	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

const defaultMaxImportBytes = 8 << 20

// PreviewContentSecurityPolicy is sent with composed preview documents.
const PreviewContentSecurityPolicy = "sandbox allow-scripts allow-same-origin"

// Editor buffers content edits ahead of the store.
type Editor interface {
	Edit(ctx context.Context, tabID schema.TabID, content string)
	Flush(ctx context.Context) bool
	Cancel() bool
	Delay() time.Duration
}

// Previewer exposes the composed preview of the active tab.
type Previewer interface {
	Result() schema.PreviewResult
	SetMode(mode schema.PreviewMode) (schema.PreviewResult, error)
}

// Server serves the HTTP API and UI.
type Server struct {
	cfg      Config
	service  core.Service
	editor   Editor
	preview  Previewer
	hub      *Hub
	basePath string
	baseHref string
	now      func() time.Time
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, service core.Service, editor Editor, preview Previewer, hub *Hub) *Server {
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = defaultMaxImportBytes
	}
	return &Server{
		cfg:      cfg,
		service:  service,
		editor:   editor,
		preview:  preview,
		hub:      hub,
		basePath: normalizeBasePath(cfg.BasePath),
		baseHref: buildBaseHref(cfg.BaseURL, cfg.BasePath),
		now:      time.Now,
	}
}

// SetClock replaces the clock used for export filenames.
func (s *Server) SetClock(now func() time.Time) {
	if s == nil || now == nil {
		return
	}
	s.now = now
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", http.StripPrefix("/assets/", assetHandler()))
	mux.HandleFunc("/preview", s.handlePreviewDocument)

	mux.HandleFunc("/api/languages", s.handleLanguages)
	mux.HandleFunc("/api/tabs", s.handleTabs)
	mux.HandleFunc("/api/tabs/select", s.handleSelect)
	mux.HandleFunc("/api/tabs/update", s.handleUpdate)
	mux.HandleFunc("/api/tabs/remove", s.handleRemove)
	mux.HandleFunc("/api/tabs/clear", s.handleClear)
	mux.HandleFunc("/api/edit", s.handleEdit)
	mux.HandleFunc("/api/edit/flush", s.handleFlush)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)
	mux.HandleFunc("/api/preview", s.handlePreview)
	mux.HandleFunc("/api/preview/mode", s.handlePreviewMode)
	mux.HandleFunc("/api/stream", s.handleStream)

	return mountAt(s.basePath, withRequestLogging(mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := fs.ReadFile(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	stat, err := fs.Stat(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	data = applyBaseHref(data, s.baseHref)
	data = applyDebounceMS(data, s.editorDelay())
	reader := bytes.NewReader(data)
	http.ServeContent(w, r, "index.html", stat.ModTime(), reader)
}

const debounceMSPlaceholder = "EDITOR_DEBOUNCE_MS"

func applyDebounceMS(data []byte, delay time.Duration) []byte {
	if delay <= 0 {
		delay = schema.DefaultDebounce
	}
	replacement := []byte(strconv.FormatInt(delay.Milliseconds(), 10))
	return bytes.ReplaceAll(data, []byte(debounceMSPlaceholder), replacement)
}

func (s *Server) editorDelay() time.Duration {
	if s.editor == nil {
		return schema.DefaultDebounce
	}
	return s.editor.Delay()
}

type tabPayload struct {
	TabID    schema.TabID    `json:"tab_id"`
	Name     *schema.TabName `json:"name,omitempty"`
	Language *string         `json:"language,omitempty"`
	Content  *string         `json:"content,omitempty"`
}

type addTabPayload struct {
	Name     schema.TabName `json:"name"`
	Language string         `json:"language"`
	Content  string         `json:"content"`
}

type editPayload struct {
	TabID   schema.TabID `json:"tab_id"`
	Content string       `json:"content"`
}

type modePayload struct {
	Mode string `json:"mode"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": schema.Languages()})
}

func (s *Server) handleTabs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := pslog.Ctx(ctx)
	switch r.Method {
	case http.MethodGet:
		state := s.service.ListTabs(ctx)
		log.Debug("http tabs list ok", "count", len(state.Tabs))
		writeJSON(w, http.StatusOK, state)
	case http.MethodPost:
		var req addTabPayload
		if err := decodeJSON(r.Body, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var lang schema.Language
		if strings.TrimSpace(req.Language) != "" {
			parsed, err := schema.ParseLanguage(req.Language)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			lang = parsed
		}
		s.flushEditor(ctx)
		resp := s.service.AddTab(ctx, schema.AddTabRequest{Name: req.Name, Language: lang, Content: req.Content})
		logx.WithTab(ctx, resp.Tab.ID).Info("http tab add ok", "language", resp.Tab.Language)
		writeJSON(w, http.StatusOK, map[string]any{"tab": resp.Tab})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	var req tabPayload
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.flushEditor(ctx)
	if !s.tabExists(ctx, req.TabID) {
		writeError(w, http.StatusNotFound, schema.ErrTabNotFound)
		return
	}
	s.service.SelectTab(ctx, schema.SelectTabRequest{TabID: req.TabID})
	logx.WithTab(ctx, req.TabID).Info("http tab select ok")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "active_tab": req.TabID})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	var req tabPayload
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	update := schema.UpdateTabRequest{TabID: req.TabID, Name: req.Name, Content: req.Content}
	if req.Language != nil {
		lang, err := schema.ParseLanguage(*req.Language)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		update.Language = &lang
	}
	s.flushEditor(ctx)
	resp := s.service.UpdateTab(ctx, update)
	if resp.Tab.ID == "" {
		writeError(w, http.StatusNotFound, schema.ErrTabNotFound)
		return
	}
	logx.WithTab(ctx, req.TabID).Info("http tab update ok", "updated", resp.Updated)
	writeJSON(w, http.StatusOK, map[string]any{"tab": resp.Tab, "updated": resp.Updated})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	var req tabPayload
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.flushEditor(ctx)
	resp := s.service.RemoveTab(ctx, schema.RemoveTabRequest{TabID: req.TabID})
	logx.WithTab(ctx, req.TabID).Info("http tab remove ok", "removed", resp.Removed, "active", resp.ActiveTab)
	writeJSON(w, http.StatusOK, map[string]any{"removed": resp.Removed, "active_tab": resp.ActiveTab})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	if s.editor != nil {
		s.editor.Cancel()
	}
	s.service.ClearAll(ctx)
	pslog.Ctx(ctx).Info("http tabs clear ok")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	var req editPayload
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.TabID == "" {
		writeError(w, http.StatusBadRequest, schema.ErrInvalidRequest)
		return
	}
	if !s.tabExists(ctx, req.TabID) {
		writeError(w, http.StatusNotFound, schema.ErrTabNotFound)
		return
	}
	if s.editor == nil {
		s.service.UpdateContent(ctx, req.TabID, req.Content)
		writeJSON(w, http.StatusOK, map[string]any{"pending": false})
		return
	}
	s.editor.Edit(ctx, req.TabID, req.Content)
	logx.WithTab(ctx, req.TabID).Debug("http edit buffered", "bytes", len(req.Content))
	writeJSON(w, http.StatusAccepted, map[string]any{"pending": true, "debounce_ms": s.editor.Delay().Milliseconds()})
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flushed := s.flushEditor(r.Context())
	pslog.Ctx(r.Context()).Debug("http edit flush ok", "flushed", flushed)
	writeJSON(w, http.StatusOK, map[string]any{"flushed": flushed})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	s.flushEditor(ctx)
	artifact, err := s.service.ExportSnapshot(ctx, s.now())
	if err != nil {
		pslog.Ctx(ctx).Warn("http export failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	pslog.Ctx(ctx).Info("http export ok", "filename", artifact.Filename, "bytes", len(artifact.Data))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	if s.editor != nil {
		s.editor.Cancel()
	}
	resp, err := s.service.ImportSnapshot(ctx, data)
	if err != nil {
		pslog.Ctx(ctx).Warn("http import rejected", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pslog.Ctx(ctx).Info("http import ok", "tabs", resp.Imported, "active", resp.ActiveTab)
	writeJSON(w, http.StatusOK, map[string]any{"imported": resp.Imported, "active_tab": resp.ActiveTab})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.preview.Result())
}

func (s *Server) handlePreviewMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	var req modePayload
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, err := schema.ParsePreviewMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.preview.SetMode(mode)
	if err != nil {
		logx.WithMode(pslog.Ctx(ctx), mode).Info("http preview mode rejected", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	logx.WithMode(pslog.Ctx(ctx), result.Mode).Info("http preview mode ok")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePreviewDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	result := s.preview.Result()
	w.Header().Set("Cache-Control", "no-store")
	if result.Empty {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", PreviewContentSecurityPolicy)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, result.Document)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := pslog.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	// Subscribe before reading state so no change between the snapshot and
	// the live stream is lost.
	ch, unsubscribe, seq, history := s.hub.Subscribe()
	defer unsubscribe()

	snapshot := s.buildSnapshot(r.Context())
	_ = writeSSEvent(w, StreamEvent{
		Type:      EventSnapshot,
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
	flusher.Flush()

	replayCount := 0
	if lastID > 0 {
		replay := replayFrom(history, lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
		flusher.Flush()
	}

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "seq", seq, "replay", replayCount, "tabs", len(snapshot.Tabs.Tabs))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) buildSnapshot(ctx context.Context) SnapshotPayload {
	return SnapshotPayload{
		Tabs:    s.service.ListTabs(ctx),
		Preview: s.preview.Result(),
	}
}

func (s *Server) tabExists(ctx context.Context, id schema.TabID) bool {
	if id == "" {
		return false
	}
	for _, tab := range s.service.ListTabs(ctx).Tabs {
		if tab.ID == id {
			return true
		}
	}
	return false
}

func (s *Server) flushEditor(ctx context.Context) bool {
	if s.editor == nil {
		return false
	}
	return s.editor.Flush(ctx)
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
