package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"pkt.systems/codepane/internal/logx"
	"pkt.systems/codepane/internal/persist"
	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

// Store is the authoritative tab collection.
type Store struct {
	cfg      schema.StoreConfig
	kv       persist.KV
	listener Listener
	logger   pslog.Logger
	newID    func() schema.TabID

	mu       sync.Mutex
	notifyMu sync.Mutex
	tabs     []schema.Tab
	active   schema.TabID
}

var _ Service = (*Store)(nil)

// NewStore restores the persisted snapshot or installs cfg.Initial and
// notifies the listener with the resulting state.
func NewStore(ctx context.Context, cfg schema.StoreConfig, deps StoreDeps) *Store {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = schema.NormalizeStoreConfig(cfg)
	if deps.Logger != nil {
		ctx = pslog.ContextWithLogger(ctx, deps.Logger)
	}
	logger := logx.Ctx(ctx)
	newIDFn := deps.NewID
	if newIDFn == nil {
		newIDFn = newID
	}
	s := &Store{
		cfg:      cfg,
		kv:       deps.KV,
		listener: deps.Listener,
		logger:   logger,
		newID:    newIDFn,
	}
	s.mu.Lock()
	write := s.initLocked(ctx)
	s.commitLocked(ctx, write)
	return s
}

func (s *Store) initLocked(ctx context.Context) bool {
	log := s.log(ctx)
	if s.kv != nil {
		data, ok, err := s.kv.Get(s.cfg.StorageKey)
		switch {
		case err != nil:
			log.Warn("store snapshot load failed", "err", err)
		case ok:
			tabs, err := decodeTabs(data)
			if err != nil {
				log.Warn("store snapshot corrupt", "err", err)
				break
			}
			if len(tabs) > 0 {
				repaired := s.restoreIDs(tabs)
				s.tabs = tabs
				s.active = tabs[0].ID
				log.Info("store snapshot restored", "count", len(tabs), "repaired", repaired)
				return repaired
			}
		}
	}
	for _, req := range s.cfg.Initial {
		s.appendLocked(req)
	}
	if len(s.tabs) == 0 {
		log.Debug("store init empty")
		return false
	}
	s.active = s.tabs[0].ID
	log.Info("store init from initial tabs", "count", len(s.tabs))
	return true
}

// restoreIDs keeps stored ids and replaces missing or duplicate ones.
func (s *Store) restoreIDs(tabs []schema.Tab) bool {
	taken := make(map[schema.TabID]struct{}, len(tabs))
	for _, tab := range tabs {
		taken[tab.ID] = struct{}{}
	}
	seen := make(map[schema.TabID]struct{}, len(tabs))
	repaired := false
	for i := range tabs {
		id := tabs[i].ID
		if _, dup := seen[id]; id == "" || dup {
			id = s.uniqueIDLocked(taken)
			taken[id] = struct{}{}
			tabs[i].ID = id
			repaired = true
		}
		seen[id] = struct{}{}
	}
	return repaired
}

func (s *Store) uniqueIDLocked(taken map[schema.TabID]struct{}) schema.TabID {
	for {
		id := s.newID()
		if id == "" {
			continue
		}
		if _, exists := taken[id]; exists {
			continue
		}
		if taken == nil && s.indexLocked(id) >= 0 {
			continue
		}
		return id
	}
}

func (s *Store) appendLocked(req schema.AddTabRequest) schema.Tab {
	req = schema.NormalizeAddTabRequest(req, len(s.tabs)+1)
	tab := schema.Tab{
		ID:       s.uniqueIDLocked(nil),
		Name:     req.Name,
		Language: req.Language,
		Content:  req.Content,
	}
	s.tabs = append(s.tabs, tab)
	return tab
}

// AddTab appends a tab with a fresh id and activates it.
func (s *Store) AddTab(ctx context.Context, req schema.AddTabRequest) schema.AddTabResponse {
	s.mu.Lock()
	tab := s.appendLocked(req)
	s.active = tab.ID
	log := logx.WithLanguage(s.log(ctx).With("tab", tab.ID), tab.Language)
	log.Info("store tab add ok", "name", tab.Name, "count", len(s.tabs))
	s.commitLocked(ctx, true)
	return schema.AddTabResponse{Tab: tab.Clone()}
}

// RemoveTab removes a tab. Removing the active tab activates the first
// remaining tab or clears the active id.
func (s *Store) RemoveTab(ctx context.Context, req schema.RemoveTabRequest) schema.RemoveTabResponse {
	log := logx.WithTab(ctx, req.TabID)
	s.mu.Lock()
	idx := s.indexLocked(req.TabID)
	if idx < 0 {
		active := s.active
		s.mu.Unlock()
		log.Debug("store tab remove ignored", "reason", "not found")
		return schema.RemoveTabResponse{ActiveTab: active}
	}
	s.tabs = append(s.tabs[:idx], s.tabs[idx+1:]...)
	if s.active == req.TabID {
		s.active = ""
		if len(s.tabs) > 0 {
			s.active = s.tabs[0].ID
		}
	}
	active := s.active
	log.Info("store tab remove ok", "count", len(s.tabs), "active", active)
	s.commitLocked(ctx, true)
	return schema.RemoveTabResponse{Removed: true, ActiveTab: active}
}

// SelectTab sets the active id. The active id is not part of the stored
// snapshot so nothing is written.
func (s *Store) SelectTab(ctx context.Context, req schema.SelectTabRequest) {
	s.mu.Lock()
	s.active = req.TabID
	logx.WithTab(ctx, req.TabID).Debug("store tab select ok")
	s.commitLocked(ctx, false)
}

// UpdateTab applies the non-nil fields of req in place.
func (s *Store) UpdateTab(ctx context.Context, req schema.UpdateTabRequest) schema.UpdateTabResponse {
	log := logx.WithTab(ctx, req.TabID)
	s.mu.Lock()
	idx := s.indexLocked(req.TabID)
	if idx < 0 {
		s.mu.Unlock()
		log.Debug("store tab update ignored", "reason", "not found")
		return schema.UpdateTabResponse{}
	}
	tab := &s.tabs[idx]
	changed := false
	if req.Name != nil && (tab.DropRaw("name") || *req.Name != tab.Name) {
		tab.Name = *req.Name
		changed = true
	}
	if req.Language != nil && (tab.DropRaw("language") || *req.Language != tab.Language) {
		tab.Language = *req.Language
		changed = true
	}
	if req.Content != nil && (tab.DropRaw("content") || *req.Content != tab.Content) {
		tab.Content = *req.Content
		changed = true
	}
	out := tab.Clone()
	if !changed {
		s.mu.Unlock()
		log.Trace("store tab update ignored", "reason", "unchanged")
		return schema.UpdateTabResponse{Tab: out}
	}
	logx.WithLanguage(log, out.Language).Debug("store tab update ok", "bytes", len(out.Content))
	s.commitLocked(ctx, true)
	return schema.UpdateTabResponse{Tab: out, Updated: true}
}

// UpdateContent replaces a tab's content.
func (s *Store) UpdateContent(ctx context.Context, tabID schema.TabID, content string) bool {
	return s.UpdateTab(ctx, schema.UpdateTabRequest{TabID: tabID, Content: &content}).Updated
}

// UpdateLanguage replaces a tab's language tag.
func (s *Store) UpdateLanguage(ctx context.Context, tabID schema.TabID, lang schema.Language) bool {
	return s.UpdateTab(ctx, schema.UpdateTabRequest{TabID: tabID, Language: &lang}).Updated
}

// UpdateName renames a tab.
func (s *Store) UpdateName(ctx context.Context, tabID schema.TabID, name schema.TabName) bool {
	return s.UpdateTab(ctx, schema.UpdateTabRequest{TabID: tabID, Name: &name}).Updated
}

// ClearAll empties the collection and deletes the stored snapshot.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	count := len(s.tabs)
	s.tabs = nil
	s.active = ""
	s.log(ctx).Info("store clear ok", "removed", count)
	s.commitLocked(ctx, true)
}

// ListTabs returns a copy of the current state.
func (s *Store) ListTabs(ctx context.Context) schema.TabsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.stateLocked()
	s.log(ctx).Trace("store tabs listed", "count", len(state.Tabs), "active", state.ActiveTab)
	return state
}

// ExportSnapshot serializes the collection as a pretty-printed JSON array.
func (s *Store) ExportSnapshot(ctx context.Context, now time.Time) (schema.ExportArtifact, error) {
	s.mu.Lock()
	tabs := s.stateLocked().Tabs
	s.mu.Unlock()
	if tabs == nil {
		tabs = []schema.Tab{}
	}
	data, err := json.MarshalIndent(tabs, "", "  ")
	if err != nil {
		s.log(ctx).Error("store export failed", "err", err)
		return schema.ExportArtifact{}, fmt.Errorf("export tabs: %w", err)
	}
	artifact := schema.ExportArtifact{
		Filename: ExportFilename(now),
		Data:     data,
	}
	s.log(ctx).Info("store export ok", "count", len(tabs), "filename", artifact.Filename)
	return artifact, nil
}

// ExportFilename returns the download name for a snapshot taken at now. The
// date is the UTC calendar date.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("%s-%s.json", schema.StorageKey, now.UTC().Format(time.DateOnly))
}

// ImportSnapshot replaces the collection with the tabs in data. Every tab
// receives a fresh id and the first becomes active. Invalid input leaves the
// state untouched.
func (s *Store) ImportSnapshot(ctx context.Context, data []byte) (schema.ImportTabsResponse, error) {
	log := s.log(ctx)
	tabs, err := decodeTabs(data)
	if err != nil {
		log.Warn("store import rejected", "err", err)
		return schema.ImportTabsResponse{}, err
	}
	s.mu.Lock()
	taken := make(map[schema.TabID]struct{}, len(tabs))
	for i := range tabs {
		id := s.uniqueIDLocked(taken)
		taken[id] = struct{}{}
		tabs[i].ID = id
	}
	s.tabs = tabs
	s.active = ""
	if len(tabs) > 0 {
		s.active = tabs[0].ID
	}
	resp := schema.ImportTabsResponse{Imported: len(tabs), ActiveTab: s.active}
	log.Info("store import ok", "count", resp.Imported, "active", resp.ActiveTab)
	s.commitLocked(ctx, true)
	return resp, nil
}

// decodeTabs parses a JSON array of tab records.
func decodeTabs(data []byte) ([]schema.Tab, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", schema.ErrImportInvalid)
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			var probe any
			err := json.Unmarshal(trimmed, &probe)
			return nil, fmt.Errorf("%w: %v", schema.ErrImportInvalid, err)
		}
		return nil, fmt.Errorf("%w: %w", schema.ErrImportInvalid, schema.ErrImportNotArray)
	}
	var tabs []schema.Tab
	if err := json.Unmarshal(trimmed, &tabs); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrImportInvalid, err)
	}
	return tabs, nil
}

// commitLocked persists when requested, then notifies the listener. It must be
// called with s.mu held and releases it.
func (s *Store) commitLocked(ctx context.Context, write bool) {
	if write {
		s.persistLocked(ctx)
	}
	state := s.stateLocked()
	event := schema.TabsEvent{Tabs: state.Tabs, ActiveTab: state.ActiveTab}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	if s.listener != nil {
		s.listener.OnTabsChanged(event)
	}
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.kv == nil {
		return
	}
	log := s.log(ctx)
	if len(s.tabs) == 0 {
		if err := s.kv.Delete(s.cfg.StorageKey); err != nil {
			log.Warn("store snapshot delete failed", "err", err)
			return
		}
		log.Trace("store snapshot deleted")
		return
	}
	data, err := json.Marshal(s.tabs)
	if err == nil {
		err = s.kv.Set(s.cfg.StorageKey, data)
	}
	if err != nil {
		log.Warn("store snapshot save failed", "err", err)
		return
	}
	log.Trace("store snapshot saved", "count", len(s.tabs), "bytes", len(data))
}

func (s *Store) stateLocked() schema.TabsState {
	return schema.TabsState{Tabs: s.tabs, ActiveTab: s.active}.Clone()
}

func (s *Store) indexLocked(id schema.TabID) int {
	if id == "" {
		return -1
	}
	for i, tab := range s.tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) log(ctx context.Context) pslog.Logger {
	if ctx == nil {
		return s.logger
	}
	return pslog.Ctx(ctx)
}
