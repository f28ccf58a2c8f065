package codepane

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"pkt.systems/codepane/core"
	"pkt.systems/codepane/httpapi"
	"pkt.systems/codepane/internal/markdown"
	"pkt.systems/codepane/internal/persist"
	"pkt.systems/codepane/internal/seed"
	"pkt.systems/codepane/preview"
	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

// Server composes the tab store, editor, preview pane and HTTP UI.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Store    schema.StoreConfig
	Storage  StorageConfig
	HTTP     httpapi.Config
	Seed     seed.Options
	Debounce time.Duration
}

// StorageConfig selects the KV backend.
type StorageConfig struct {
	Backend  persist.Backend
	StateDir string
	Path     string
	// KeyStorePath enables encryption at rest when set.
	KeyStorePath string
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	// KV overrides the configured storage backend.
	KV     persist.KV
	Logger pslog.Logger
	// Listener observes store changes alongside the hub and preview pane.
	Listener core.Listener
	// PreviewSink observes composed previews alongside the hub.
	PreviewSink preview.Sink
	Markdown    *markdown.Renderer
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
}

// WithHTTP enables the HTTP API/UI server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// New constructs a composable codepane server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP {
		return nil, errors.New("no services enabled")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	ctx := pslog.ContextWithLogger(context.Background(), logger)

	kv := deps.KV
	var closer io.Closer
	if kv == nil {
		opened, c, err := persist.Open(cfg.Storage.Backend, cfg.Storage.StateDir, cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		kv, closer = opened, c
	}
	kv, err := persist.WithEncryption(kv, cfg.Storage.KeyStorePath, logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}

	if len(cfg.Seed.Globs) > 0 {
		seeded, err := seed.Load(ctx, cfg.Seed)
		if err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			return nil, err
		}
		cfg.Store.Initial = append(cfg.Store.Initial, seeded...)
	}

	hub := httpapi.NewHub(cfg.HTTP.HubHistory, logger)
	var sink preview.Sink = hub
	if deps.PreviewSink != nil {
		sink = previewFanout{sinks: []preview.Sink{hub, deps.PreviewSink}}
	}
	pane := preview.NewPane(preview.NewComposer(deps.Markdown), sink, logger)
	listener := tabsFanout{listeners: []core.Listener{hub, pane, deps.Listener}}

	store := core.NewStore(ctx, cfg.Store, core.StoreDeps{
		KV:       kv,
		Listener: listener,
		Logger:   logger,
	})
	editor := core.NewEditor(store, cfg.Debounce)
	httpSrv := httpapi.NewServer(cfg.HTTP, store, editor, pane, hub)

	return &compositeServer{
		cfg:     cfg,
		options: options,
		store:   store,
		editor:  editor,
		httpSrv: httpSrv,
		closer:  closer,
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	store   *core.Store
	editor  *core.Editor
	httpSrv *httpapi.Server
	closer  io.Closer
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
	stopped bool

	// httpDone closes once the HTTP server has drained its handlers.
	httpDone chan struct{}
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
		"storage", s.cfg.Storage.Backend,
		"tabs", len(s.store.ListTabs(s.ctx).Tabs),
		"debounce", s.editor.Delay(),
	)
	if s.options.enableHTTP && s.httpSrv != nil {
		done := make(chan struct{})
		s.mu.Lock()
		s.httpDone = done
		s.mu.Unlock()
		go func() {
			defer close(done)
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

// Stop cancels the HTTP server, waits for in-flight handlers, commits any
// buffered edit and then closes storage.
func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	stopped := s.stopped
	s.stopped = true
	log := s.logger
	httpDone := s.httpDone
	s.mu.Unlock()
	if !started || stopped {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}

	var stopErr error
	if httpDone != nil {
		select {
		case <-httpDone:
			log.Debug("server http drained")
		case <-ctx.Done():
			stopErr = ctx.Err()
			log.Warn("server stop timed out", "err", stopErr)
		}
	}
	if s.editor != nil && s.editor.Flush(s.ctx) {
		log.Info("server pending edit flushed")
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			log.Warn("server storage close failed", "err", err)
		} else {
			log.Info("server storage close ok")
		}
	}
	if stopErr != nil {
		return stopErr
	}
	log.Info("server stopped")
	return nil
}
