package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/cache"
	"github.com/sakif/readme-widgets/internal/clock"
	"github.com/sakif/readme-widgets/internal/controller"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/widget"
)

const DefaultMaxPreviews = 256

// PreviewOptions configures a PreviewService.
type PreviewOptions struct {
	Widgets      *WidgetService // required
	Clock        clock.Clock
	Debounce     time.Duration
	Timeout      time.Duration
	CacheSize    int           // per widget type
	CacheTTL     time.Duration // generation cache entry lifetime
	MaxPreviews  int
	Logger       *slog.Logger
	OnCount      func(active int)
	OnCacheProbe func(hit bool)
}

// PreviewService keeps one controller per editor widget, keyed by an opaque
// preview id. Every controller of a widget type shares that type's generation
// cache, so two editors previewing the same config render it once.
type PreviewService struct {
	widgets  *WidgetService
	clock    clock.Clock
	debounce time.Duration
	timeout  time.Duration
	max      int
	logger   *slog.Logger
	onCount  func(int)

	caches map[widget.Type]*controller.Cache

	mu       sync.Mutex
	previews map[string]*preview
}

type preview struct {
	typ     widget.Type
	ctrl    *controller.Controller
	touched time.Time
}

// PreviewResult is what a preview update returns to the editor.
type PreviewResult struct {
	ID       string              `json:"id"`
	Type     widget.Type         `json:"type"`
	Snapshot controller.Snapshot `json:"snapshot"`
	Notes    []string            `json:"notes,omitempty"`
}

func NewPreviewService(opts PreviewOptions) (*PreviewService, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.MaxPreviews <= 0 {
		opts.MaxPreviews = DefaultMaxPreviews
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	caches := make(map[widget.Type]*controller.Cache, len(widget.Types))
	for _, t := range widget.Types {
		c, err := cache.New[uint64, model.Artifact](opts.CacheSize, opts.CacheTTL, opts.Clock)
		if err != nil {
			return nil, err
		}
		c.OnLookup = opts.OnCacheProbe
		caches[t] = c
	}

	return &PreviewService{
		widgets:  opts.Widgets,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		timeout:  opts.Timeout,
		max:      opts.MaxPreviews,
		logger:   opts.Logger,
		onCount:  opts.OnCount,
		caches:   caches,
		previews: make(map[string]*preview),
	}, nil
}

// Update feeds a config edit to the preview id, creating it when id is empty or
// unknown. Changing a preview's widget type replaces its controller.
func (s *PreviewService) Update(id string, t widget.Type, raw widget.Params) (PreviewResult, error) {
	cfg, notes, err := s.widgets.Prepare(t, raw)
	if err != nil {
		return PreviewResult{}, err
	}

	s.mu.Lock()
	if id == "" {
		id = xid.New().String()
	}
	p, ok := s.previews[id]
	if ok && p.typ != t {
		p.ctrl.Close()
		delete(s.previews, id)
		ok = false
	}
	if !ok {
		if p, err = s.open(t); err != nil {
			s.mu.Unlock()
			return PreviewResult{}, err
		}
		s.evict(id)
		s.previews[id] = p
	}
	p.touched = s.clock.Now()
	count := len(s.previews)
	s.mu.Unlock()

	s.count(count)
	p.ctrl.Update(cfg)
	return PreviewResult{ID: id, Type: t, Snapshot: p.ctrl.Snapshot(), Notes: notes}, nil
}

// Snapshot returns the preview's current state.
func (s *PreviewService) Snapshot(id string) (PreviewResult, error) {
	p, err := s.get(id)
	if err != nil {
		return PreviewResult{}, err
	}
	return PreviewResult{ID: id, Type: p.typ, Snapshot: p.ctrl.Snapshot()}, nil
}

// Retry regenerates a failed preview. Retrying a preview that has not failed is
// a conflict.
func (s *PreviewService) Retry(id string) (PreviewResult, error) {
	p, err := s.get(id)
	if err != nil {
		return PreviewResult{}, err
	}
	if !p.ctrl.Retry() {
		return PreviewResult{}, apperror.Conflict("preview", id)
	}
	return PreviewResult{ID: id, Type: p.typ, Snapshot: p.ctrl.Snapshot()}, nil
}

// Close stops and forgets a preview.
func (s *PreviewService) Close(id string) error {
	s.mu.Lock()
	p, ok := s.previews[id]
	delete(s.previews, id)
	count := len(s.previews)
	s.mu.Unlock()

	if !ok {
		return apperror.NotFound("preview", id)
	}
	p.ctrl.Close()
	s.count(count)
	return nil
}

// Prune closes previews untouched for longer than idle and reports how many.
func (s *PreviewService) Prune(idle time.Duration) int {
	cutoff := s.clock.Now().Add(-idle)

	s.mu.Lock()
	var stale []*preview
	for id, p := range s.previews {
		if p.touched.Before(cutoff) {
			stale = append(stale, p)
			delete(s.previews, id)
		}
	}
	count := len(s.previews)
	s.mu.Unlock()

	for _, p := range stale {
		p.ctrl.Close()
	}
	if len(stale) > 0 {
		s.logger.Debug("pruned idle previews", slog.Int("pruned", len(stale)), slog.Int("active", count))
		s.count(count)
	}
	return len(stale)
}

// CloseAll stops every preview. Used on shutdown.
func (s *PreviewService) CloseAll() {
	s.mu.Lock()
	previews := s.previews
	s.previews = make(map[string]*preview)
	s.mu.Unlock()

	for _, p := range previews {
		p.ctrl.Close()
	}
	s.count(0)
}

// Len reports the number of live previews.
func (s *PreviewService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.previews)
}

func (s *PreviewService) get(id string) (*preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.previews[id]
	if !ok {
		return nil, apperror.NotFound("preview", id)
	}
	p.touched = s.clock.Now()
	return p, nil
}

// open builds a controller for t. Caller holds s.mu.
func (s *PreviewService) open(t widget.Type) (*preview, error) {
	ctrl, err := controller.New(controller.Options{
		Generate: func(ctx context.Context, cfg widget.Config) (model.Artifact, error) {
			return s.widgets.Render(ctx, cfg)
		},
		Cache:    s.caches[t],
		Clock:    s.clock,
		Debounce: s.debounce,
		Timeout:  s.timeout,
		Logger:   s.logger.With(slog.String("widget", string(t))),
	})
	if err != nil {
		return nil, err
	}
	return &preview{typ: t, ctrl: ctrl}, nil
}

// evict makes room for one more preview by closing the least recently touched
// one. keep is never evicted. Caller holds s.mu.
func (s *PreviewService) evict(keep string) {
	if len(s.previews) < s.max {
		return
	}
	var (
		oldestID string
		oldest   *preview
	)
	for id, p := range s.previews {
		if id == keep {
			continue
		}
		if oldest == nil || p.touched.Before(oldest.touched) {
			oldestID, oldest = id, p
		}
	}
	if oldest != nil {
		delete(s.previews, oldestID)
		oldest.ctrl.Close()
		s.logger.Debug("evicted preview", slog.String("id", oldestID))
	}
}

func (s *PreviewService) count(n int) {
	if s.onCount != nil {
		s.onCount(n)
	}
}
