// Package controller drives one widget instance from config edits to a rendered
// artifact.
//
// STATE MACHINE:
//
//	Idle ──Update──▶ Debouncing ──timer──▶ Generating ──▶ Ready | Failed
//	                     ▲                                   │
//	                     └──────────────Update───────────────┘
//
// An editor emits a config per keystroke. Each Update restarts the debounce
// timer, so only the config that stays put for the debounce window is generated.
// A config whose fingerprint is already in the generation cache goes straight to
// Ready without waiting.
//
// ORDERING:
// Generations run in their own goroutines and may finish out of order. A result is
// applied only if its fingerprint still equals the current one; anything else is
// stale and is cached but never displayed. Failures never clear the last good
// artifact.
//
// TIMEOUT:
// Each generation gets Options.Timeout. When it runs out the controller moves to
// Failed with an upstream error without waiting for the generator to return.
//
// The controller serializes its state with a mutex. Listener callbacks run with
// that mutex held, in transition order.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/cache"
	"github.com/sakif/readme-widgets/internal/clock"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/widget"
)

const (
	DefaultDebounce = 400 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

// State is a controller's position in the generation lifecycle.
type State int

const (
	Idle State = iota
	Debouncing
	Generating
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Generating:
		return "generating"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// GenerateFunc renders cfg. It should honor ctx; the controller fails the
// generation at the deadline either way.
type GenerateFunc func(ctx context.Context, cfg widget.Config) (model.Artifact, error)

// Cache holds generated artifacts by fingerprint hash. One cache is usually
// shared by every controller of a widget type.
type Cache = cache.TTL[uint64, model.Artifact]

// Options configures a Controller.
type Options struct {
	Generate GenerateFunc // required
	Cache    *Cache       // required
	Clock    clock.Clock
	Debounce time.Duration
	Timeout  time.Duration
	// Listener observes every state transition. It must not call back into the
	// Controller.
	Listener func(Snapshot)
	Logger   *slog.Logger
}

// Snapshot is the externally visible state of a Controller.
type Snapshot struct {
	State       State           `json:"state"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Artifact    *model.Artifact `json:"artifact,omitempty"`
	// Current is false while Artifact belongs to an earlier config.
	Current bool   `json:"current"`
	Err     error  `json:"-"`
	Message string `json:"error,omitempty"`
}

// Markdown is the fragment to show for the displayed artifact, if any.
func (s Snapshot) Markdown() string {
	if s.Artifact == nil {
		return ""
	}
	return s.Artifact.Markdown
}

type outcome struct {
	art model.Artifact
	err error
}

type generation struct {
	cancel context.CancelFunc
}

// Controller is safe for concurrent use.
type Controller struct {
	generate GenerateFunc
	cache    *Cache
	clock    clock.Clock
	debounce time.Duration
	timeout  time.Duration
	listener func(Snapshot)
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	cfg      widget.Config
	fp       widget.Fingerprint
	timer    clock.Timer
	seq      uint64 // invalidates debounce timers that fire after being replaced
	inflight map[uint64]*generation
	artifact *model.Artifact
	err      error
	closed   bool
}

// New returns an Idle controller.
func New(opts Options) (*Controller, error) {
	if opts.Generate == nil {
		return nil, errors.New("controller: Generate is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("controller: Cache is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		generate: opts.Generate,
		cache:    opts.Cache,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		timeout:  opts.Timeout,
		listener: opts.Listener,
		logger:   opts.Logger,
		inflight: map[uint64]*generation{},
	}, nil
}

// Update records a config change.
func (c *Controller) Update(cfg widget.Config) {
	fp := widget.FingerprintOf(cfg)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if fp == c.fp && c.covers(fp) {
		return
	}

	c.stopTimer()
	c.cfg, c.fp = cfg, fp

	if art, ok := c.cache.Get(fp.Hash); ok {
		c.show(art)
		return
	}

	c.seq++
	seq := c.seq
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(seq) })
	c.transition(Debouncing)
}

// covers reports whether the current state already answers for fp: a pending
// timer, a running generation, or a shown artifact still inside the cache TTL.
// c.mu must be held.
func (c *Controller) covers(fp widget.Fingerprint) bool {
	switch c.state {
	case Debouncing, Generating:
		return true
	case Ready:
		_, ok := c.cache.Get(fp.Hash)
		return ok
	}
	return false
}

// Retry regenerates the current config immediately. It reports false unless the
// controller is in the Failed state.
func (c *Controller) Retry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != Failed {
		return false
	}
	c.start()
	return true
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Close stops the timer and cancels running generations. Later calls are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimer()
	for _, g := range c.inflight {
		g.cancel()
	}
}

func (c *Controller) fire(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq || c.state != Debouncing {
		return
	}
	c.timer = nil
	// Another controller sharing the cache may have produced it meanwhile.
	if art, ok := c.cache.Get(c.fp.Hash); ok {
		c.show(art)
		return
	}
	c.start()
}

// start begins generating the current config, or joins a generation of the same
// fingerprint that is already running. c.mu must be held.
func (c *Controller) start() {
	c.stopTimer()
	fp, cfg := c.fp, c.cfg
	if _, running := c.inflight[fp.Hash]; running {
		c.transition(Generating)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.inflight[fp.Hash] = &generation{cancel: cancel}
	c.transition(Generating)

	done := make(chan outcome, 1)
	go func() {
		art, err := c.generate(ctx, cfg)
		done <- outcome{art, err}
	}()

	go func() {
		defer cancel()
		select {
		case r := <-done:
			if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				r.err = apperror.Upstream("widget", r.err)
			}
			c.finish(fp, r.art, r.err)
		case <-ctx.Done():
			// The generator may not honor ctx. Fail now; a result that still
			// arrives is cached but not shown.
			c.finish(fp, model.Artifact{}, apperror.Upstream("widget", ctx.Err()))
			if r := <-done; r.err == nil {
				c.cache.Add(fp.Hash, r.art)
			}
		}
	}()
}

func (c *Controller) finish(fp widget.Fingerprint, art model.Artifact, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, fp.Hash)
	if err == nil {
		c.cache.Add(fp.Hash, art)
	}
	if c.closed {
		return
	}
	if fp != c.fp {
		c.logger.Debug("discarding stale generation", "fingerprint", fp.Short(), "current", c.fp.Short())
		return
	}
	if err != nil {
		c.err = err
		c.logger.Warn("widget generation failed",
			"type", c.cfg.Type(), "fingerprint", fp.Short(), "kind", apperror.Kind(err), "error", err)
		c.transition(Failed)
		return
	}
	c.stopTimer()
	c.show(art)
}

// show displays art as the result for the current config. c.mu must be held.
func (c *Controller) show(art model.Artifact) {
	c.artifact = &art
	c.err = nil
	c.transition(Ready)
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.seq++
}

func (c *Controller) transition(s State) {
	c.state = s
	if c.listener != nil {
		c.listener(c.snapshot())
	}
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{State: c.state, Err: c.err}
	if !c.fp.IsZero() {
		s.Fingerprint = c.fp.Short()
	}
	if c.artifact != nil {
		art := *c.artifact
		s.Artifact = &art
		s.Current = art.Fingerprint == s.Fingerprint
	}
	if c.err != nil {
		s.Message = apperror.UserMessage(c.err)
	}
	return s
}
