package watermark

import (
	"context"
	"errors"
	"sync"

	"github.com/gogpu/watermark/dom"
	"github.com/gogpu/watermark/guard"
	"github.com/gogpu/watermark/internal/wmlog"
	"github.com/gogpu/watermark/overlay"
	"github.com/gogpu/watermark/pattern"
)

// State is the lifecycle state of a Watermark.
type State int

// Lifecycle states.
const (
	StateUninitialized State = iota
	StateRendering
	StateMounted
	StateRerendering
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRendering:
		return "rendering"
	case StateMounted:
		return "mounted"
	case StateRerendering:
		return "rerendering"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Watermark is one mounted watermark. All methods are safe for concurrent
// use.
type Watermark struct {
	doc  *dom.Document
	tag  string
	host *overlay.Host

	mu        sync.Mutex
	opts      Options
	state     State
	gen       uint64 // render generation
	rev       uint64 // options revision
	tile      *pattern.Tile
	mounted   Options // options tile was drawn from
	container *dom.Node
	guard     *guard.Guard
}

// New merges opts over DefaultOptions, renders the first tile and mounts it
// into doc. If the first render fails nothing is left in the document.
func New(ctx context.Context, doc *dom.Document, opts ...Option) (*Watermark, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	w := &Watermark{
		doc:  doc,
		tag:  newTag(),
		opts: o,
	}
	w.host = overlay.NewHost(doc, overlay.TagAttribute, w.tag)

	if err := w.render(ctx); err != nil {
		w.Destroy()
		return nil, err
	}
	return w, nil
}

// Update merges opts over the current options and re-renders. On failure
// the previous overlay stays mounted, the options roll back to the ones it
// was drawn from and the error is returned. If a newer Update or a self-heal
// starts before the draw finishes, Update returns ErrSuperseded and the
// newer render decides what is mounted.
func (w *Watermark) Update(ctx context.Context, opts ...Option) error {
	w.mu.Lock()
	if w.state == StateDestroyed {
		w.mu.Unlock()
		return ErrDestroyed
	}
	o := w.opts.clone()
	for _, opt := range opts {
		opt(&o)
	}
	w.opts = o
	w.rev++
	rev := w.rev
	w.mu.Unlock()

	err := w.render(ctx)
	if err != nil && !errors.Is(err, ErrDestroyed) && !errors.Is(err, ErrSuperseded) {
		w.mu.Lock()
		// Self-heals rebuild from the options of the mounted tile.
		if w.rev == rev && w.tile != nil {
			w.opts = w.mounted.clone()
		}
		w.mu.Unlock()
	}
	return err
}

// Show makes a hidden watermark visible again. It does nothing until the
// watermark is mounted.
func (w *Watermark) Show() { w.setVisible(true) }

// Hide hides the watermark without unmounting it. It does nothing until the
// watermark is mounted.
func (w *Watermark) Hide() { w.setVisible(false) }

func (w *Watermark) setVisible(visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateMounted && w.state != StateRerendering {
		return
	}

	// Our own style change must not look like tampering.
	w.stopGuard()
	if visible {
		w.host.Show()
	} else {
		w.host.Hide()
	}
	if w.state == StateMounted {
		w.startGuard()
	}
}

// Destroy stops the guard and removes every node of the watermark. It is
// safe to call more than once. Renders still in flight are discarded.
func (w *Watermark) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateDestroyed {
		return
	}
	w.teardown()
	w.tile = nil
	w.container = nil
	w.state = StateDestroyed
}

// Options returns a copy of the effective options.
func (w *Watermark) Options() Options {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts.clone()
}

// Tag returns the identity tag written to the watermark's nodes.
func (w *Watermark) Tag() string { return w.tag }

// Tile returns the mounted tile, or nil.
func (w *Watermark) Tile() *pattern.Tile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tile
}

// Host returns the host element, or nil when nothing is mounted.
func (w *Watermark) Host() *dom.Node {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.host.Node()
}

// Content returns the element carrying the tile, or nil.
func (w *Watermark) Content() *dom.Node {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.host.Content()
}

// State returns the lifecycle state.
func (w *Watermark) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// render draws a tile for the current options and mounts it. The draw runs
// without the lock; its result is dropped if Destroy or a newer render
// happened meanwhile.
func (w *Watermark) render(ctx context.Context) error {
	w.mu.Lock()
	if w.state == StateDestroyed {
		w.mu.Unlock()
		return ErrDestroyed
	}
	w.gen++
	gen := w.gen
	if w.state == StateUninitialized {
		w.state = StateRendering
	} else if w.state == StateMounted {
		w.state = StateRerendering
	}
	w.stopGuard()

	o := w.opts.clone()
	container, err := overlay.ResolveContainer(w.doc, o.Container, o.Selector)
	if err == nil {
		err = w.host.Attach(container)
	}
	if err != nil {
		w.resume()
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	r := o.renderer
	if r == nil {
		r = pattern.Default()
	}
	tile, err := r.Draw(ctx, o.Options)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.state == StateDestroyed:
		return ErrDestroyed
	case gen != w.gen:
		wmlog.Get().Debug("watermark: discarding stale render", "tag", w.tag, "gen", gen, "current", w.gen)
		return ErrSuperseded
	case err != nil:
		w.resume()
		return err
	}

	if err := w.host.Mount(tile, layoutOf(o)); err != nil {
		w.resume()
		return err
	}
	w.tile = tile
	w.mounted = o
	w.container = container
	w.state = StateMounted
	w.startGuard()
	return nil
}

// resume puts the previous overlay back after a failed render. Without a
// mounted previous overlay, for example after a self-heal teardown, the
// document is left without watermark nodes.
// w.mu must be held.
func (w *Watermark) resume() {
	if w.tile == nil || w.container == nil || w.host.Content() == nil {
		w.host.Unmount()
		return
	}
	if err := w.host.Attach(w.container); err != nil {
		wmlog.Get().Warn("watermark: restoring previous container", "tag", w.tag, "err", err)
	}
	w.state = StateMounted
	w.startGuard()
}

// teardown stops the guard and unmounts everything. w.mu must be held.
func (w *Watermark) teardown() {
	w.stopGuard()
	w.host.Unmount()
}

// heal rebuilds the watermark after tampering reported by the guard of
// render generation gen.
func (w *Watermark) heal(gen uint64) {
	w.mu.Lock()
	if w.state == StateDestroyed || gen != w.gen {
		w.mu.Unlock()
		return
	}
	wmlog.Get().Debug("watermark: self-heal", "tag", w.tag, "gen", gen)
	w.teardown()
	w.state = StateRerendering
	w.mu.Unlock()

	switch err := w.render(context.Background()); {
	case err == nil, errors.Is(err, ErrDestroyed), errors.Is(err, ErrSuperseded):
	default:
		wmlog.Get().Warn("watermark: self-heal failed", "tag", w.tag, "err", err)
	}
}

// startGuard installs a guard for the mounted overlay if Secure is set and
// the document can be observed. w.mu must be held.
func (w *Watermark) startGuard() {
	if !w.opts.Secure {
		return
	}
	factory := w.observerFactory()
	if factory == nil {
		wmlog.Get().Debug("watermark: no mutation observation, guard disabled", "tag", w.tag)
		return
	}

	g := guard.New(overlay.TagAttribute, w.tag, factory)
	gen := w.gen
	if err := g.Start(w.container, w.host.Root(), func() { go w.heal(gen) }); err != nil {
		wmlog.Get().Warn("watermark: starting guard", "tag", w.tag, "err", err)
		return
	}
	w.guard = g
}

// stopGuard removes the current guard. w.mu must be held.
func (w *Watermark) stopGuard() {
	if w.guard != nil {
		w.guard.Stop()
		w.guard = nil
	}
}

func (w *Watermark) observerFactory() guard.Factory {
	attrs := guard.WatchedAttributes(overlay.TagAttribute)
	switch {
	case w.doc.SupportsMutationObserver():
		return func() (guard.Observer, error) {
			obs, err := guard.NewMutationObserver(w.doc, attrs...)
			if err != nil {
				return nil, err
			}
			return obs, nil
		}
	case w.opts.pollInterval > 0:
		interval := w.opts.pollInterval
		return func() (guard.Observer, error) {
			return guard.NewPoller(w.doc, interval, attrs...), nil
		}
	}
	return nil
}

func layoutOf(o Options) overlay.Layout {
	return overlay.Layout{
		Repeat:       o.Repeat,
		Position:     o.Position,
		ZIndex:       o.ZIndex,
		Fixed:        o.Container == nil && o.Selector == "",
		ScrollHeight: string(o.ScrollHeight),
	}
}
