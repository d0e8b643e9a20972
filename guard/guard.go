package guard

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/watermark/dom"
	"github.com/gogpu/watermark/internal/wmlog"
)

// Factory creates a fresh Observer for each Start.
type Factory func() (Observer, error)

// Guard reports tampering with one watermark.
type Guard struct {
	attr        string
	tag         string
	newObserver Factory

	mu     sync.Mutex
	obs    Observer
	active *atomic.Bool
}

// New returns a guard for the watermark marked with attr=tag.
func New(attr, tag string, factory Factory) *Guard {
	return &Guard{attr: attr, tag: tag, newObserver: factory}
}

// Start observes container and root, replacing any previous observation.
// onTamper runs on the observer's goroutine, at most once per batch.
// Batches delivered after Stop are dropped.
func (g *Guard) Start(container, root *dom.Node, onTamper func()) error {
	g.Stop()

	obs, err := g.newObserver()
	if err != nil {
		return err
	}
	scopes := []*dom.Node{container}
	if root != nil && !container.Contains(root) {
		scopes = append(scopes, root)
	}

	active := new(atomic.Bool)
	active.Store(true)
	fn := func(recs []dom.MutationRecord) {
		if !active.Load() {
			return
		}
		for _, r := range recs {
			if ShouldRerender(g.attr, g.tag, r) {
				wmlog.Get().Debug("guard: tamper detected",
					"tag", g.tag, "type", r.Type.String(), "attribute", r.AttributeName)
				onTamper()
				return
			}
		}
	}
	if err := obs.Observe(scopes, fn); err != nil {
		return err
	}

	g.mu.Lock()
	g.obs, g.active = obs, active
	g.mu.Unlock()
	return nil
}

// Stop disconnects the observer. It is safe to call at any time and more
// than once.
func (g *Guard) Stop() {
	g.mu.Lock()
	obs, active := g.obs, g.active
	g.obs, g.active = nil, nil
	g.mu.Unlock()

	if active != nil {
		active.Store(false)
	}
	if obs != nil {
		obs.Disconnect()
	}
}

// Running reports whether the guard is observing.
func (g *Guard) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.obs != nil
}
