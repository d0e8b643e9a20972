package guard

import (
	"sync"
	"time"

	"github.com/gogpu/watermark/dom"
)

// DefaultPollInterval is used by NewPoller for non-positive intervals.
const DefaultPollInterval = 500 * time.Millisecond

// Poller is an Observer that compares snapshots of its scopes at a fixed
// interval. Removals, insertions and attribute changes between two
// snapshots are reported as mutation records; changes that are undone
// within one interval go unnoticed, as do style edits that leave the
// declarations unchanged.
type Poller struct {
	doc      *dom.Document
	interval time.Duration
	attrs    []string

	mu   sync.Mutex
	stop chan struct{}
}

// NewPoller returns a polling observer for doc watching the given attributes.
func NewPoller(doc *dom.Document, interval time.Duration, attrs ...string) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{doc: doc, interval: interval, attrs: attrs}
}

type nodeState struct {
	parent *dom.Node
	attrs  map[string]string
}

type snapshot struct {
	order []*dom.Node
	nodes map[*dom.Node]nodeState
}

// Observe implements Observer.
func (p *Poller) Observe(scopes []*dom.Node, fn func([]dom.MutationRecord)) error {
	for _, s := range scopes {
		if s == nil || s.Document() != p.doc {
			return dom.ErrWrongDocument
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
	}
	stop := make(chan struct{})
	p.stop = stop

	prev := p.snapshot(scopes)
	go func() {
		t := time.NewTicker(p.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
			}
			cur := p.snapshot(scopes)
			recs := diff(prev, cur)
			prev = cur
			if len(recs) == 0 {
				continue
			}
			select {
			case <-stop:
				return
			default:
			}
			fn(recs)
		}
	}()
	return nil
}

// Disconnect implements Observer.
func (p *Poller) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func (p *Poller) snapshot(scopes []*dom.Node) snapshot {
	s := snapshot{nodes: make(map[*dom.Node]nodeState)}
	for _, scope := range scopes {
		for _, n := range scope.Subtree() {
			if _, seen := s.nodes[n]; seen {
				continue
			}
			st := nodeState{parent: n.Parent()}
			if n.Type() == dom.ElementNode {
				st.attrs = make(map[string]string, len(p.attrs))
				for _, a := range p.attrs {
					if v, ok := n.GetAttribute(a); ok {
						st.attrs[a] = v
					}
				}
			}
			s.order = append(s.order, n)
			s.nodes[n] = st
		}
	}
	return s
}

// diff synthesizes the records that turn prev into cur.
func diff(prev, cur snapshot) []dom.MutationRecord {
	var recs []dom.MutationRecord
	for _, n := range prev.order {
		old := prev.nodes[n]
		now, ok := cur.nodes[n]
		if !ok || now.parent != old.parent {
			if old.parent != nil {
				recs = append(recs, dom.MutationRecord{
					Type:         dom.ChildList,
					Target:       old.parent,
					RemovedNodes: []*dom.Node{n},
				})
			}
			continue
		}
		recs = append(recs, attrChanges(n, old.attrs, now.attrs)...)
	}
	for _, n := range cur.order {
		now := cur.nodes[n]
		if old, ok := prev.nodes[n]; ok && old.parent == now.parent {
			continue
		}
		if now.parent != nil {
			recs = append(recs, dom.MutationRecord{
				Type:       dom.ChildList,
				Target:     now.parent,
				AddedNodes: []*dom.Node{n},
			})
		}
	}
	return recs
}

func attrChanges(n *dom.Node, old, now map[string]string) []dom.MutationRecord {
	var recs []dom.MutationRecord
	for name, v := range old {
		if nv, ok := now[name]; !ok || !sameValue(name, v, nv) {
			recs = append(recs, dom.MutationRecord{Type: dom.Attributes, Target: n, AttributeName: name, OldValue: v})
		}
	}
	for name := range now {
		if _, ok := old[name]; !ok {
			recs = append(recs, dom.MutationRecord{Type: dom.Attributes, Target: n, AttributeName: name})
		}
	}
	return recs
}

// sameValue compares style attributes by their declarations, so edits that
// only change formatting are not reported.
func sameValue(name, a, b string) bool {
	if name == "style" {
		return dom.EquivalentStyles(a, b)
	}
	return a == b
}
