package guard

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/watermark/dom"
)

const (
	attr = "data-watermark-tag"
	tag  = "mine"
)

func tagged(doc *dom.Document, value string) *dom.Node {
	n := doc.CreateElement("div")
	n.SetAttribute(attr, value)
	return n
}

// TestShouldRerender tests the tamper classification of single records.
func TestShouldRerender(t *testing.T) {
	doc := dom.New()
	mine := tagged(doc, tag)
	other := tagged(doc, "theirs")
	plain := doc.CreateElement("p")

	tests := []struct {
		name string
		rec  dom.MutationRecord
		want bool
	}{
		{"identity attribute on any node", dom.MutationRecord{Type: dom.Attributes, Target: plain, AttributeName: attr}, true},
		{"style on tagged node", dom.MutationRecord{Type: dom.Attributes, Target: mine, AttributeName: "style"}, true},
		{"class on tagged node", dom.MutationRecord{Type: dom.Attributes, Target: mine, AttributeName: "class"}, true},
		{"style on foreign tagged node", dom.MutationRecord{Type: dom.Attributes, Target: other, AttributeName: "style"}, false},
		{"style on plain node", dom.MutationRecord{Type: dom.Attributes, Target: plain, AttributeName: "style"}, false},
		{"tagged node removed", dom.MutationRecord{Type: dom.ChildList, Target: plain, RemovedNodes: []*dom.Node{mine}}, true},
		{"tagged node removed second", dom.MutationRecord{Type: dom.ChildList, Target: plain, RemovedNodes: []*dom.Node{plain, mine}}, true},
		{"plain node removed", dom.MutationRecord{Type: dom.ChildList, Target: plain, RemovedNodes: []*dom.Node{plain}}, false},
		{"tagged node added", dom.MutationRecord{Type: dom.ChildList, Target: plain, AddedNodes: []*dom.Node{mine}}, false},
		{"nil target", dom.MutationRecord{Type: dom.Attributes, AttributeName: "style"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRerender(attr, tag, tt.rec))
		})
	}
}

type fixture struct {
	doc       *dom.Document
	container *dom.Node
	host      *dom.Node
	root      *dom.Node
	content   *dom.Node
	sibling   *dom.Node
}

func newFixture(t *testing.T, opts ...dom.Option) *fixture {
	t.Helper()
	doc := dom.New(opts...)
	f := &fixture{doc: doc, container: doc.Body()}

	f.sibling = doc.CreateElement("p")
	require.NoError(t, f.container.AppendChild(f.sibling))

	f.host = tagged(doc, tag)
	require.NoError(t, f.container.AppendChild(f.host))
	if root, err := f.host.AttachShadow(); err == nil {
		f.root = root
	} else {
		f.root = f.host
	}
	f.content = tagged(doc, tag)
	require.NoError(t, f.root.AppendChild(f.content))
	return f
}

type observerCase struct {
	name    string
	docOpts []dom.Option
	factory func(*dom.Document) Factory
}

func observerCases() []observerCase {
	return []observerCase{
		{
			name: "native",
			factory: func(doc *dom.Document) Factory {
				return func() (Observer, error) { return NewMutationObserver(doc, WatchedAttributes(attr)...) }
			},
		},
		{
			name:    "poller",
			docOpts: []dom.Option{dom.WithoutMutationObserver()},
			factory: func(doc *dom.Document) Factory {
				return func() (Observer, error) {
					return NewPoller(doc, 5*time.Millisecond, WatchedAttributes(attr)...), nil
				}
			},
		},
	}
}

// TestGuardDetectsTamper tests that removing the tagged host fires onTamper.
func TestGuardDetectsTamper(t *testing.T) {
	tampers := []struct {
		name string
		do   func(f *fixture)
	}{
		{"remove host", func(f *fixture) { f.host.Remove() }},
		{"restyle content", func(f *fixture) { f.content.SetAttribute("style", "display:none") }},
		{"remove content", func(f *fixture) { f.content.Remove() }},
		{"retag host", func(f *fixture) { f.host.SetAttribute(attr, "forged") }},
		{"add class to host", func(f *fixture) { f.host.SetAttribute("class", "hidden") }},
	}
	for _, oc := range observerCases() {
		for _, tc := range tampers {
			t.Run(oc.name+"/"+tc.name, func(t *testing.T) {
				f := newFixture(t, oc.docOpts...)
				g := New(attr, tag, oc.factory(f.doc))

				var hits atomic.Int32
				require.NoError(t, g.Start(f.container, f.root, func() { hits.Add(1) }))
				defer g.Stop()
				assert.True(t, g.Running())

				tc.do(f)
				require.Eventually(t, func() bool { return hits.Load() > 0 }, time.Second, 5*time.Millisecond)
			})
		}
	}
}

// TestGuardIgnoresUnrelated tests that sibling churn does not fire onTamper.
func TestGuardIgnoresUnrelated(t *testing.T) {
	for _, oc := range observerCases() {
		t.Run(oc.name, func(t *testing.T) {
			f := newFixture(t, oc.docOpts...)
			g := New(attr, tag, oc.factory(f.doc))

			var hits atomic.Int32
			require.NoError(t, g.Start(f.container, f.root, func() { hits.Add(1) }))
			defer g.Stop()

			f.sibling.SetAttribute("style", "color:red")
			f.sibling.SetAttribute("class", "x")
			require.NoError(t, f.container.AppendChild(f.doc.CreateElement("span")))
			f.sibling.Remove()

			time.Sleep(50 * time.Millisecond)
			assert.Zero(t, hits.Load())
		})
	}
}

// TestGuardStop tests that no callback fires after Stop and that Stop can be repeated.
func TestGuardStop(t *testing.T) {
	for _, oc := range observerCases() {
		t.Run(oc.name, func(t *testing.T) {
			f := newFixture(t, oc.docOpts...)
			g := New(attr, tag, oc.factory(f.doc))

			var hits atomic.Int32
			require.NoError(t, g.Start(f.container, f.root, func() { hits.Add(1) }))
			g.Stop()
			g.Stop()
			assert.False(t, g.Running())

			f.host.Remove()
			time.Sleep(50 * time.Millisecond)
			assert.Zero(t, hits.Load())
		})
	}
}

// batchObserver hands the batches it is given to the guard synchronously.
type batchObserver struct {
	fn           func([]dom.MutationRecord)
	disconnected bool
}

func (o *batchObserver) Observe(_ []*dom.Node, fn func([]dom.MutationRecord)) error {
	o.fn = fn
	return nil
}

func (o *batchObserver) Disconnect() { o.disconnected = true }

// TestGuardOncePerBatch tests that one batch with several qualifying records fires once.
func TestGuardOncePerBatch(t *testing.T) {
	f := newFixture(t)
	obs := &batchObserver{}
	g := New(attr, tag, func() (Observer, error) { return obs, nil })

	hits := 0
	require.NoError(t, g.Start(f.container, f.root, func() { hits++ }))

	batch := []dom.MutationRecord{
		{Type: dom.Attributes, Target: f.content, AttributeName: "style"},
		{Type: dom.Attributes, Target: f.host, AttributeName: "class"},
		{Type: dom.ChildList, Target: f.container, RemovedNodes: []*dom.Node{f.host}},
	}
	obs.fn(batch)
	assert.Equal(t, 1, hits)

	obs.fn(batch[:1])
	assert.Equal(t, 2, hits)

	g.Stop()
	assert.True(t, obs.disconnected)
	obs.fn(batch)
	assert.Equal(t, 2, hits, "batches after Stop are dropped")
}

func TestNewMutationObserverUnsupported(t *testing.T) {
	doc := dom.New(dom.WithoutMutationObserver())
	_, err := NewMutationObserver(doc, "style")
	assert.ErrorIs(t, err, dom.ErrNotSupported)
}

// TestPollerDiff tests the records synthesized from two snapshots.
func TestPollerDiff(t *testing.T) {
	doc := dom.New(dom.WithoutMutationObserver())
	body := doc.Body()
	a := doc.CreateElement("div")
	a.SetAttribute("style", "x:1")
	require.NoError(t, body.AppendChild(a))

	p := NewPoller(doc, time.Hour, "style", "class")
	before := p.snapshot([]*dom.Node{body})

	a.SetAttribute("style", "x:2")
	a.SetAttribute("class", "c")
	b := doc.CreateElement("span")
	require.NoError(t, body.AppendChild(b))
	after := p.snapshot([]*dom.Node{body})

	recs := diff(before, after)
	var attrs, added int
	for _, r := range recs {
		switch {
		case r.Type == dom.Attributes && r.Target == a:
			attrs++
			if r.AttributeName == "style" {
				assert.Equal(t, "x:1", r.OldValue)
			}
		case r.Type == dom.ChildList && len(r.AddedNodes) == 1 && r.AddedNodes[0] == b:
			added++
			assert.Same(t, body, r.Target)
		}
	}
	assert.Equal(t, 2, attrs)
	assert.Equal(t, 1, added)

	b.Remove()
	removed := diff(after, p.snapshot([]*dom.Node{body}))
	require.Len(t, removed, 1)
	assert.Equal(t, []*dom.Node{b}, removed[0].RemovedNodes)
	assert.Same(t, body, removed[0].Target)
}

// TestPollerIgnoresStyleFormatting tests that rewriting a style with the
// same declarations yields no record while a changed priority does.
func TestPollerIgnoresStyleFormatting(t *testing.T) {
	doc := dom.New(dom.WithoutMutationObserver())
	body := doc.Body()
	a := doc.CreateElement("div")
	a.SetAttribute("style", "display:block;opacity:1")
	require.NoError(t, body.AppendChild(a))

	p := NewPoller(doc, time.Hour, "style")
	before := p.snapshot([]*dom.Node{body})
	a.SetAttribute("style", " display: block ; opacity: 1; ")
	after := p.snapshot([]*dom.Node{body})
	assert.Empty(t, diff(before, after))

	a.SetAttribute("style", "display:block !important;opacity:1")
	recs := diff(after, p.snapshot([]*dom.Node{body}))
	require.Len(t, recs, 1)
	assert.Equal(t, "style", recs[0].AttributeName)
}

func TestPollerWrongDocument(t *testing.T) {
	p := NewPoller(dom.New(), 0)
	err := p.Observe([]*dom.Node{dom.New().Body()}, func([]dom.MutationRecord) {})
	assert.ErrorIs(t, err, dom.ErrWrongDocument)
	p.Disconnect()
}
