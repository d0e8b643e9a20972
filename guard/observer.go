package guard

import (
	"github.com/gogpu/watermark/dom"
)

// Observer delivers batches of mutation records for a set of scopes.
type Observer interface {
	// Observe starts watching every scope and its subtree. fn is called
	// with each non-empty batch, never concurrently with itself.
	Observe(scopes []*dom.Node, fn func([]dom.MutationRecord)) error

	// Disconnect stops delivery and drops pending records. It is safe to
	// call more than once.
	Disconnect()
}

// NativeObserver is an Observer backed by dom.MutationObserver.
type NativeObserver struct {
	doc   *dom.Document
	attrs []string
	mo    *dom.MutationObserver
}

// NewMutationObserver returns a native observer watching child lists and
// the given attributes. It fails with dom.ErrNotSupported when doc has no
// mutation observation.
func NewMutationObserver(doc *dom.Document, attrs ...string) (*NativeObserver, error) {
	if !doc.SupportsMutationObserver() {
		return nil, dom.ErrNotSupported
	}
	return &NativeObserver{doc: doc, attrs: attrs}, nil
}

// Observe implements Observer.
func (o *NativeObserver) Observe(scopes []*dom.Node, fn func([]dom.MutationRecord)) error {
	mo, err := o.doc.NewMutationObserver(func(recs []dom.MutationRecord, _ *dom.MutationObserver) {
		fn(recs)
	})
	if err != nil {
		return err
	}
	opts := dom.ObserveOptions{
		ChildList:       true,
		Subtree:         true,
		AttributeFilter: o.attrs,
	}
	for _, s := range scopes {
		if err := mo.Observe(s, opts); err != nil {
			mo.Disconnect()
			return err
		}
	}
	o.mo = mo
	return nil
}

// Disconnect implements Observer.
func (o *NativeObserver) Disconnect() {
	if o.mo == nil {
		return
	}
	o.mo.TakeRecords()
	o.mo.Disconnect()
}
