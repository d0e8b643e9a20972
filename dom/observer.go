package dom

import (
	"slices"
	"sync"
)

// MutationType identifies the kind of a MutationRecord.
type MutationType int

// Mutation types.
const (
	Attributes MutationType = iota + 1
	ChildList
)

// String returns the record type as the DOM spells it.
func (t MutationType) String() string {
	switch t {
	case Attributes:
		return "attributes"
	case ChildList:
		return "childList"
	default:
		return "unknown"
	}
}

// MutationRecord describes one committed change.
type MutationRecord struct {
	Type MutationType

	// Target is the element whose attribute changed, or the parent whose
	// children changed.
	Target *Node

	// AttributeName and OldValue are set for Attributes records.
	AttributeName string
	OldValue      string

	// AddedNodes and RemovedNodes are set for ChildList records.
	AddedNodes   []*Node
	RemovedNodes []*Node
}

// ObserveOptions selects which mutations an observer receives for a target.
type ObserveOptions struct {
	ChildList  bool
	Attributes bool
	Subtree    bool

	// AttributeFilter restricts attribute records to the listed names.
	// A non-empty filter implies Attributes.
	AttributeFilter []string
}

// MutationCallback receives a batch of records.
type MutationCallback func(records []MutationRecord, observer *MutationObserver)

type registration struct {
	target *Node
	opts   ObserveOptions
}

func (r registration) matches(rec MutationRecord) bool {
	if rec.Target != r.target {
		if !r.opts.Subtree || !isInclusiveAncestor(r.target.n, rec.Target.n) {
			return false
		}
	}
	switch rec.Type {
	case Attributes:
		if len(r.opts.AttributeFilter) > 0 {
			return slices.Contains(r.opts.AttributeFilter, rec.AttributeName)
		}
		return r.opts.Attributes
	case ChildList:
		return r.opts.ChildList
	}
	return false
}

// MutationObserver queues the records of observed targets and delivers them
// in batches to its callback on a dedicated goroutine.
type MutationObserver struct {
	doc *Document
	cb  MutationCallback

	mu    sync.Mutex
	regs  []registration
	queue []MutationRecord
	wake  chan struct{}
	stop  chan struct{}
}

// NewMutationObserver creates an observer that calls cb with each batch.
func (d *Document) NewMutationObserver(cb MutationCallback) (*MutationObserver, error) {
	if !d.observable {
		return nil, ErrNotSupported
	}
	return &MutationObserver{doc: d, cb: cb}, nil
}

// Observe starts (or reconfigures) observation of target.
func (mo *MutationObserver) Observe(target *Node, opts ObserveOptions) error {
	if target == nil || target.doc != mo.doc {
		return ErrWrongDocument
	}
	if !opts.ChildList && !opts.Attributes && len(opts.AttributeFilter) == 0 {
		return ErrInvalidOptions
	}

	d := mo.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	mo.mu.Lock()
	defer mo.mu.Unlock()

	replaced := false
	for i := range mo.regs {
		if mo.regs[i].target == target {
			mo.regs[i].opts = opts
			replaced = true
		}
	}
	if !replaced {
		mo.regs = append(mo.regs, registration{target: target, opts: opts})
	}
	if !slices.Contains(d.observers, mo) {
		d.observers = append(d.observers, mo)
	}
	if mo.stop == nil {
		mo.wake = make(chan struct{}, 1)
		mo.stop = make(chan struct{})
		go mo.loop(mo.wake, mo.stop)
	}
	return nil
}

// TakeRecords empties the queue and returns what was in it.
func (mo *MutationObserver) TakeRecords() []MutationRecord {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	recs := mo.queue
	mo.queue = nil
	return recs
}

// Disconnect stops observation and drops queued records. It may be called
// from inside the callback and more than once.
func (mo *MutationObserver) Disconnect() {
	d := mo.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = slices.DeleteFunc(d.observers, func(o *MutationObserver) bool { return o == mo })

	mo.mu.Lock()
	defer mo.mu.Unlock()
	mo.regs = nil
	mo.queue = nil
	if mo.stop != nil {
		close(mo.stop)
		mo.stop = nil
		mo.wake = nil
	}
}

// consider queues rec if a registration matches. d.mu must be held.
func (mo *MutationObserver) consider(rec MutationRecord) {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	for _, r := range mo.regs {
		if r.matches(rec) {
			mo.queue = append(mo.queue, rec)
			select {
			case mo.wake <- struct{}{}:
			default:
			}
			return
		}
	}
}

func (mo *MutationObserver) loop(wake, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-wake:
		}

		mo.mu.Lock()
		if mo.stop != stop {
			mo.mu.Unlock()
			return
		}
		recs := mo.queue
		mo.queue = nil
		mo.mu.Unlock()

		if len(recs) > 0 {
			mo.cb(recs, mo)
		}
	}
}
