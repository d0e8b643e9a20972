// Package guard watches a mounted watermark and reports tampering.
//
// A Guard observes two scopes, the container the watermark was mounted into
// and the watermark's own encapsulated root, through an Observer. Each batch
// of mutation records is run through ShouldRerender; the first qualifying
// record in a batch triggers the tamper callback once.
//
// Two observers are provided. NativeObserver is built on the document's
// mutation observer. Poller takes periodic snapshots of the scopes and
// synthesizes records from their differences, for documents without
// mutation observation.
package guard
