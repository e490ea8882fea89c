// Package broadcast fans the current stream snapshot out to every
// registered subscriber. The hub is a single-goroutine actor driven by a
// command channel; each subscriber owns a one-slot delivery channel where
// a stale pending snapshot is replaced by the newest one, so a slow
// subscriber can coalesce or skip intermediate snapshots but never stalls
// the rest. Subscribers that stop draining entirely are evicted.
package broadcast
