// Package queue holds the pending files of a run. Producers and consumers are
// the same pool of workers: a worker pops a file, scans it, and pushes every
// include it discovers.
//
// Pop blocks while the queue is empty but some worker still has a file in
// flight, since that worker may push more. Once the queue is empty and nobody
// is in flight the run is quiescent and every Pop returns false.
package queue

import (
	"sync"
)

// Queue is a multi-producer, multi-consumer queue of file paths. Each path is
// accepted at most once per run, which is what makes cyclic includes
// terminate.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []string
	inFlight int
	closed   bool

	seenMu sync.Mutex
	seen   map[string]struct{}
}

// New creates an empty queue
func New() *Queue {
	q := &Queue{seen: make(map[string]struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues path unless it was already pushed in this run. It reports
// whether the path was accepted. Callers pass canonical paths.
func (q *Queue) Push(path string) bool {
	if !q.markSeen(path) {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, path)
	q.cond.Signal()
	return true
}

func (q *Queue) markSeen(path string) bool {
	q.seenMu.Lock()
	defer q.seenMu.Unlock()
	if _, ok := q.seen[path]; ok {
		return false
	}
	q.seen[path] = struct{}{}
	return true
}

// Pop returns the next path and marks the caller as in flight. It blocks
// while the queue is empty and another worker is in flight, and returns false
// at quiescence or after Close. Every successful Pop must be paired with Done.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && q.inFlight > 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed || len(q.items) == 0 {
		return "", false
	}
	path := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	q.inFlight++
	return path, true
}

// Done marks the end of the caller's in-flight file
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight--
	if q.inFlight == 0 && len(q.items) == 0 {
		q.cond.Broadcast()
	}
}

// Close wakes every blocked Pop and makes further Pops return false. Pending
// items are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}

// Seen returns the number of distinct paths ever accepted
func (q *Queue) Seen() int {
	q.seenMu.Lock()
	defer q.seenMu.Unlock()
	return len(q.seen)
}
