package commbus

import "sync"

// spinFlag tracks whether an executor's spin loop should keep running.
// markStopped is the one operation that must be idempotent across
// concurrent Stop callers, returning true only for the caller that
// actually transitioned running->stopped.
type spinFlag struct {
	mu      sync.Mutex
	running bool
	stopped bool
}

func (f *spinFlag) start() {
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
}

func (f *spinFlag) stop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

func (f *spinFlag) isSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *spinFlag) markStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	if f.stopped {
		return false
	}
	f.stopped = true
	return true
}

// nodeSet is the mutex-guarded membership table an executor keeps of the
// nodes added to it via AddNode/RemoveNode. Membership here is purely for
// lifecycle/convenience routing of a node's default callback group; the
// executor does not otherwise iterate it.
type nodeSet struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

func (s *nodeSet) add(n *Node) {
	s.mu.Lock()
	if s.nodes == nil {
		s.nodes = make(map[string]*Node)
	}
	s.nodes[n.Name()] = n
	s.mu.Unlock()
}

func (s *nodeSet) remove(n *Node) {
	s.mu.Lock()
	delete(s.nodes, n.Name())
	s.mu.Unlock()
}
