package commbus

import "sync"

// CallbackGroupType classifies how an executor may run the subscribers in
// a group relative to one another.
type CallbackGroupType int

const (
	// MutuallyExclusive: only one of this group's subscribers executes at
	// a time within any one executor.
	MutuallyExclusive CallbackGroupType = iota
	// Reentrant: subscribers in this group may execute concurrently.
	Reentrant
)

func (t CallbackGroupType) String() string {
	if t == Reentrant {
		return "reentrant"
	}
	return "mutually-exclusive"
}

// scheduledSubscriber is the type-erased face a Subscriber[T] presents to
// its CallbackGroup and to executors, so neither needs to know T.
type scheduledSubscriber interface {
	ID() uint64
	CallbackGroup() *CallbackGroup
	MarkReady() bool
	ClearReady()
	HasPending() bool
	TakeAll()
	DrainExecSome(max int) ([]ExecEntry, error)
	DrainAllStamped() ([]ExecEntry, error)
	Stop()
}

// CallbackGroup collects a set of subscribers and classifies how an
// executor may run them relative to each other. The group itself does not
// schedule; notify is its only signalling surface, forwarding a
// newly-ready subscriber to whichever executor it is bound to.
type CallbackGroup struct {
	node *Node
	kind CallbackGroupType

	mu   sync.Mutex
	subs map[uint64]scheduledSubscriber

	executorMu sync.Mutex
	executor   *ExecutorBase

	// exclMu serialises inline execution of this group's subscribers
	// under the multi-threaded executor's mutually-exclusive path.
	exclMu sync.Mutex
}

func newCallbackGroup(n *Node, kind CallbackGroupType) *CallbackGroup {
	return &CallbackGroup{node: n, kind: kind, subs: make(map[uint64]scheduledSubscriber)}
}

// Type returns whether this group is mutually-exclusive or reentrant.
func (g *CallbackGroup) Type() CallbackGroupType { return g.kind }

// Node returns the owning node.
func (g *CallbackGroup) Node() *Node { return g.node }

func (g *CallbackGroup) addSubscriber(s scheduledSubscriber) {
	g.mu.Lock()
	g.subs[s.ID()] = s
	g.mu.Unlock()
}

func (g *CallbackGroup) removeSubscriber(s scheduledSubscriber) {
	g.mu.Lock()
	delete(g.subs, s.ID())
	g.mu.Unlock()
}

// SubscriberCount returns the number of subscribers currently members of
// this group.
func (g *CallbackGroup) SubscriberCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// BindExecutor attaches the executor this group's ready notifications are
// routed to.
func (g *CallbackGroup) BindExecutor(e *ExecutorBase) {
	g.executorMu.Lock()
	g.executor = e
	g.executorMu.Unlock()
}

// notify enqueues s on the bound executor's ready queue. A subscriber
// whose group has not yet been bound to an executor simply accumulates in
// its own queue; its ready flag is reset so that the next MarkReady
// transition after a BindExecutor picks it up.
func (g *CallbackGroup) notify(s scheduledSubscriber) {
	g.executorMu.Lock()
	e := g.executor
	g.executorMu.Unlock()
	if e == nil {
		s.ClearReady()
		return
	}
	e.enqueueReady(s)
}
