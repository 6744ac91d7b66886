package commbus

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// NodeKind distinguishes a node that only talks to other nodes in this
// process from one that also bridges to a transport adapter.
type NodeKind int

const (
	Intraprocess NodeKind = iota
	Interprocess
)

func (k NodeKind) String() string {
	if k == Interprocess {
		return "interprocess"
	}
	return "intraprocess"
}

// publisherHolder is the minimal type-erased face a Node needs to own a
// Publisher[T] of any T: just enough to close it during teardown.
type publisherHolder interface {
	ID() uint64
	Close()
}

// Node is a logical participant owning its publishers, subscribers, and
// callback groups. Unlike Topic (shared across many owners via the
// registry/handle scheme), a Node's children have exactly one owner — the
// node itself — so plain mutex-guarded maps are sufficient; there is no
// multi-owner refcounting to do.
type Node struct {
	name   string
	uuid   string
	domain *Domain
	kind   NodeKind
	logger Logger

	selfHandle *Handle[Node]

	mu             sync.Mutex
	publishers     map[uint64]publisherHolder
	subscribers    map[uint64]scheduledSubscriber
	callbackGroups map[uint64]*CallbackGroup
	nextPubID      uint64
	nextSubID      uint64
	nextGroupID    uint64
	defaultGroup   *CallbackGroup
	closed         bool

	transport TransportBinding
}

// TransportBinding is what an interprocess node attaches to reach an
// external transport adapter (see the transport package). Intraprocess
// nodes leave this nil.
type TransportBinding interface {
	Close() error
}

func newNode(name string, d *Domain, kind NodeKind) Node {
	return Node{
		name:           name,
		uuid:           uuid.New().String(),
		domain:         d,
		kind:           kind,
		logger:         d.logger,
		publishers:     make(map[uint64]publisherHolder),
		subscribers:    make(map[uint64]scheduledSubscriber),
		callbackGroups: make(map[uint64]*CallbackGroup),
	}
}

// init wires the node's default callback group using its final, stable
// address inside the registry slot — called once, right after the Node
// value is emplaced, never from newNode itself (the value there is still
// a stack-local copy).
func (n *Node) init() *Node {
	if n.defaultGroup == nil {
		n.defaultGroup = newCallbackGroup(n, MutuallyExclusive)
		n.callbackGroups[n.nextGroupID] = n.defaultGroup
		n.nextGroupID++
	}
	return n
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Kind returns whether this node is intraprocess or interprocess.
func (n *Node) Kind() NodeKind { return n.kind }

// Domain returns the owning domain.
func (n *Node) Domain() *Domain { return n.domain }

// DefaultCallbackGroup returns the node's implicit callback group, used
// when a subscriber is created without specifying one.
func (n *Node) DefaultCallbackGroup() *CallbackGroup { return n.defaultGroup }

// BindTransport attaches a transport binding to an interprocess node.
func (n *Node) BindTransport(t TransportBinding) { n.transport = t }

// NewCallbackGroup creates and registers a fresh callback group owned by
// this node.
func (n *Node) NewCallbackGroup(kind CallbackGroupType) *CallbackGroup {
	g := newCallbackGroup(n, kind)
	n.mu.Lock()
	id := n.nextGroupID
	n.nextGroupID++
	n.callbackGroups[id] = g
	n.mu.Unlock()
	return g
}

func (n *Node) registerPublisher(p publisherHolder) uint64 {
	n.mu.Lock()
	id := n.nextPubID
	n.nextPubID++
	n.publishers[id] = p
	n.mu.Unlock()
	return id
}

func (n *Node) removePublisher(id uint64) {
	n.mu.Lock()
	delete(n.publishers, id)
	n.mu.Unlock()
}

func (n *Node) registerSubscriber(s scheduledSubscriber) uint64 {
	n.mu.Lock()
	id := n.nextSubID
	n.nextSubID++
	n.subscribers[id] = s
	n.mu.Unlock()
	return id
}

func (n *Node) removeSubscriber(id uint64) {
	n.mu.Lock()
	delete(n.subscribers, id)
	n.mu.Unlock()
}

// Close stops every subscriber owned by this node, then closes every
// publisher, then closes the transport binding if one is attached, then
// releases the node's own registry handle. Callback groups are not torn
// down individually; stopping a subscriber removes it from its group.
// Safe to call once; subsequent calls are no-ops.
func (n *Node) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	subs := make([]scheduledSubscriber, 0, len(n.subscribers))
	for _, s := range n.subscribers {
		subs = append(subs, s)
	}
	pubs := make([]publisherHolder, 0, len(n.publishers))
	for _, p := range n.publishers {
		pubs = append(pubs, p)
	}
	transport := n.transport
	n.mu.Unlock()

	for _, s := range subs {
		s.Stop()
	}
	for _, p := range pubs {
		p.Close()
	}
	if transport != nil {
		_ = transport.Close()
	}

	emitEvent(context.Background(), n.domain.observer, EventTypeNodeClosed, "domain", n.name)
	if n.selfHandle != nil {
		n.selfHandle.Drop()
	}
}
