package checker

import (
	"slices"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/roach88/mealy/internal/model"
)

// nodeID indexes the node arena.
type nodeID int

const noParent nodeID = -1

// node is one discovered state and how it was first reached.
type node struct {
	state  model.State
	parent nodeID
	action model.Action // zero for initial nodes
	depth  int
}

// visitedSet deduplicates states by hash and owns the node arena.
type visitedSet interface {
	// insert adds n unless a state with the same hash is present. It
	// returns the id of the stored node and whether n was inserted.
	insert(n node) (nodeID, bool)
	node(id nodeID) node
	len() int
}

// localVisited is the single-worker visited set.
type localVisited struct {
	ids   map[string]nodeID
	nodes []node
}

func newLocalVisited() *localVisited {
	return &localVisited{ids: make(map[string]nodeID)}
}

func (v *localVisited) insert(n node) (nodeID, bool) {
	if id, ok := v.ids[n.state.Hash()]; ok {
		return id, false
	}
	id := nodeID(len(v.nodes))
	v.nodes = append(v.nodes, n)
	v.ids[n.state.Hash()] = id
	return id, true
}

func (v *localVisited) node(id nodeID) node {
	return v.nodes[id]
}

func (v *localVisited) len() int {
	return len(v.nodes)
}

const visitedShards = 64

type visitedShard struct {
	mu  sync.Mutex
	ids map[string]nodeID
}

// sharedVisited is safe for concurrent use. The shard lock is held across
// the arena append, so check-and-insert is atomic per hash.
type sharedVisited struct {
	shards [visitedShards]visitedShard

	arenaMu sync.RWMutex
	nodes   []node
}

func newSharedVisited() *sharedVisited {
	v := &sharedVisited{}
	for i := range v.shards {
		v.shards[i].ids = make(map[string]nodeID)
	}
	return v
}

func (v *sharedVisited) shard(hash string) *visitedShard {
	return &v.shards[fnv1a.HashString32(hash)%visitedShards]
}

func (v *sharedVisited) insert(n node) (nodeID, bool) {
	hash := n.state.Hash()
	sh := v.shard(hash)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if id, ok := sh.ids[hash]; ok {
		return id, false
	}

	v.arenaMu.Lock()
	id := nodeID(len(v.nodes))
	v.nodes = append(v.nodes, n)
	v.arenaMu.Unlock()

	sh.ids[hash] = id
	return id, true
}

func (v *sharedVisited) node(id nodeID) node {
	v.arenaMu.RLock()
	defer v.arenaMu.RUnlock()
	return v.nodes[id]
}

func (v *sharedVisited) len() int {
	v.arenaMu.RLock()
	defer v.arenaMu.RUnlock()
	return len(v.nodes)
}

// pathTo walks parent links back to an initial node and returns the
// actions and states along the way, oldest first.
func pathTo(v visitedSet, id nodeID) ([]model.Action, []model.State) {
	var actions []model.Action
	var states []model.State
	for id != noParent {
		n := v.node(id)
		states = append(states, n.state)
		if n.parent != noParent {
			actions = append(actions, n.action)
		}
		id = n.parent
	}
	slices.Reverse(actions)
	slices.Reverse(states)
	return actions, states
}
