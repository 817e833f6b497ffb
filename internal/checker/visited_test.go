package checker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mealy/internal/actors"
	"github.com/roach88/mealy/internal/model"
)

// chain returns the states reached by delivering an increment and then a
// report request, starting from the pair model's initial state.
func chain(t *testing.T) (*model.Model, []model.State, []model.Action) {
	t.Helper()
	m := pairModel(3, 3, actors.AtLeast)
	inits, err := m.InitStates()
	require.NoError(t, err)

	path := []model.Action{model.Deliver(inc(3)), model.Deliver(report)}
	states := []model.State{inits[0]}
	for _, a := range path {
		next, err := m.Next(states[len(states)-1], a)
		require.NoError(t, err)
		states = append(states, next)
	}
	return m, states, path
}

func TestVisited_InsertDeduplicates(t *testing.T) {
	_, states, _ := chain(t)

	for name, v := range map[string]visitedSet{
		"local":  newLocalVisited(),
		"shared": newSharedVisited(),
	} {
		t.Run(name, func(t *testing.T) {
			id, inserted := v.insert(node{state: states[0], parent: noParent})
			assert.True(t, inserted)
			assert.Equal(t, nodeID(0), id)

			again, inserted := v.insert(node{state: states[0], parent: 5, depth: 9})
			assert.False(t, inserted)
			assert.Equal(t, id, again)
			assert.Equal(t, 0, v.node(id).depth, "first insert wins")

			next, inserted := v.insert(node{state: states[1], parent: id, depth: 1})
			assert.True(t, inserted)
			assert.Equal(t, nodeID(1), next)
			assert.Equal(t, 2, v.len())
		})
	}
}

func TestVisited_SharedConcurrentInsert(t *testing.T) {
	_, states, _ := chain(t)
	v := newSharedVisited()

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, s := range states {
				if _, ok := v.insert(node{state: s, parent: noParent}); ok {
					mu.Lock()
					inserted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(states), inserted)
	assert.Equal(t, len(states), v.len())
}

func TestPathTo(t *testing.T) {
	_, states, path := chain(t)
	v := newLocalVisited()

	parent := noParent
	for i, s := range states {
		n := node{state: s, parent: parent, depth: i}
		if i > 0 {
			n.action = path[i-1]
		}
		id, _ := v.insert(n)
		parent = id
	}

	actions, got := pathTo(v, parent)
	assert.Equal(t, path, actions)
	require.Len(t, got, len(states))
	for i := range states {
		assert.True(t, states[i].Equal(got[i]))
	}

	actions, got = pathTo(v, 0)
	assert.Empty(t, actions)
	assert.Len(t, got, 1)
}

func TestFifoFrontier(t *testing.T) {
	f := &fifoFrontier{}
	for i := 0; i < 3000; i++ {
		f.push(nodeID(i))
	}
	for i := 0; i < 3000; i++ {
		id, ok := f.pop()
		require.True(t, ok)
		require.Equal(t, nodeID(i), id)
	}
	_, ok := f.pop()
	assert.False(t, ok)

	f.push(7)
	f.close()
	_, ok = f.pop()
	assert.False(t, ok, "closed frontier yields nothing")
}

func TestSharedFrontier_WaitsForActiveWorkers(t *testing.T) {
	f := newSharedFrontier()
	f.push(1)

	id, ok := f.pop()
	require.True(t, ok)
	assert.Equal(t, nodeID(1), id)

	got := make(chan nodeID)
	go func() {
		id, ok := f.pop()
		if ok {
			got <- id
		}
		close(got)
	}()

	// The second pop blocks while the first expansion is in progress and
	// picks up what that expansion pushes.
	f.push(2)
	f.done()
	assert.Equal(t, nodeID(2), <-got)
	f.done()

	_, ok = f.pop()
	assert.False(t, ok, "empty and idle")
}

func TestSharedFrontier_Close(t *testing.T) {
	f := newSharedFrontier()
	f.push(1)
	_, ok := f.pop()
	require.True(t, ok)

	released := make(chan bool)
	go func() {
		_, ok := f.pop()
		released <- ok
	}()
	f.close()
	assert.False(t, <-released)
}
