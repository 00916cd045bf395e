package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConnection struct {
	id     string
	userID string
}

func (that *stubConnection) ID() string { return that.id }
func (that *stubConnection) UserID() string { return that.userID }
func (that *stubConnection) Push(_ []byte) error { return nil }
func (that *stubConnection) Close() {}

func TestRegistry_Register(t *testing.T) {
	// Given: an empty registry
	registry := NewRegistry()

	// When: two connections register to one game and one to another
	registry.Register("1", &stubConnection{id: "c1", userID: "alice"})
	registry.Register("1", &stubConnection{id: "c2", userID: "bob"})
	registry.Register("2", &stubConnection{id: "c3", userID: "carol"})

	// Then: each game sees its own connections
	assert.Len(t, registry.ConnectionsOf("1"), 2)
	assert.Len(t, registry.ConnectionsOf("2"), 1)
	assert.Empty(t, registry.ConnectionsOf("3"))
	assert.Equal(t, []string{"1", "2"}, registry.GameIDs())
	assert.Equal(t, map[string]int{"1": 2, "2": 1}, registry.Snapshot())
}

func TestRegistry_RegisterSameConnectionTwice(t *testing.T) {
	registry := NewRegistry()
	conn := &stubConnection{id: "c1", userID: "alice"}

	registry.Register("1", conn)
	registry.Register("1", conn)

	assert.Len(t, registry.ConnectionsOf("1"), 1)
}

func TestRegistry_Deregister(t *testing.T) {
	t.Run("Removes connection and prunes empty game", func(t *testing.T) {
		// Given: a game with one connection
		registry := NewRegistry()
		registry.Register("1", &stubConnection{id: "c1"})

		// When: the connection is deregistered
		removed := registry.Deregister("1", "c1")

		// Then: the game disappears from the registry
		assert.True(t, removed)
		assert.Empty(t, registry.GameIDs())
	})

	t.Run("Unknown connection", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register("1", &stubConnection{id: "c1"})

		assert.False(t, registry.Deregister("1", "c2"))
		assert.False(t, registry.Deregister("2", "c1"))
		assert.Len(t, registry.ConnectionsOf("1"), 1)
	})
}

func TestRegistry_DeregisterByConnectionID(t *testing.T) {
	// Given: one connection registered in two games next to another connection
	registry := NewRegistry()
	shared := &stubConnection{id: "shared"}
	registry.Register("1", shared)
	registry.Register("2", shared)
	registry.Register("2", &stubConnection{id: "other"})

	// When: it is removed by id only
	games := registry.DeregisterByConnectionID("shared")

	// Then: it is gone everywhere and the other connection stays
	assert.ElementsMatch(t, []string{"1", "2"}, games)
	assert.Empty(t, registry.ConnectionsOf("1"))
	require.Len(t, registry.ConnectionsOf("2"), 1)
	assert.Equal(t, "other", registry.ConnectionsOf("2")[0].ID())
}

func TestRegistry_ConnectionsOfIsASnapshot(t *testing.T) {
	// Given: a snapshot of a game's connections
	registry := NewRegistry()
	registry.Register("1", &stubConnection{id: "c1"})
	registry.Register("1", &stubConnection{id: "c2"})
	snapshot := registry.ConnectionsOf("1")

	// When: the registry changes
	registry.Deregister("1", "c1")

	// Then: the snapshot is unaffected
	assert.Len(t, snapshot, 2)
	assert.Len(t, registry.ConnectionsOf("1"), 1)
}

func TestRegistry_Concurrent(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			id := fmt.Sprintf("c%d", i)
			registry.Register("1", &stubConnection{id: id})
			for _, conn := range registry.ConnectionsOf("1") {
				_ = conn.Push(nil)
			}
			if i%2 == 0 {
				registry.DeregisterByConnectionID(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, registry.ConnectionsOf("1"), 25)
}
