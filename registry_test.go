package commbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryEmplaceAndDrop(t *testing.T) {
	r := NewRegistry[int]()
	h := r.Emplace(42)
	require.False(t, h.Empty())
	assert.Equal(t, 42, *h.Get())
	assert.Equal(t, 1, r.Len())

	h.Drop()
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCloneKeepsSlotAlive(t *testing.T) {
	r := NewRegistry[string]()
	h1 := r.Emplace("alive")
	h2 := h1.Clone()

	h1.Drop()
	assert.Equal(t, 1, r.Len(), "slot must survive while a clone is outstanding")
	assert.Equal(t, "alive", *h2.Get())

	h2.Drop()
	assert.Equal(t, 0, r.Len())
}

func TestQueryableRegistryIdempotentByName(t *testing.T) {
	q := NewQueryableRegistry[int]()
	calls := 0
	create := func() (int, error) {
		calls++
		return calls, nil
	}

	h1, created1, err := q.Emplace("topic-a", create)
	require.NoError(t, err)
	require.True(t, created1)

	h2, created2, err := q.Emplace("topic-a", create)
	require.NoError(t, err)
	require.False(t, created2)
	assert.Equal(t, h1.Index(), h2.Index())
	assert.Equal(t, 1, calls, "create must not run twice for a live name")
}

func TestQueryableRegistryNameReclaimedAfterLastDrop(t *testing.T) {
	q := NewQueryableRegistry[int]()
	n := 0
	create := func() (int, error) { n++; return n, nil }

	h1, _, err := q.Emplace("topic-b", create)
	require.NoError(t, err)
	first := h1.Index()
	h1.Drop()

	assert.False(t, q.Contains("topic-b"))

	h2, created, err := q.Emplace("topic-b", create)
	require.NoError(t, err)
	require.True(t, created)
	assert.NotEqual(t, first, h2.Index())
}

func TestQueryableRegistryAtMissingIsEmpty(t *testing.T) {
	q := NewQueryableRegistry[int]()
	h := q.At("nothing-here")
	assert.True(t, h.Empty())
}
