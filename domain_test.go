package commbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrGetTopicIdempotent(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	h1, err := CreateOrGetTopic[int](d, "/imu")
	require.NoError(t, err)
	h2, err := CreateOrGetTopic[int](d, "/imu")
	require.NoError(t, err)
	assert.Equal(t, h1.Index(), h2.Index())
	assert.Same(t, h1.Topic(), h2.Topic())
}

func TestCreateOrGetTopicTypeMismatch(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	_, err := CreateOrGetTopic[int](d, "/shared")
	require.NoError(t, err)

	_, err = CreateOrGetTopic[string](d, "/shared")
	require.ErrorIs(t, err, ErrTypeMismatch)

	assert.True(t, d.TopicExists("/shared"))
}

func TestTopicNameReclaimedAfterAllHandlesDrop(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	h1, err := CreateOrGetTopic[int](d, "/ephemeral")
	require.NoError(t, err)
	first := h1.Index()
	h1.Drop()

	assert.False(t, d.TopicExists("/ephemeral"))

	h2, err := CreateOrGetTopic[int](d, "/ephemeral")
	require.NoError(t, err)
	assert.NotEqual(t, first, h2.Index())
}

func TestAssignNodeAlwaysFresh(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	h1 := d.AssignNode("n", Intraprocess)
	h2 := d.AssignNode("n", Intraprocess)
	assert.NotEqual(t, h1.Index(), h2.Index())
}
