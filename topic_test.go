package commbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutCompletenessAndLateSubscriberMisses(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	nh := d.AssignNode("n1", Intraprocess)
	node := nh.Get()

	pub, err := NewPublisher[int](node, "/t")
	require.NoError(t, err)

	var mu sync.Mutex
	var early []int
	sub, err := NewSubscriber[int](node, "/t", 16, nil, func(v *int) {
		mu.Lock()
		early = append(early, *v)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(1))
	sub.TakeAll()

	mu.Lock()
	assert.Equal(t, []int{1}, early)
	mu.Unlock()

	// A late subscriber added after this publish must not observe it.
	var late []int
	sub2, err := NewSubscriber[int](node, "/t", 16, nil, func(v *int) {
		mu.Lock()
		late = append(late, *v)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(2))
	require.NoError(t, pub.Publish(3))
	sub.TakeAll()
	sub2.TakeAll()

	mu.Lock()
	assert.Equal(t, []int{1, 2, 3}, early)
	assert.Equal(t, []int{2, 3}, late)
	mu.Unlock()

	sub.Stop()
	sub2.Stop()
	pub.Close()
}

func TestSubscriberQueueOverflowDropsOldest(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	nh := d.AssignNode("n1", Intraprocess)
	node := nh.Get()

	pub, err := NewPublisher[int](node, "/bounded")
	require.NoError(t, err)

	var got []int
	sub, err := NewSubscriber[int](node, "/bounded", 2, nil, func(v *int) {
		got = append(got, *v)
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(1))
	require.NoError(t, pub.Publish(2))
	require.NoError(t, pub.Publish(3)) // overflows, drops 1

	sub.TakeAll()
	assert.Equal(t, []int{2, 3}, got)
}
