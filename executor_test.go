package commbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 — single publisher, single subscriber on a spinning SingleThreadedExecutor.
func TestScenarioSinglePublisherSingleSubscriber(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	node := d.AssignNode("n", Intraprocess).Get()

	exec := NewSingleThreadedExecutor(NewNoopLogger())
	exec.AddNode(node)

	var mu sync.Mutex
	var got []int
	_, err := NewSubscriber[int](node, "/t", 16, nil, func(v *int) {
		mu.Lock()
		got = append(got, *v)
		mu.Unlock()
	})
	require.NoError(t, err)

	pub, err := NewPublisher[int](node, "/t")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		exec.Spin(ctx)
		close(done)
	}()

	require.NoError(t, pub.Publish(10))
	require.NoError(t, pub.Publish(20))
	require.NoError(t, pub.Publish(30))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, time.Millisecond)

	exec.Stop()
	<-done

	mu.Lock()
	assert.Equal(t, []int{10, 20, 30}, got)
	mu.Unlock()
}

// S2 — a subscriber added after the first publish must not observe it.
func TestScenarioLateSubscriberMissesEarlierMessages(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	node := d.AssignNode("n", Intraprocess).Get()

	pub, err := NewPublisher[int](node, "/t")
	require.NoError(t, err)
	require.NoError(t, pub.Publish(1))

	var mu sync.Mutex
	var got []int
	sub, err := NewSubscriber[int](node, "/t", 16, nil, func(v *int) {
		mu.Lock()
		got = append(got, *v)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(2))
	require.NoError(t, pub.Publish(3))
	sub.TakeAll()

	mu.Lock()
	assert.Equal(t, []int{2, 3}, got)
	mu.Unlock()
}

// S5 — mutually-exclusive callbacks never overlap. Only the
// mutually-exclusive group is exercised here.
func TestScenarioMutualExclusionUnderMultiThreadedExecutor(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	node := d.AssignNode("n", Intraprocess).Get()
	exec := NewMultiThreadedExecutor(NewNoopLogger(), 4)
	exec.AddNode(node)

	exclGroup := node.NewCallbackGroup(MutuallyExclusive)
	exclGroup.BindExecutor(exec.ExecutorBase)

	var exclActive int32
	var exclOverlap bool
	var mu sync.Mutex

	work := func() {
		mu.Lock()
		exclActive++
		if exclActive > 1 {
			exclOverlap = true
		}
		mu.Unlock()
		time.Sleep(15 * time.Millisecond)
		mu.Lock()
		exclActive--
		mu.Unlock()
	}

	pubA, err := NewPublisher[int](node, "/excl-a")
	require.NoError(t, err)
	pubB, err := NewPublisher[int](node, "/excl-b")
	require.NoError(t, err)

	_, err = NewSubscriber[int](node, "/excl-a", 4, exclGroup, func(*int) { work() })
	require.NoError(t, err)
	_, err = NewSubscriber[int](node, "/excl-b", 4, exclGroup, func(*int) { work() })
	require.NoError(t, err)
	assert.Equal(t, 2, exclGroup.SubscriberCount())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		exec.Spin(ctx)
		close(done)
	}()

	require.NoError(t, pubA.Publish(1))
	require.NoError(t, pubB.Publish(1))

	time.Sleep(80 * time.Millisecond)
	exec.Stop()
	<-done

	mu.Lock()
	assert.False(t, exclOverlap, "mutually-exclusive group callbacks must never overlap")
	mu.Unlock()
}

// S6 — after Stop, no further callbacks fire.
func TestScenarioOrderlyShutdown(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	node := d.AssignNode("n", Intraprocess).Get()
	exec := NewSingleThreadedExecutor(NewNoopLogger())
	exec.AddNode(node)

	var calls int32
	_, err := NewSubscriber[int](node, "/t", 16, nil, func(*int) {
		calls++
	})
	require.NoError(t, err)
	pub, err := NewPublisher[int](node, "/t")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		exec.Spin(ctx)
		close(done)
	}()

	require.NoError(t, pub.Publish(1))
	time.Sleep(20 * time.Millisecond)
	exec.Stop()
	<-done

	seenBefore := calls
	node.Close()
	assert.Equal(t, seenBefore, calls, "no callbacks fire after shutdown")
}

type stampedInt struct {
	ts  int64
	val int
}

func (s *stampedInt) TimestampNS() int64 { return s.ts }

func TestTimeOrderedExecutorMonotonicRelease(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	node := d.AssignNode("n", Intraprocess).Get()
	exec := NewTimeOrderedExecutor(NewNoopLogger(), 0) // offset 0: release everything
	exec.AddNode(node)

	var mu sync.Mutex
	var seen []int64
	_, err := NewSubscriber[stampedInt](node, "/cam", 64, nil, func(v *stampedInt) {
		mu.Lock()
		seen = append(seen, v.ts)
		mu.Unlock()
	})
	require.NoError(t, err)

	pub, err := NewPublisher[stampedInt](node, "/cam")
	require.NoError(t, err)

	for _, ts := range []int64{30, 10, 20} {
		require.NoError(t, pub.Publish(stampedInt{ts: ts}))
	}

	exec.SpinSome()
	exec.SpinSome()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.True(t, seen[0] <= seen[1] && seen[1] <= seen[2])
}

func TestSeqOrderedExecutorStrictOrder(t *testing.T) {
	d := NewDomain(NewNoopLogger())
	node := d.AssignNode("n", Intraprocess).Get()
	exec := NewSeqOrderedExecutor(NewNoopLogger(), 64, 256)
	exec.AddNode(node)

	var mu sync.Mutex
	var seen []int
	_, err := NewSubscriber[int](node, "/seq", 128, nil, func(v *int) {
		mu.Lock()
		seen = append(seen, *v)
		mu.Unlock()
	})
	require.NoError(t, err)

	pub, err := NewPublisher[int](node, "/seq")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, pub.Publish(i))
	}

	exec.SpinSome()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 10)
	for i, v := range seen {
		assert.Equal(t, i, v)
	}
}
