package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	_, err := New("dns", 0)
	require.Error(t, err)

	_, err = New("dns", -3)
	require.Error(t, err)
}

func TestLimiter_RespectsCapacityUnderBurst(t *testing.T) {
	const capacity = 3
	l, err := New("http", capacity)
	require.NoError(t, err)

	var current, maxSeen atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), func(context.Context) {
				n := current.Add(1)
				for {
					m := maxSeen.Load()
					if n <= m || maxSeen.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				current.Add(-1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen.Load(), int64(capacity))
	assert.LessOrEqual(t, l.Peak(), capacity)
	assert.Equal(t, 0, l.InFlight())
	assert.Equal(t, 0, l.Waiting())
	assert.Equal(t, int64(50), l.Admitted())
}

func TestLimiter_FIFOAdmission(t *testing.T) {
	l, err := New("text", 1)
	require.NoError(t, err)
	require.NoError(t, l.Acquire(context.Background()))

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if !assert.NoError(t, l.Acquire(context.Background())) {
				return
			}
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			l.Release()
		}(i)
		// queue each waiter before starting the next one
		require.Eventually(t, func() bool { return l.Waiting() == i+1 }, time.Second, time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}

	l.Release()
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLimiter_AcquireHonoursContext(t *testing.T) {
	l, err := New("dns", 1)
	require.NoError(t, err)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.InFlight())
	assert.Equal(t, 0, l.Waiting())
}

func TestLimiter_IndependentInstances(t *testing.T) {
	dns, err := New("dns", 1)
	require.NoError(t, err)
	http, err := New("http", 1)
	require.NoError(t, err)

	require.NoError(t, dns.Acquire(context.Background()))
	defer dns.Release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, http.Acquire(ctx), "saturating one gate must not block another")
	http.Release()

	assert.Equal(t, "dns", dns.Name())
	assert.Equal(t, 1, http.Capacity())
}
