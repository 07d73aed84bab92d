package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryRegisterJob(t *testing.T) {
	const id = 7001
	require.True(t, TryRegisterJob(id))
	assert.False(t, TryRegisterJob(id))
	CompleteJob(id)
	assert.True(t, TryRegisterJob(id))
	CompleteJob(id)
}

func TestSpawnSingletonJobRunsOnce(t *testing.T) {
	const id = 7002
	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	SpawnSingletonJob(id, func() {
		runs.Add(1)
		close(started)
		<-release
	})
	<-started

	// Second spawn with the same id while the first is in flight is
	// dropped on the floor.
	SpawnSingletonJob(id, func() {
		runs.Add(1)
	})

	close(release)
	waitUntil(t, func() bool { return !JobRegistered(id) })
	assert.Equal(t, int32(1), runs.Load())

	// After completion the id is free again.
	done := make(chan struct{})
	SpawnSingletonJob(id, func() {
		runs.Add(1)
		close(done)
	})
	<-done
	waitUntil(t, func() bool { return !JobRegistered(id) })
	assert.Equal(t, int32(2), runs.Load())
}

func TestSpawnSingletonJobConcurrent(t *testing.T) {
	const id = 7003
	var runs atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SpawnSingletonJob(id, func() {
				runs.Add(1)
				<-release
			})
		}()
	}
	wg.Wait()

	close(release)
	waitUntil(t, func() bool { return !JobRegistered(id) })
	assert.Equal(t, int32(1), runs.Load())
}

func TestSingletonJobReleasedOnPanic(t *testing.T) {
	const id = 7004
	SpawnSingletonJob(id, func() {
		panic("boom")
	})
	waitUntil(t, func() bool { return !JobRegistered(id) })
	assert.True(t, TryRegisterJob(id))
	CompleteJob(id)
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
