package session

import (
	"sync"

	"github.com/charmbracelet/log"
)

// backgroundJobs is the process-wide set of in-flight singleton job ids.
// It is the only global mutable state in the core; contention is
// negligible since mutations happen only at handler boundaries.
var backgroundJobs = struct {
	sync.Mutex
	ids map[uint64]struct{}
}{ids: make(map[uint64]struct{})}

// TryRegisterJob inserts id and reports whether it was absent before.
func TryRegisterJob(id uint64) bool {
	backgroundJobs.Lock()
	defer backgroundJobs.Unlock()
	if _, exists := backgroundJobs.ids[id]; exists {
		return false
	}
	backgroundJobs.ids[id] = struct{}{}
	return true
}

// CompleteJob removes id, making it eligible to run again.
func CompleteJob(id uint64) {
	backgroundJobs.Lock()
	defer backgroundJobs.Unlock()
	delete(backgroundJobs.ids, id)
}

// JobRegistered reports whether id is currently in flight.
func JobRegistered(id uint64) bool {
	backgroundJobs.Lock()
	defer backgroundJobs.Unlock()
	_, exists := backgroundJobs.ids[id]
	return exists
}

// SpawnSingletonJob runs job on its own goroutine unless a job with the
// same id is already in flight, in which case job is dropped. The id is
// released when the job returns, panicking included.
func SpawnSingletonJob(id uint64, job func()) {
	if !TryRegisterJob(id) {
		return
	}
	go func() {
		defer CompleteJob(id)
		defer func() {
			if r := recover(); r != nil {
				log.Error("Background job panicked", "job_id", id, "panic", r)
			}
		}()
		job()
	}()
}
