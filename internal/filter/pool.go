package filter

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

func workerCount() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	return n
}

func newWorkerPool() *pool.Pool {
	return pool.New().WithMaxGoroutines(workerCount())
}
