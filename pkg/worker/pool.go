package worker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/castaway-media/castaway/pkg/logger"
)

var log = logger.Get("Worker")

// Task is a single unit of work executed by one of the
// pool's workers.
type Task func()

// Pool executes queued tasks across a fixed number of worker
// goroutines. The size of the pool is the concurrency bound: at most
// 'size' tasks are ever in flight at once. Queue blocks once every
// worker is busy, so producers are naturally throttled rather than
// building an unbounded backlog.
type Pool struct {
	size    int
	tasks   chan Task
	wg      sync.WaitGroup
	started bool
}

// NewPool creates a pool with the given number of workers. Sizes
// below 1 are clamped to 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}

	return &Pool{size: size, tasks: make(chan Task)}
}

// Start spawns the worker goroutines. Each worker drains the task
// channel until it's closed by Close.
func (pool *Pool) Start() error {
	if pool.started {
		return errors.New("cannot start an already started worker pool")
	}

	pool.started = true
	for i := 0; i < pool.size; i++ {
		label := fmt.Sprintf("worker-%d", i)
		pool.wg.Add(1)

		go func(label string) {
			defer pool.wg.Done()
			log.Emit(logger.DEBUG, "Worker %s started\n", label)
			for task := range pool.tasks {
				task()
			}
			log.Emit(logger.DEBUG, "Worker %s stopped\n", label)
		}(label)
	}

	return nil
}

// Queue hands a task to the pool, blocking until a worker is free to
// accept it. Must not be called after Close.
func (pool *Pool) Queue(task Task) error {
	if !pool.started {
		return errors.New("cannot queue task on worker pool that is not started")
	}

	pool.tasks <- task
	return nil
}

// Close stops accepting new tasks and blocks until every queued task
// has finished. The pool cannot be restarted afterwards.
func (pool *Pool) Close() {
	if !pool.started {
		return
	}

	close(pool.tasks)
	pool.wg.Wait()
}
