// Package async runs independent named tasks concurrently and gathers their
// results. The dashboard handlers use it to fan a report request out across
// several queries instead of running them sequentially.
package async

import (
	"context"
	"sync"
)

// Task is a named unit of work.
type Task struct {
	Name    string
	Execute func() (interface{}, error)
}

// Result pairs a task's output with its error, keyed by task name.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool bounds how many tasks run at once.
type Pool struct {
	concurrency int
}

// NewPool returns a pool running at most concurrency tasks in parallel.
// A non-positive concurrency runs tasks one at a time.
func NewPool(concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{concurrency: concurrency}
}

// Execute runs every task and returns results keyed by task name. Tasks not
// started before ctx is canceled are reported with ctx's error; tasks already
// running are allowed to finish.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, p.concurrency)
		results = make(map[string]Result, len(tasks))
	)

	record := func(r Result) {
		mu.Lock()
		results[r.Name] = r
		mu.Unlock()
	}

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			record(Result{Name: task.Name, Err: err})
			continue
		}
		select {
		case <-ctx.Done():
			record(Result{Name: task.Name, Err: ctx.Err()})
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			defer func() { <-sem }()
			data, err := t.Execute()
			record(Result{Name: t.Name, Data: data, Err: err})
		}(task)
	}

	wg.Wait()
	return results
}
