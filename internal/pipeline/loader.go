// Package pipeline wires loading, KPI extraction, forecasting and insight
// generation together for the CLI, dashboard and HTTP surfaces.
package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/bizlens/internal/table"
)

// LoadResult holds the output of loading several input files.
type LoadResult struct {
	Tables      []*table.Table // in input order, nil where loading failed
	Errors      []error        // parallel to Tables
	TotalFiles  int
	LoadedFiles int
}

// Failed returns the errors of files that could not be loaded.
func (r *LoadResult) Failed() []error {
	var out []error
	for _, err := range r.Errors {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// LoadFiles loads every path using a bounded worker pool. Failures are
// recorded per file and never stop the others.
func LoadFiles(paths []string, progressFn ProgressFunc) *LoadResult {
	result := &LoadResult{
		Tables:     make([]*table.Table, len(paths)),
		Errors:     make([]error, len(paths)),
		TotalFiles: len(paths),
	}
	if len(paths) == 0 {
		return result
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	work := make(chan int, len(paths))
	for i := range paths {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	var processed atomic.Int64
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				result.Tables[idx], result.Errors[idx] = table.LoadFile(paths[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(paths))
				}
			}
		}()
	}
	wg.Wait()

	for _, t := range result.Tables {
		if t != nil {
			result.LoadedFiles++
		}
	}
	return result
}
