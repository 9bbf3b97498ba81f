// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"errors"
	"runtime"

	"github.com/panbanda/reach/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// ErrorFunc is called when a file processing error occurs.
// Receives the file path and the error. If nil, errors are silently skipped.
type ErrorFunc func(path string, err error)

// Options configure a parallel run. The zero value is usable.
type Options struct {
	// Workers bounds concurrency; <= 0 means 2x NumCPU.
	Workers    int
	OnProgress ProgressFunc
	OnError    ErrorFunc
}

// Workers resolves a configured worker count.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return n
}

// MapFiles processes files in parallel, calling fn with a parser owned by
// the calling worker. Successful results are returned in input order.
// Files not yet started when ctx is cancelled are skipped and ctx.Err() is
// returned alongside the partial results.
func MapFiles[T any](ctx context.Context, files []string, fn func(*parser.Parser, string) (T, error), opts Options) ([]T, error) {
	if len(files) == 0 {
		return nil, ctx.Err()
	}

	workers := Workers(opts.Workers)
	parsers := make(chan *parser.Parser, workers)
	defer func() {
		close(parsers)
		for psr := range parsers {
			psr.Close()
		}
	}()

	return run(ctx, files, workers, opts, func(path string) (T, error) {
		var psr *parser.Parser
		select {
		case psr = <-parsers:
		default:
			psr = parser.New()
		}
		defer func() { parsers <- psr }()
		return fn(psr, path)
	})
}

// ForEachFile processes files in parallel, calling fn for each file.
// No parser is provided; use this for non-AST work such as reading test
// files. Results keep input order.
func ForEachFile[T any](ctx context.Context, files []string, fn func(string) (T, error), opts Options) ([]T, error) {
	if len(files) == 0 {
		return nil, ctx.Err()
	}
	return run(ctx, files, Workers(opts.Workers), opts, fn)
}

type slot[T any] struct {
	value T
	ok    bool
}

func run[T any](ctx context.Context, files []string, workers int, opts Options, fn func(string) (T, error)) ([]T, error) {
	slots := make([]slot[T], len(files))

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := fn(path)
			if opts.OnProgress != nil {
				opts.OnProgress()
			}
			if err != nil {
				if opts.OnError != nil {
					opts.OnError(path, err)
				}
				return nil // Don't stop pool on individual file errors
			}

			slots[i] = slot[T]{value: result, ok: true}
			return nil
		})
	}
	err := p.Wait()

	results := make([]T, 0, len(files))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.value)
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return results, err
	}
	return results, ctx.Err()
}
