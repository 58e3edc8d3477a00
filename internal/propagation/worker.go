package propagation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// gridJob is a unit of work for the worker pool.
type gridJob struct {
	index  int
	offset float64
}

// WorkerPool evaluates independent grid points on a fixed number of goroutines.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// PropagateGrid evaluates model at epoch + each offset. The returned samples
// are in the same (ascending) order as offsets regardless of completion
// order. It returns ctx.Err() if cancelled before every point was evaluated.
func (wp *WorkerPool) PropagateGrid(ctx context.Context, model Model, epoch time.Time, offsets []float64) ([]StateSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	samples := make([]StateSample, len(offsets))
	if len(offsets) == 0 {
		return samples, nil
	}

	if wp.workers == 1 {
		for i, off := range offsets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			samples[i] = evaluate(model, epoch, off)
		}
		return samples, nil
	}

	jobs := make(chan gridJob, wp.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Each index is written by exactly one worker.
				samples[job.index] = evaluate(model, epoch, job.offset)
			}
		}()
	}

	var cancelled error
feed:
	for i, off := range offsets {
		select {
		case jobs <- gridJob{index: i, offset: off}:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return samples, nil
}

// evaluate runs the model for one grid point.
func evaluate(model Model, epoch time.Time, offset float64) StateSample {
	res := model.Propagate(epoch, offset)
	at := res.Time
	if at.IsZero() {
		at = epoch.Add(minutesToDuration(offset))
	}
	return StateSample{
		TimeOffsetMinutes: offset,
		Time:              at,
		Position:          res.Position,
		Velocity:          res.Velocity,
		Valid:             res.Code == CodeOK,
		Code:              res.Code,
	}
}
