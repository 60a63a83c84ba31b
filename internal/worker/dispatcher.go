package worker

import (
	"context"

	"voicenotes/internal/model"
)

// PoolDispatcher runs transcription jobs on an in-process worker pool.
// The upload handler returns immediately; the job executes on a pool
// worker with the pool's own context, not the request's.
type PoolDispatcher struct {
	pool        *WorkerPool
	transcriber *Transcriber
}

func NewPoolDispatcher(pool *WorkerPool, transcriber *Transcriber) *PoolDispatcher {
	return &PoolDispatcher{
		pool:        pool,
		transcriber: transcriber,
	}
}

func (d *PoolDispatcher) Dispatch(ctx context.Context, job model.TranscriptionJob) error {
	return d.pool.Submit(func(ctx context.Context) error {
		return d.transcriber.Process(ctx, job)
	})
}
