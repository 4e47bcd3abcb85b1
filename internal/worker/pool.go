// Package worker runs the preview-clip analysis backfill: songs whose
// descriptor fetch came back empty get an energy estimate computed from
// their 30-second preview audio.
package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/ports"
)

// Job is one song to analyze.
type Job struct {
	SongID     string
	PreviewURL string
}

// Pool fans analysis jobs out over a fixed set of goroutines and writes the
// results through the feature store.
type Pool struct {
	store ports.FeatureStore
	jobs  chan Job
	wg    sync.WaitGroup
	log   zerolog.Logger
}

// NewPool creates a pool with the given queue size. Start launches the
// workers.
func NewPool(store ports.FeatureStore, queueSize int, log zerolog.Logger) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{store: store, jobs: make(chan Job, queueSize), log: log}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				// Once the run is canceled, drain the queue without
				// touching the jobs so Stop still returns promptly.
				if ctx.Err() != nil {
					continue
				}
				p.processJob(ctx, job)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight jobs to drain.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job, dropping it when the queue is full. The backfill is
// best-effort; a dropped job leaves the sentinel value in place.
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	default:
		p.log.Warn().Str("song", job.SongID).Msg("analysis queue full, dropping job")
	}
}

func (p *Pool) processJob(ctx context.Context, job Job) {
	if job.PreviewURL == "" {
		p.log.Debug().Str("song", job.SongID).Msg("no preview clip, skipping analysis")
		return
	}

	energy, err := AnalyzePreviewFunc(ctx, job.PreviewURL)
	if err != nil {
		p.log.Warn().Err(err).Str("song", job.SongID).Msg("preview analysis failed")
		return
	}

	if err := p.store.UpdateFeatureEnergy(ctx, job.SongID, energy); err != nil {
		p.log.Warn().Err(err).Str("song", job.SongID).Msg("failed to store analyzed energy")
		return
	}

	p.log.Debug().Str("song", job.SongID).Float64("energy", energy).Msg("backfilled energy from preview")
}
