package auction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// drainTimeout bounds how long queued jobs may take once Run is stopping.
const drainTimeout = 5 * time.Second

type completionJob struct {
	accountID uuid.UUID
	summary   models.AuctionSummary
}

// finalizeJob is exactly one of an item settlement or an auction completion.
type finalizeJob struct {
	settlement *models.Settlement
	completion *completionJob
}

// Finalizer writes terminal auction outcomes back to the entity store. It runs
// one worker so jobs are applied in the order they were enqueued. A failure is
// logged and never touches the session.
type Finalizer struct {
	entities EntityStore
	jobs     chan finalizeJob
}

func NewFinalizer(entities EntityStore, buffer int) *Finalizer {
	return &Finalizer{
		entities: entities,
		jobs:     make(chan finalizeJob, buffer),
	}
}

func (f *Finalizer) enqueue(job finalizeJob) {
	select {
	case f.jobs <- job:
	default:
		log.Error().
			Str("job", job.String()).
			Msg("finalizer queue full, dropping job")
	}
}

func (j finalizeJob) String() string {
	switch {
	case j.settlement != nil:
		return fmt.Sprintf("settle %s %s", j.settlement.PlayerID, j.settlement.Status)
	case j.completion != nil:
		return fmt.Sprintf("complete %s", j.completion.accountID)
	default:
		return "empty"
	}
}

// worker processes finalize jobs until ctx is done, then drains what is queued.
func (f *Finalizer) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Info().Msg("finalizer worker started")

	for {
		select {
		case <-ctx.Done():
			f.drain(context.WithoutCancel(ctx))
			log.Info().Msg("finalizer worker shutting down")
			return
		case job := <-f.jobs:
			f.handle(ctx, job)
		}
	}
}

func (f *Finalizer) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for {
		select {
		case job := <-f.jobs:
			f.handle(ctx, job)
		default:
			return
		}
	}
}

func (f *Finalizer) handle(ctx context.Context, job finalizeJob) {
	var err error
	switch {
	case job.settlement != nil:
		err = f.entities.SettlePlayer(ctx, *job.settlement)
	case job.completion != nil:
		err = f.entities.MarkAccountAuctioned(ctx, job.completion.accountID, job.completion.summary)
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("job", job.String()).
			Msg("finalizer job failed")
		return
	}
	log.Debug().Str("job", job.String()).Msg("finalizer job applied")
}
