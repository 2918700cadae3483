package redpanda

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/danielgaio/moto-advisor/internal/adapter/observability"
	"github.com/danielgaio/moto-advisor/internal/domain"
	"github.com/danielgaio/moto-advisor/internal/usecase"
)

// turnTimeout bounds one model round trip plus the corrective retry.
const turnTimeout = 5 * time.Minute

// HandleTurn processes one queued turn: marks the job processing, runs the
// turn pipeline, stores the reply and transitions the job to its final state.
func HandleTurn(
	ctx context.Context,
	jobs domain.TurnJobRepository,
	records domain.TurnRecordRepository,
	turns *usecase.TurnService,
	payload domain.TurnTaskPayload,
) error {
	tracer := otel.Tracer("queue.handler")
	ctx, span := tracer.Start(ctx, "HandleTurn")
	defer span.End()

	if jobs == nil || records == nil || turns == nil {
		return fmt.Errorf("op=queue.handle: nil dependency")
	}

	turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	if err := jobs.UpdateStatus(turnCtx, payload.JobID, domain.TurnProcessing, nil); err != nil {
		return fmt.Errorf("op=queue.handle: update status: %w", err)
	}
	observability.StartProcessingTurn("async")

	result, err := turns.ProcessTurn(turnCtx, payload.Messages)
	if err != nil {
		msg := err.Error()
		if uerr := jobs.UpdateStatus(ctx, payload.JobID, domain.TurnFailed, &msg); uerr != nil {
			slog.Error("failed to mark job failed", slog.String("job_id", payload.JobID), slog.Any("error", uerr))
		}
		observability.FailTurn("async")
		return fmt.Errorf("op=queue.handle: process turn: %w", err)
	}

	rec := domain.TurnRecord{
		JobID:    payload.JobID,
		Reply:    result.Reply,
		Response: result.Response,
	}
	if err := records.Upsert(ctx, rec); err != nil {
		msg := err.Error()
		_ = jobs.UpdateStatus(ctx, payload.JobID, domain.TurnFailed, &msg)
		observability.FailTurn("async")
		return fmt.Errorf("op=queue.handle: store record: %w", err)
	}

	if err := jobs.UpdateStatus(ctx, payload.JobID, domain.TurnCompleted, nil); err != nil {
		return fmt.Errorf("op=queue.handle: update status: %w", err)
	}
	observability.CompleteTurn("async")
	observability.ObserveTurnOutcome(outcomeLabel(result.Response), result.Retried)
	slog.Info("turn completed", slog.String("job_id", payload.JobID))
	return nil
}

func outcomeLabel(resp *domain.Response) string {
	if resp == nil {
		return "raw"
	}
	return resp.Type
}
