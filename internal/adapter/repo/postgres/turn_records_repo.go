package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

// TurnRecordRepo persists the final reply and structured response for a job.
type TurnRecordRepo struct{ Pool PgxPool }

// NewTurnRecordRepo constructs a TurnRecordRepo with the given pool.
func NewTurnRecordRepo(p PgxPool) *TurnRecordRepo { return &TurnRecordRepo{Pool: p} }

// Upsert stores or replaces the record for a job.
func (r *TurnRecordRepo) Upsert(ctx context.Context, rec domain.TurnRecord) error {
	tracer := otel.Tracer("repo.turn_records")
	ctx, span := tracer.Start(ctx, "turn_records.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "turn_records"),
	)
	var respJSON []byte
	if rec.Response != nil {
		b, err := json.Marshal(rec.Response)
		if err != nil {
			return fmt.Errorf("op=turnrecord.upsert: %w", err)
		}
		respJSON = b
	}
	q := `INSERT INTO turn_records (job_id, reply, response, created_at)
	      VALUES ($1,$2,$3,$4)
	      ON CONFLICT (job_id) DO UPDATE SET reply=EXCLUDED.reply, response=EXCLUDED.response`
	_, err := r.Pool.Exec(ctx, q, rec.JobID, rec.Reply, respJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=turnrecord.upsert: %w", err)
	}
	return nil
}

// GetByJobID loads the record produced for a job.
func (r *TurnRecordRepo) GetByJobID(ctx context.Context, jobID string) (domain.TurnRecord, error) {
	tracer := otel.Tracer("repo.turn_records")
	ctx, span := tracer.Start(ctx, "turn_records.GetByJobID")
	defer span.End()
	q := `SELECT job_id, reply, response, created_at FROM turn_records WHERE job_id=$1`
	row := r.Pool.QueryRow(ctx, q, jobID)
	var rec domain.TurnRecord
	var respJSON []byte
	if err := row.Scan(&rec.JobID, &rec.Reply, &respJSON, &rec.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.TurnRecord{}, fmt.Errorf("op=turnrecord.get: %w", domain.ErrNotFound)
		}
		return domain.TurnRecord{}, fmt.Errorf("op=turnrecord.get: %w", err)
	}
	if len(respJSON) > 0 {
		var resp domain.Response
		if err := json.Unmarshal(respJSON, &resp); err != nil {
			return domain.TurnRecord{}, fmt.Errorf("op=turnrecord.get: %w", err)
		}
		rec.Response = &resp
	}
	return rec, nil
}
