package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

// TurnJobRepo persists async turn jobs.
type TurnJobRepo struct{ Pool PgxPool }

// NewTurnJobRepo constructs a TurnJobRepo with the given pool.
func NewTurnJobRepo(p PgxPool) *TurnJobRepo { return &TurnJobRepo{Pool: p} }

// Create stores a new job (status defaults to queued) and returns its id.
func (r *TurnJobRepo) Create(ctx context.Context, j domain.TurnJob) (string, error) {
	tracer := otel.Tracer("repo.turn_jobs")
	ctx, span := tracer.Start(ctx, "turn_jobs.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "turn_jobs"),
	)
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	status := j.Status
	if status == "" {
		status = domain.TurnQueued
	}
	q := `INSERT INTO turn_jobs (id, status, error, messages, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.Pool.Exec(ctx, q, id, string(status), j.Error, j.Messages, time.Now().UTC(), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=turnjob.create: %w", err)
	}
	return id, nil
}

// UpdateStatus transitions a job; errMsg may be nil for non-failure states.
func (r *TurnJobRepo) UpdateStatus(ctx context.Context, id string, status domain.TurnJobStatus, errMsg *string) error {
	tracer := otel.Tracer("repo.turn_jobs")
	ctx, span := tracer.Start(ctx, "turn_jobs.UpdateStatus")
	defer span.End()
	msg := ""
	if errMsg != nil {
		msg = *errMsg
	}
	q := `UPDATE turn_jobs SET status=$2, error=$3, updated_at=$4 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, string(status), msg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=turnjob.update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=turnjob.update: %w", domain.ErrNotFound)
	}
	return nil
}

// Get loads a job by id.
func (r *TurnJobRepo) Get(ctx context.Context, id string) (domain.TurnJob, error) {
	tracer := otel.Tracer("repo.turn_jobs")
	ctx, span := tracer.Start(ctx, "turn_jobs.Get")
	defer span.End()
	q := `SELECT id, status, error, messages, created_at, updated_at FROM turn_jobs WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var j domain.TurnJob
	var status string
	if err := row.Scan(&j.ID, &status, &j.Error, &j.Messages, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.TurnJob{}, fmt.Errorf("op=turnjob.get: %w", domain.ErrNotFound)
		}
		return domain.TurnJob{}, fmt.Errorf("op=turnjob.get: %w", err)
	}
	j.Status = domain.TurnJobStatus(status)
	return j, nil
}
