package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

// SessionRepo persists conversations using a minimal pgx pool.
type SessionRepo struct{ Pool PgxPool }

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewSessionRepo constructs a SessionRepo with the given pool.
func NewSessionRepo(p PgxPool) *SessionRepo { return &SessionRepo{Pool: p} }

// Create stores a new session and returns its id (generates one if empty).
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) (string, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "sessions"),
	)
	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO sessions (id, messages, created_at, updated_at) VALUES ($1,$2,$3,$4)`
	_, err := r.Pool.Exec(ctx, q, id, s.Messages, time.Now().UTC(), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=session.create: %w", err)
	}
	return id, nil
}

// Get loads a session by id.
func (r *SessionRepo) Get(ctx context.Context, id string) (domain.Session, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Get")
	defer span.End()
	q := `SELECT id, messages, created_at, updated_at FROM sessions WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var s domain.Session
	if err := row.Scan(&s.ID, &s.Messages, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Session{}, fmt.Errorf("op=session.get: %w", domain.ErrNotFound)
		}
		return domain.Session{}, fmt.Errorf("op=session.get: %w", err)
	}
	return s, nil
}

// AppendMessage adds one user message to an existing session.
func (r *SessionRepo) AppendMessage(ctx context.Context, id, message string) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.AppendMessage")
	defer span.End()
	q := `UPDATE sessions SET messages = array_append(messages, $2), updated_at = $3 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=session.append: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=session.append: %w", domain.ErrNotFound)
	}
	return nil
}
