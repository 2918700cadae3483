package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/danielgaio/moto-advisor/internal/adapter/observability"
	"github.com/danielgaio/moto-advisor/internal/config"
	"github.com/danielgaio/moto-advisor/internal/domain"
	"github.com/danielgaio/moto-advisor/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg         config.Config
	Sessions    domain.SessionRepository
	Jobs        domain.TurnJobRepository
	Records     domain.TurnRecordRepository
	Queue       domain.Queue
	Turns       *usecase.TurnService
	DBCheck     func(ctx context.Context) error
	RedisCheck  func(ctx context.Context) error
	QdrantCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, sessions domain.SessionRepository, jobs domain.TurnJobRepository, records domain.TurnRecordRepository, queue domain.Queue, turns *usecase.TurnService, dbCheck, redisCheck, qdrantCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Sessions: sessions, Jobs: jobs, Records: records, Queue: queue, Turns: turns, DBCheck: dbCheck, RedisCheck: redisCheck, QdrantCheck: qdrantCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func validationDetails(err error) map[string]string {
	verrs := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}

// acceptsJSON rejects requests whose Accept header excludes JSON.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || a == "*/*" || strings.Contains(a, "application/json") {
		return true
	}
	writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
		Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a},
	}})
	return false
}

// ChatHandler runs one synchronous conversational turn. When no session id
// is supplied a new session is created; otherwise the message is appended to
// the existing conversation before the turn runs over its full history.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			SessionID string `json:"session_id"`
			Message   string `json:"message" validate:"required,max=2000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}

		ctx := r.Context()
		sessionID := req.SessionID
		var err error
		if sessionID == "" {
			sessionID, err = s.Sessions.Create(ctx, domain.Session{Messages: []string{req.Message}})
			if err != nil {
				writeError(w, r, fmt.Errorf("create session: %w", err), nil)
				return
			}
		} else if err = s.Sessions.AppendMessage(ctx, sessionID, req.Message); err != nil {
			writeError(w, r, fmt.Errorf("append message: %w", err), nil)
			return
		}

		session, err := s.Sessions.Get(ctx, sessionID)
		if err != nil {
			writeError(w, r, fmt.Errorf("load session: %w", err), nil)
			return
		}

		result, err := s.Turns.ProcessTurn(ctx, session.Messages)
		if err != nil {
			writeError(w, r, fmt.Errorf("process turn: %w", err), nil)
			return
		}
		outcome := "raw"
		if result.Response != nil {
			outcome = result.Response.Type
		}
		observability.ObserveTurnOutcome(outcome, result.Retried)

		resp := map[string]any{"session_id": sessionID, "reply": result.Reply}
		if result.Response != nil {
			resp["response"] = result.Response
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// EnqueueTurnHandler creates a turn job and enqueues it for async processing.
func (s *Server) EnqueueTurnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			Messages []string `json:"messages" validate:"required,min=1,dive,max=2000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}

		ctx := r.Context()
		jobID, err := s.Jobs.Create(ctx, domain.TurnJob{Status: domain.TurnQueued, Messages: req.Messages})
		if err != nil {
			writeError(w, r, fmt.Errorf("create job: %w", err), nil)
			return
		}

		if _, err := s.Queue.EnqueueTurn(ctx, domain.TurnTaskPayload{JobID: jobID, Messages: req.Messages}); err != nil {
			msg := err.Error()
			_ = s.Jobs.UpdateStatus(ctx, jobID, domain.TurnFailed, &msg)
			writeError(w, r, fmt.Errorf("enqueue: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": jobID, "status": string(domain.TurnQueued)})
	}
}

// TurnStatusHandler returns job status and the stored reply when completed.
func (s *Server) TurnStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		ctx := r.Context()
		job, err := s.Jobs.Get(ctx, id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}

		body := map[string]any{"id": job.ID, "status": string(job.Status)}
		switch job.Status {
		case domain.TurnFailed:
			body["error"] = job.Error
		case domain.TurnCompleted:
			rec, err := s.Records.GetByJobID(ctx, id)
			if err != nil {
				writeError(w, r, fmt.Errorf("load record: %w", err), nil)
				return
			}
			body["reply"] = rec.Reply
			if rec.Response != nil {
				body["response"] = rec.Response
			}
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// ReadyzHandler returns a readiness handler that probes DB, Redis and Qdrant.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 3)
		probe := func(name string, fn func(context.Context) error) {
			if fn == nil {
				return
			}
			if err := fn(ctx); err != nil {
				checks = append(checks, check{Name: name, OK: false, Details: err.Error()})
				return
			}
			checks = append(checks, check{Name: name, OK: true})
		}
		probe("db", s.DBCheck)
		probe("redis", s.RedisCheck)
		probe("qdrant", s.QdrantCheck)

		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
