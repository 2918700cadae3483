// Package domain holds the core entities and ports of the recommendation
// service. It has no dependencies on adapters or frameworks.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrInternal        = errors.New("internal error")
)

// CatalogItem is one retrieved catalog entry with the metadata extracted at
// ingestion time. Items are immutable: the retriever builds them per turn and
// they are discarded when the turn completes.
type CatalogItem struct {
	Brand            string
	Model            string
	Year             int // 0 means unknown
	Comment          string
	Text             string
	PriceUSDEstimate int // dollars; 0 means unknown
	EngineCC         int
	SuspensionNotes  string
	RideType         string
	Source           string
}

// FullText joins the comment and raw text fields for prompt building and
// keyword extraction.
func (c CatalogItem) FullText() string {
	parts := make([]string, 0, 2)
	if c.Comment != "" {
		parts = append(parts, c.Comment)
	}
	if c.Text != "" {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, " ")
}

// Session is a persisted conversation: an ordered list of user messages.
type Session struct {
	ID        string
	Messages  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TurnJobStatus enumerates async turn job states.
type TurnJobStatus string

const (
	TurnQueued     TurnJobStatus = "queued"
	TurnProcessing TurnJobStatus = "processing"
	TurnCompleted  TurnJobStatus = "completed"
	TurnFailed     TurnJobStatus = "failed"
)

// TurnJob is an asynchronous evaluation of one conversation snapshot.
type TurnJob struct {
	ID        string
	Status    TurnJobStatus
	Error     string
	Messages  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TurnRecord is the stored outcome of a turn: the display reply plus the
// structured response when the model produced one.
type TurnRecord struct {
	JobID     string
	Reply     string
	Response  *Response
	CreatedAt time.Time
}

// TurnTaskPayload is the queue message for an async turn.
type TurnTaskPayload struct {
	JobID    string   `json:"job_id"`
	Messages []string `json:"messages"`
}

// ModelClient invokes the language model with a finished prompt and returns
// its raw text. Implementations must not panic; transport failures come back
// as errors.
type ModelClient interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Embedder returns embedding vectors for texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever returns catalog items ranked by semantic relevance to the query.
// An empty result is not an error.
type Retriever interface {
	GetRelevantItems(ctx context.Context, query string) ([]CatalogItem, error)
}

// SessionRepository persists conversations for the synchronous chat surface.
type SessionRepository interface {
	Create(ctx context.Context, s Session) (string, error)
	Get(ctx context.Context, id string) (Session, error)
	AppendMessage(ctx context.Context, id, message string) error
}

// TurnJobRepository persists async turn jobs.
type TurnJobRepository interface {
	Create(ctx context.Context, j TurnJob) (string, error)
	UpdateStatus(ctx context.Context, id string, status TurnJobStatus, errMsg *string) error
	Get(ctx context.Context, id string) (TurnJob, error)
}

// TurnRecordRepository persists completed turn outcomes.
type TurnRecordRepository interface {
	Upsert(ctx context.Context, r TurnRecord) error
	GetByJobID(ctx context.Context, jobID string) (TurnRecord, error)
}

// Queue enqueues async turn jobs.
type Queue interface {
	EnqueueTurn(ctx context.Context, payload TurnTaskPayload) (string, error)
}
