package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielgaio/moto-advisor/internal/convo"
	"github.com/danielgaio/moto-advisor/internal/domain"
	"github.com/danielgaio/moto-advisor/internal/observability"
	"github.com/danielgaio/moto-advisor/pkg/textx"
)

// TurnResult is what one conversational turn produces: the display text plus
// the structured response for callers that want JSON instead of prose. The
// Response is nil when the model output never parsed.
type TurnResult struct {
	Reply    string
	Response *domain.Response
	Retried  bool
}

// TurnService drives a single conversational turn: retrieve, prompt, invoke,
// parse, validate (with at most one corrective retry), enrich, format.
type TurnService struct {
	model     domain.ModelClient
	retriever domain.Retriever
	log       *slog.Logger
}

func NewTurnService(model domain.ModelClient, retriever domain.Retriever, log *slog.Logger) *TurnService {
	if log == nil {
		log = slog.Default()
	}
	return &TurnService{model: model, retriever: retriever, log: log}
}

// ProcessTurn runs the full pipeline over the conversation history. Every
// validation failure degrades into a caller-visible reply string; the error
// return is reserved for transport failures (model or retriever unreachable).
func (s *TurnService) ProcessTurn(ctx context.Context, history []string) (TurnResult, error) {
	log := observability.LoggerFromContext(ctx, s.log)

	query, _ := convo.GenerateRetrieverQuery(spellCorrected(history))
	items, err := s.retriever.GetRelevantItems(ctx, query)
	if err != nil {
		return TurnResult{}, fmt.Errorf("retrieve catalog items: query=%q: %w", query, err)
	}
	log.Debug("retrieved catalog items", slog.String("query", query), slog.Int("count", len(items)))

	prompt := BuildPrompt(history, items)
	raw, err := s.model.Invoke(ctx, prompt)
	if err != nil {
		return TurnResult{}, fmt.Errorf("invoke model: %w", err)
	}
	raw = stripDebugMarkers(raw)

	resp, err := domain.ParseResponse(raw)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaInvalid) {
			log.Warn("model returned unrecognized object shape", slog.String("raw", textx.Truncate(raw, 200)))
			return TurnResult{Reply: "Response validation failed: " + err.Error()}, nil
		}
		// Non-JSON output goes back verbatim: the model chose prose.
		return TurnResult{Reply: raw}, nil
	}

	outcome := ValidateAndFilter(resp, history)
	retried := false
	switch {
	case outcome.Accepted:
		resp = outcome.Response
	case outcome.Action == domain.ValidationRetry:
		retried = true
		var failReply string
		resp, failReply = s.retryOnce(ctx, log, prompt, history, outcome)
		if resp == nil {
			return TurnResult{Reply: failReply, Retried: true}, nil
		}
	default:
		return TurnResult{Reply: "Response validation failed: " + outcome.Reason}, nil
	}

	resp = EnrichPicks(resp, items)
	return TurnResult{Reply: FormatResponse(resp), Response: resp, Retried: retried}, nil
}

// retryOnce re-invokes the model with the corrective instruction appended.
// On success it returns the validated retry response; on any failure it
// returns nil plus the reply text describing what went wrong. There is never
// a second retry.
func (s *TurnService) retryOnce(ctx context.Context, log *slog.Logger, prompt string, history []string, outcome domain.ValidationOutcome) (*domain.Response, string) {
	log.Info("retrying model after failed validation",
		slog.String("reason", outcome.Reason),
		slog.String("attribute", outcome.Attribute))

	retryPrompt := AppendRetryInstruction(prompt, outcome.Attribute)
	raw, err := s.model.Invoke(ctx, retryPrompt)
	if err != nil {
		return nil, fmt.Sprintf("Model retry did not return valid JSON. Raw retry response: %v", err)
	}
	raw = strings.TrimSpace(stripDebugMarkers(raw))

	resp, err := domain.ParseResponse(raw)
	if err != nil {
		return nil, "Model retry did not return valid JSON. Raw retry response: " + raw
	}
	retryOutcome := ValidateAndFilter(resp, history)
	if !retryOutcome.Accepted {
		return nil, fmt.Sprintf("Model retry failed validation: %s. Returning model output for debugging: %s",
			retryOutcome.Reason, raw)
	}
	return retryOutcome.Response, ""
}

// retryIndicators are the reply substrings that mark a failed pipeline run a
// fresh invocation may fix, as opposed to a substantive answer.
var retryIndicators = []string{
	"Model retry failed validation:",
	"Model retry did not return valid JSON",
}

// RetryWorthy reports whether a turn reply describes a model failure rather
// than an answer for the user.
func RetryWorthy(reply string) bool {
	for _, ind := range retryIndicators {
		if strings.Contains(reply, ind) {
			return true
		}
	}
	return false
}

// ProcessTurnWithRecovery runs a turn and, when the reply is a retry-worthy
// failure, re-runs the whole turn once. Each run keeps its own single
// corrective model retry.
func (s *TurnService) ProcessTurnWithRecovery(ctx context.Context, history []string) (TurnResult, error) {
	result, err := s.ProcessTurn(ctx, history)
	if err != nil || !RetryWorthy(result.Reply) {
		return result, err
	}
	log := observability.LoggerFromContext(ctx, s.log)
	log.Warn("turn reply indicates model failure, re-running turn",
		slog.String("reply", textx.Truncate(result.Reply, 160)))
	return s.ProcessTurn(ctx, history)
}

// GenerateClarifyingQuestion asks the model for one short follow-up question
// when the user's message is too vague to retrieve against. Returns ok=false
// when the model produced nothing usable.
func (s *TurnService) GenerateClarifyingQuestion(ctx context.Context, history []string) (string, bool) {
	recent := history
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	var lines []string
	for _, m := range recent {
		lines = append(lines, "- "+m)
	}
	prompt := "You are a concise assistant that asks a single short clarifying question " +
		"when the user's message is vague.\n" +
		"Given the recent conversation, return exactly one short question (one line) " +
		"that will help you clarify the user's needs for motorcycle recommendations. " +
		"Do not add any extra text.\n\n" +
		"Conversation:\n" + strings.Join(lines, "\n") + "\n"

	out, err := s.model.Invoke(ctx, prompt)
	if err != nil {
		return "", false
	}
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		low := strings.ToLower(ln)
		if low == "hi" || low == "hello" || low == "hey" ||
			strings.HasPrefix(low, "hi ") || strings.HasPrefix(low, "hello ") {
			return "", false
		}
		if !strings.HasSuffix(ln, "?") {
			ln = strings.TrimRight(ln, ".") + "?"
		}
		return ln, true
	}
	return "", false
}

func spellCorrected(history []string) []string {
	out := make([]string, len(history))
	for i, m := range history {
		out[i] = convo.SimpleSpellCorrect(m)
	}
	return out
}

// stripDebugMarkers drops log lines some local models echo into their output.
func stripDebugMarkers(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, ln := range lines {
		t := strings.TrimSpace(ln)
		if strings.HasPrefix(t, "[DEBUG]") || strings.HasPrefix(t, "[WARN]") || strings.HasPrefix(t, "[ERROR]") {
			continue
		}
		kept = append(kept, ln)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
