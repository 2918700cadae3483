package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Response type discriminators as emitted by the model.
const (
	ResponseClarify        = "clarify"
	ResponseRecommendation = "recommendation"
)

// NoEvidenceSentinel is the literal value a pick's evidence carries when the
// catalog holds nothing to support it.
const NoEvidenceSentinel = "none in dataset"

// Number is a JSON field that may arrive as a number, a numeric string such
// as "$9,500", null, or garbage. Unparseable values keep their raw text and
// report Valid=false; decoding a Number never fails.
type Number struct {
	Value float64
	Raw   string
	Valid bool
}

// Num builds a valid Number, mostly for tests and the mock provider.
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// UnmarshalJSON accepts numbers, numeric strings, null and anything else.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*n = Number{}
		return nil
	}
	if s[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			*n = Number{Raw: s}
			return nil
		}
		*n = parseLooseNumber(raw)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*n = Number{Raw: s}
		return nil
	}
	*n = Number{Value: v, Raw: s, Valid: true}
	return nil
}

// MarshalJSON emits the numeric value when known, the raw text otherwise.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.Valid {
		if n.Value == math.Trunc(n.Value) {
			return []byte(strconv.FormatInt(int64(n.Value), 10)), nil
		}
		return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
	}
	if n.Raw != "" {
		return json.Marshal(n.Raw)
	}
	return []byte("null"), nil
}

func (n Number) String() string {
	if n.Valid {
		if n.Value == math.Trunc(n.Value) {
			return strconv.FormatInt(int64(n.Value), 10)
		}
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	}
	return n.Raw
}

// parseLooseNumber strips everything but digits and dots, then parses.
// "$9,500" -> 9500. Empty or still unparseable input yields Valid=false.
func parseLooseNumber(raw string) Number {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return Number{Raw: raw}
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Number{Raw: raw}
	}
	return Number{Value: v, Raw: raw, Valid: true}
}

// Pick is a single recommended catalog item proposed by the model. Evidence
// may be overwritten by enrichment; budget filtering may drop the whole pick.
type Pick struct {
	Brand          string
	Model          string
	Year           Number
	PriceEst       Number
	Reason         string
	Evidence       string
	EvidenceSource string
}

type pickWire struct {
	Brand          flexString `json:"brand"`
	Model          flexString `json:"model"`
	Year           Number     `json:"year"`
	PriceEst       Number     `json:"price_est"`
	Reason         flexString `json:"reason"`
	Evidence       flexString `json:"evidence"`
	EvidenceSource flexString `json:"evidence_source"`
}

// UnmarshalJSON tolerates models that put numbers or null where strings
// belong; such values are coerced to their text form.
func (p *Pick) UnmarshalJSON(b []byte) error {
	var w pickWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = Pick{
		Brand:          string(w.Brand),
		Model:          string(w.Model),
		Year:           w.Year,
		PriceEst:       w.PriceEst,
		Reason:         string(w.Reason),
		Evidence:       string(w.Evidence),
		EvidenceSource: string(w.EvidenceSource),
	}
	return nil
}

// MarshalJSON emits the canonical pick shape.
func (p Pick) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"brand":     p.Brand,
		"model":     p.Model,
		"year":      p.Year,
		"price_est": p.PriceEst,
		"reason":    p.Reason,
		"evidence":  p.Evidence,
	}
	if p.EvidenceSource != "" {
		out["evidence_source"] = p.EvidenceSource
	}
	return json.Marshal(out)
}

// flexString decodes strings, numbers and booleans into their text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*f = ""
		return nil
	}
	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

// Response is the model's answer for one turn: either a clarifying question
// or a recommendation with up to one primary and two alternative picks.
// Legacy flat `picks` arrays are normalized into this shape at decode time.
type Response struct {
	Type         string `json:"type"`
	Question     string `json:"question,omitempty"`
	Primary      *Pick  `json:"primary,omitempty"`
	Alternatives []Pick `json:"alternatives,omitempty"`
	Note         string `json:"note,omitempty"`
}

// Picks returns pointers to every pick in order (primary first) so that
// validation and enrichment can inspect and mutate them in place.
func (r *Response) Picks() []*Pick {
	if r == nil {
		return nil
	}
	out := make([]*Pick, 0, 1+len(r.Alternatives))
	if r.Primary != nil {
		out = append(out, r.Primary)
	}
	for i := range r.Alternatives {
		out = append(out, &r.Alternatives[i])
	}
	return out
}

// ParseResponse decodes raw model output into a Response.
//
// Invalid JSON comes back as the decode error so the caller can fall back to
// returning the raw text. Valid JSON that is not an object wraps
// ErrSchemaInvalid. The legacy {"picks": [...]} shape is converted to
// primary/alternatives here; downstream code only ever sees one shape.
func ParseResponse(raw string) (*Response, error) {
	txt := strings.TrimSpace(raw)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(txt), &fields); err != nil {
		if json.Valid([]byte(txt)) {
			return nil, fmt.Errorf("%w: response is not a JSON object", ErrSchemaInvalid)
		}
		return nil, fmt.Errorf("op=response.parse: %w", err)
	}

	var resp Response
	if v, ok := fields["type"]; ok {
		var t flexString
		_ = json.Unmarshal(v, &t)
		resp.Type = string(t)
	}
	if v, ok := fields["question"]; ok {
		var q flexString
		_ = json.Unmarshal(v, &q)
		resp.Question = string(q)
	}
	if v, ok := fields["note"]; ok {
		var n flexString
		_ = json.Unmarshal(v, &n)
		resp.Note = string(n)
	}

	if v, ok := fields["picks"]; ok {
		// Legacy flat list: first pick becomes primary, the rest alternatives.
		var picks []Pick
		if err := json.Unmarshal(v, &picks); err != nil {
			return nil, fmt.Errorf("%w: malformed picks array", ErrSchemaInvalid)
		}
		if len(picks) > 0 {
			resp.Primary = &picks[0]
			rest := picks[1:]
			if len(rest) > 2 {
				rest = rest[:2]
			}
			resp.Alternatives = append([]Pick(nil), rest...)
		}
		return &resp, nil
	}

	if v, ok := fields["primary"]; ok && string(v) != "null" {
		var p Pick
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, fmt.Errorf("%w: malformed primary pick", ErrSchemaInvalid)
		}
		resp.Primary = &p
	}
	if v, ok := fields["alternatives"]; ok && string(v) != "null" {
		var alts []Pick
		if err := json.Unmarshal(v, &alts); err != nil {
			return nil, fmt.Errorf("%w: malformed alternatives", ErrSchemaInvalid)
		}
		resp.Alternatives = alts
	}
	return &resp, nil
}

// ValidationAction tells the orchestrator how to react to a failed
// validation: retry the model once, or give up.
type ValidationAction string

const (
	ValidationRetry  ValidationAction = "retry"
	ValidationReject ValidationAction = "reject"
)

// ValidationOutcome is the result of validating a parsed response. Either
// Accepted is true and Response carries the (possibly filtered) response, or
// Reason/Action describe the failure.
type ValidationOutcome struct {
	Accepted  bool
	Response  *Response
	Reason    string
	Action    ValidationAction
	Attribute string
}

// Accept builds an accepted outcome.
func Accept(r *Response) ValidationOutcome {
	return ValidationOutcome{Accepted: true, Response: r}
}

// Reject builds a terminal rejection.
func Reject(reason string) ValidationOutcome {
	return ValidationOutcome{Reason: reason, Action: ValidationReject}
}

// Retry builds a recoverable failure carrying the attribute the picks missed.
func Retry(reason, attribute string) ValidationOutcome {
	return ValidationOutcome{Reason: reason, Action: ValidationRetry, Attribute: attribute}
}
