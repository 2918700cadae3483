package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

func TestFormatResponse_Clarify(t *testing.T) {
	t.Parallel()

	resp := &domain.Response{Type: domain.ResponseClarify, Question: "What is your budget?"}
	assert.Equal(t, "What is your budget?", FormatResponse(resp))

	resp.Question = ""
	assert.Equal(t, "(no question provided)", FormatResponse(resp))
}

func TestFormatResponse_Recommendation(t *testing.T) {
	t.Parallel()

	resp := rec(
		&domain.Pick{
			Brand: "KTM", Model: "790 Adventure", Year: domain.Num(2023),
			PriceEst: domain.Num(9000), Reason: "long-travel suspension", Evidence: "long-travel, plush",
		},
		domain.Pick{
			Brand: "BMW", Model: "F850GS", Year: domain.Num(2022),
			PriceEst: domain.Num(8500), Reason: "comfortable touring setup",
		},
	)

	out := FormatResponse(resp)
	assert.Contains(t, out, "Top recommendation:")
	assert.Contains(t, out, "• KTM 790 Adventure (2023), Price est: $9000. Reason: long-travel suspension. Evidence: long-travel, plush")
	assert.Contains(t, out, "Alternatives:")
	assert.Contains(t, out, "• BMW F850GS (2022) - $8500. comfortable touring setup")
}

func TestFormatResponse_NoteOnly(t *testing.T) {
	t.Parallel()

	resp := &domain.Response{Type: domain.ResponseRecommendation, Note: "No items at or below the parsed budget $5000 found in dataset."}
	out := FormatResponse(resp)
	assert.Equal(t, "No picks matched strictly. Note: No items at or below the parsed budget $5000 found in dataset.", out)

	empty := &domain.Response{Type: domain.ResponseRecommendation}
	assert.Equal(t, "No picks matched strictly. Note: No recommendations match the strict budget or constraints.", FormatResponse(empty))
}

func TestFormatResponse_TrailingNote(t *testing.T) {
	t.Parallel()

	resp := rec(&domain.Pick{Brand: "KTM", Model: "390 Adventure", Year: domain.Num(2023), PriceEst: domain.Num(7000), Reason: "fits budget"})
	resp.Note = "790 Adventure exceeds the stated budget."

	out := FormatResponse(resp)
	assert.Contains(t, out, "Top recommendation:")
	assert.Contains(t, out, "Note: 790 Adventure exceeds the stated budget.")
}
