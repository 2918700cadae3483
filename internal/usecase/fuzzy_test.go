package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielgaio/moto-advisor/internal/domain"
)

func TestNormalizeAggressive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"790-Adventure", "790 adventure"},
		{"The KTM 790 Adventure", "ktm 790 adventure"},
		{"  Multistrada   V4 ", "multistrada v4"},
		{"R1250GS!", "r1250gs"},
		{"a an the", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeAggressive(tt.in), tt.in)
	}
}

func TestNormalizeAggressive_Idempotent(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"790-Adventure", "The Tiger 900 Rally-Pro!", "ktm", ""} {
		once := normalizeAggressive(s)
		assert.Equal(t, once, normalizeAggressive(once))
	}
}

func TestFuzzyMatchScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, fuzzyMatchScore("790 adventure", "790 adventure"))
	assert.Equal(t, 0.9, fuzzyMatchScore("790 adventure", "790 adventure r"))
	assert.Zero(t, fuzzyMatchScore("", "790 adventure"))

	// Token overlap above 0.5 maps into (0.7, 0.9].
	s := fuzzyMatchScore("tiger rally 900", "tiger 900 rally gt")
	assert.Greater(t, s, 0.7)
	assert.LessOrEqual(t, s, 0.9)

	// Unrelated names land well under the acceptance floor.
	assert.Less(t, fuzzyMatchScore("panigale v4", "r1250gs"), 0.5)
}

func TestFindBestMatch(t *testing.T) {
	t.Parallel()

	catalog := []domain.CatalogItem{
		{Brand: "KTM", Model: "790-Adventure", Year: 2023, SuspensionNotes: "long-travel, plush"},
		{Brand: "BMW", Model: "R1250GS", Year: 2022},
		{Brand: "Triumph", Model: "Tiger 900", Year: 2021},
	}

	t.Run("hyphen and case differences still match", func(t *testing.T) {
		t.Parallel()
		pick := &domain.Pick{Brand: "KTM", Model: "790 Adventure"}
		got, score := FindBestMatch(pick, catalog)
		require.NotNil(t, got)
		assert.Equal(t, "790-Adventure", got.Model)
		assert.GreaterOrEqual(t, score, 0.6)
	})

	t.Run("matching year raises the score", func(t *testing.T) {
		t.Parallel()
		pick := &domain.Pick{Brand: "KTM", Model: "790 Adventure", Year: domain.Num(2023)}
		_, withYear := FindBestMatch(pick, catalog)
		pickOff := &domain.Pick{Brand: "KTM", Model: "790 Adventure", Year: domain.Num(1999)}
		_, wrongYear := FindBestMatch(pickOff, catalog)
		assert.Greater(t, withYear, wrongYear)
	})

	t.Run("unrelated pick stays below the floor", func(t *testing.T) {
		t.Parallel()
		pick := &domain.Pick{Brand: "Ducati", Model: "Panigale V4"}
		got, score := FindBestMatch(pick, catalog)
		assert.Nil(t, got)
		assert.Less(t, score, 0.6)
	})

	t.Run("model only", func(t *testing.T) {
		t.Parallel()
		pick := &domain.Pick{Model: "R1250GS"}
		got, _ := FindBestMatch(pick, catalog)
		require.NotNil(t, got)
		assert.Equal(t, "BMW", got.Brand)
	})

	t.Run("item without a year is not penalized by the pick's year", func(t *testing.T) {
		t.Parallel()
		undated := []domain.CatalogItem{{Brand: "Hero", Model: "790 Adventure"}}

		pick := &domain.Pick{Brand: "Honda", Model: "790"}
		_, plain := FindBestMatch(pick, undated)

		dated := &domain.Pick{Brand: "Honda", Model: "790", Year: domain.Num(2019)}
		got, withYear := FindBestMatch(dated, undated)

		// There is no item year to disagree with, so both picks score with
		// the redistributed text weights.
		assert.Equal(t, plain, withYear)
		require.NotNil(t, got)
		assert.GreaterOrEqual(t, withYear, 0.6)
	})

	t.Run("neither brand nor model", func(t *testing.T) {
		t.Parallel()
		got, score := FindBestMatch(&domain.Pick{}, catalog)
		assert.Nil(t, got)
		assert.Zero(t, score)
	})

	t.Run("empty catalog", func(t *testing.T) {
		t.Parallel()
		got, _ := FindBestMatch(&domain.Pick{Brand: "KTM", Model: "790 Adventure"}, nil)
		assert.Nil(t, got)
	})
}
