package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  float64
		valid bool
	}{
		{name: "plain_number", input: `9000`, want: 9000, valid: true},
		{name: "float", input: `8999.5`, want: 8999.5, valid: true},
		{name: "numeric_string", input: `"9000"`, want: 9000, valid: true},
		{name: "dollar_string", input: `"$9,500"`, want: 9500, valid: true},
		{name: "null", input: `null`, valid: false},
		{name: "garbage_string", input: `"cheap"`, valid: false},
		{name: "empty_string", input: `""`, valid: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.Equal(t, tt.valid, n.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want, n.Value, 1e-9)
			}
		})
	}
}

func TestNumber_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Num(12000))
	require.NoError(t, err)
	assert.Equal(t, "12000", string(b))

	b, err = json.Marshal(Number{Raw: "cheap"})
	require.NoError(t, err)
	assert.Equal(t, `"cheap"`, string(b))

	b, err = json.Marshal(Number{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestParseResponse_Clarify(t *testing.T) {
	t.Parallel()

	resp, err := ParseResponse(`{"type":"clarify","question":"What is your budget?"}`)
	require.NoError(t, err)
	assert.Equal(t, ResponseClarify, resp.Type)
	assert.Equal(t, "What is your budget?", resp.Question)
	assert.Empty(t, resp.Picks())
}

func TestParseResponse_Recommendation(t *testing.T) {
	t.Parallel()

	raw := `{"type":"recommendation",
		"primary":{"brand":"KTM","model":"790 Adventure","year":2019,"price_est":10000,"reason":"long-travel suspension","evidence":"none in dataset"},
		"alternatives":[{"brand":"BMW","model":"F850GS","year":2020,"price_est":"$12,000","reason":"touring comfort","evidence":""}],
		"note":""}`
	resp, err := ParseResponse(raw)
	require.NoError(t, err)
	require.NotNil(t, resp.Primary)
	assert.Equal(t, "KTM", resp.Primary.Brand)
	assert.True(t, resp.Primary.PriceEst.Valid)
	require.Len(t, resp.Alternatives, 1)
	assert.InDelta(t, 12000, resp.Alternatives[0].PriceEst.Value, 1e-9)
	assert.Len(t, resp.Picks(), 2)
}

func TestParseResponse_LegacyPicksNormalized(t *testing.T) {
	t.Parallel()

	raw := `{"type":"recommendation","picks":[
		{"brand":"KTM","model":"790 Adventure","year":2019,"price_est":10000,"reason":"r1","evidence":"e1"},
		{"brand":"BMW","model":"F850GS","year":2020,"price_est":12000,"reason":"r2","evidence":"e2"},
		{"brand":"Honda","model":"CB500X","year":2022,"price_est":7000,"reason":"r3","evidence":"e3"},
		{"brand":"Yamaha","model":"Tenere 700","year":2021,"price_est":10500,"reason":"r4","evidence":"e4"}]}`
	resp, err := ParseResponse(raw)
	require.NoError(t, err)
	require.NotNil(t, resp.Primary)
	assert.Equal(t, "KTM", resp.Primary.Brand)
	// Alternatives are capped at two even when the legacy list overflows.
	require.Len(t, resp.Alternatives, 2)
	assert.Equal(t, "BMW", resp.Alternatives[0].Brand)
	assert.Equal(t, "Honda", resp.Alternatives[1].Brand)
}

func TestParseResponse_EmptyLegacyPicks(t *testing.T) {
	t.Parallel()

	resp, err := ParseResponse(`{"type":"recommendation","picks":[],"note":"nothing fits"}`)
	require.NoError(t, err)
	assert.Nil(t, resp.Primary)
	assert.Empty(t, resp.Alternatives)
	assert.Equal(t, "nothing fits", resp.Note)
}

func TestParseResponse_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseResponse("I think the KTM is great!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSchemaInvalid)

	_, err = ParseResponse(`["not","an","object"]`)
	require.ErrorIs(t, err, ErrSchemaInvalid)

	_, err = ParseResponse(`"just a string"`)
	require.ErrorIs(t, err, ErrSchemaInvalid)
}

func TestPick_CoercesNonStringFields(t *testing.T) {
	t.Parallel()

	var p Pick
	require.NoError(t, json.Unmarshal([]byte(`{"brand":"KTM","model":790,"year":"2019","price_est":null,"reason":42,"evidence":null}`), &p))
	assert.Equal(t, "790", p.Model)
	assert.True(t, p.Year.Valid)
	assert.InDelta(t, 2019, p.Year.Value, 1e-9)
	assert.False(t, p.PriceEst.Valid)
	assert.Equal(t, "42", p.Reason)
	assert.Equal(t, "", p.Evidence)
}

func TestCatalogItem_FullText(t *testing.T) {
	t.Parallel()

	it := CatalogItem{Comment: "plush ride", Text: "great offroad"}
	assert.Equal(t, "plush ride great offroad", it.FullText())
	assert.Equal(t, "", CatalogItem{}.FullText())
}
