package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONResponse(t *testing.T) {
	t.Parallel()

	rc := NewResponseCleaner()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "markdown fence",
			in:   "```json\n{\"type\":\"clarify\",\"question\":\"Budget?\"}\n```",
			want: `{"type":"clarify","question":"Budget?"}`,
		},
		{
			name: "surrounding prose",
			in:   `Sure! Here you go: {"type":"clarify","question":"Budget?"} Hope that helps.`,
			want: `{"type":"clarify","question":"Budget?"}`,
		},
		{
			name: "trailing comma",
			in:   `{"type":"clarify","question":"Budget?",}`,
			want: `{"type":"clarify","question":"Budget?"}`,
		},
		{
			name: "nested objects preserved",
			in:   `{"type":"recommendation","primary":{"brand":"KTM"},"alternatives":[]}`,
			want: `{"type":"recommendation","primary":{"brand":"KTM"},"alternatives":[]}`,
		},
		{
			name: "valid json untouched",
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rc.CleanJSONResponse(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, rc.IsValidJSON(got))
		})
	}
}

func TestCleanJSONResponse_ProseStaysProse(t *testing.T) {
	t.Parallel()

	rc := NewResponseCleaner()
	got := rc.CleanJSONResponse("I would suggest a KTM.")
	assert.False(t, rc.IsValidJSON(got))
}

type staticModel struct{ out string }

func (s staticModel) Invoke(context.Context, string) (string, error) { return s.out, nil }

func TestCleaningClient(t *testing.T) {
	t.Parallel()

	t.Run("repairs fenced json", func(t *testing.T) {
		t.Parallel()
		cl := NewCleaningClient(staticModel{out: "```json\n{\"type\":\"clarify\",\"question\":\"Budget?\"}\n```"})
		got, err := cl.Invoke(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, `{"type":"clarify","question":"Budget?"}`, got)
	})

	t.Run("prose passes through verbatim", func(t *testing.T) {
		t.Parallel()
		cl := NewCleaningClient(staticModel{out: "I would suggest a KTM."})
		got, err := cl.Invoke(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "I would suggest a KTM.", got)
	})
}
