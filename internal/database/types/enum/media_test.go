package enum_test

import (
	"testing"

	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaKind(t *testing.T) {
	t.Parallel()

	for _, kind := range enum.MediaKinds() {
		parsed, err := enum.ParseMediaKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := enum.ParseMediaKind("podcast")
	assert.ErrorIs(t, err, enum.ErrUnknownMediaKind)
}

func TestParseReplayability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   enum.Replayability
		wantOK bool
	}{
		{name: "canonical", input: "HIGH", want: enum.ReplayabilityHigh, wantOK: true},
		{name: "lowercase", input: "medium", want: enum.ReplayabilityMedium, wantOK: true},
		{name: "mixed case with whitespace", input: "  Low ", want: enum.ReplayabilityLow, wantOK: true},
		{name: "unknown grade", input: "sometimes", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := enum.ParseReplayability(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
