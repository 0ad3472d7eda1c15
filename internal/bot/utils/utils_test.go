package utils_test

import (
	"testing"

	"github.com/culturebot/culturebot/internal/bot/utils"
	"github.com/stretchr/testify/assert"
)

func TestFormatStars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		score int
		label string
		want  string
	}{
		{name: "minimum", score: 1, want: "⭐️▪️▪️▪️▪️"},
		{name: "maximum", score: 5, want: "⭐️⭐️⭐️⭐️⭐️"},
		{name: "middle with label", score: 3, label: "Solid", want: "⭐️⭐️⭐️▪️▪️  Solid"},
		{name: "clamped low", score: 0, want: "⭐️▪️▪️▪️▪️"},
		{name: "clamped high", score: 9, want: "⭐️⭐️⭐️⭐️⭐️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, utils.FormatStars(tt.score, tt.label))
		})
	}
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "October 15, 1999", utils.FormatDate("1999-10-15"))
	assert.Equal(t, "", utils.FormatDate(""))
	assert.Equal(t, "1999", utils.FormatDate("1999"))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", utils.Truncate("short", 10))
	assert.Equal(t, "exact", utils.Truncate("exact", 5))
	assert.Equal(t, "hell…", utils.Truncate("hello world", 5))
	assert.Equal(t, "héll…", utils.Truncate("héllo wörld", 5))
}

func TestAverageScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "N/A", utils.AverageScore(nil))
	assert.Equal(t, "3.0", utils.AverageScore([]int{3}))
	assert.Equal(t, "4.5", utils.AverageScore([]int{4, 5}))
	assert.Equal(t, "3.7", utils.AverageScore([]int{3, 4, 4}))
}
