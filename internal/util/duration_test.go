package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateDurationMinutes(t *testing.T) {
	require.Equal(t, 2, EstimateDurationMinutes(strings.Repeat("word ", 300), 0))
	require.Equal(t, 1, EstimateDurationMinutes("word", 0))
	require.Equal(t, 1, EstimateDurationMinutes("", 0))
	require.Equal(t, 1, EstimateDurationMinutes(strings.Repeat("word ", 150), 0))
	require.Equal(t, 2, EstimateDurationMinutes(strings.Repeat("word ", 151), 0))

	// Caller-reported duration wins when positive.
	require.Equal(t, 45, EstimateDurationMinutes(strings.Repeat("word ", 300), 45))
	require.Equal(t, 2, EstimateDurationMinutes(strings.Repeat("word ", 300), -5))
}
