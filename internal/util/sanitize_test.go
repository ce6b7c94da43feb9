package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	require.Equal(t, "hello world", SanitizeText("hello\x00 world"))
	require.Equal(t, "line1\nline2", SanitizeText("line1\nline2\x07"))
	require.Equal(t, "", SanitizeText("\x00\x01\x02"))
	require.Equal(t, "tabbed\tok", SanitizeText("  tabbed\tok  "))
}

func TestSanitizeTitle(t *testing.T) {
	require.Equal(t, "intro-to-biology", SanitizeTitle("Intro to Biology"))
	require.Equal(t, "lecture-12-dna-rna", SanitizeTitle("Lecture 12: DNA & RNA!"))
	require.Equal(t, "untitled", SanitizeTitle("???"))
	require.Equal(t, "untitled", SanitizeTitle(""))

	long := SanitizeTitle(strings.Repeat("a", 200))
	require.LessOrEqual(t, len(long), 80)
}
