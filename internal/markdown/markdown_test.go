package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	out, err := ToHTML("Lecture 1", "# Heading\n\n- item one\n- item two\n")
	require.NoError(t, err)
	require.Contains(t, out, "<title>Lecture 1</title>")
	require.Contains(t, out, "<h1>Heading</h1>")
	require.Contains(t, out, "<li>item one</li>")
	require.Contains(t, out, "</html>")
}

func TestToHTMLEscapesTitle(t *testing.T) {
	out, err := ToHTML(`<script>alert("x")</script>`, "body")
	require.NoError(t, err)
	require.NotContains(t, out, "<script>alert")
	require.Contains(t, out, "&lt;script&gt;")
}

func TestToHTMLTables(t *testing.T) {
	out, err := ToHTML("t", "| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	require.Contains(t, out, "<table>")
}
