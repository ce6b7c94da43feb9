package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const notesSystemPrompt = "You are a study-notes assistant. Produce Cornell-style lecture notes in markdown: " +
	"a '## Cues' section with recall questions, a '## Notes' section with the structured content, " +
	"and a '## Summary' section of at most five sentences. Write in the language of the transcript."

// HTTPNoteGenerator wraps an OpenAI-compatible chat-completions endpoint,
// specialized to the cornell-notes output contract.
type HTTPNoteGenerator struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func NewHTTPNoteGenerator(endpoint, apiKey, model string) *HTTPNoteGenerator {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &HTTPNoteGenerator{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

func (g *HTTPNoteGenerator) GenerateNotes(ctx context.Context, req NotesRequest) (NotesResponse, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return NotesResponse{}, fmt.Errorf("note generation api key is not configured")
	}
	prompt := buildNotesPrompt(req)
	payload, _ := json.Marshal(map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "system", "content": notesSystemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return NotesResponse{}, fmt.Errorf("create notes request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return NotesResponse{}, fmt.Errorf("notes request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return NotesResponse{}, fmt.Errorf("notes error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return NotesResponse{}, fmt.Errorf("decode notes response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return NotesResponse{}, fmt.Errorf("note generation returned no content")
	}
	md := strings.TrimSpace(parsed.Choices[0].Message.Content)
	out := NotesResponse{Markdown: md}
	out.Cues = extractSection(md, "Cues")
	out.Summary = extractSection(md, "Summary")
	return out, nil
}

func buildNotesPrompt(req NotesRequest) string {
	b := strings.Builder{}
	b.WriteString("Lecture title: " + req.Title + "\n")
	if req.Subject != "" {
		b.WriteString("Course subject: " + req.Subject + "\n")
	}
	if req.Language != "" {
		b.WriteString("Transcript language: " + req.Language + "\n")
	}
	b.WriteString("Format: " + req.Format + "\n\n")
	b.WriteString("Transcript:\n" + req.Transcript)
	return b.String()
}

// extractSection pulls the body of a "## Heading" section out of the
// generated markdown, up to the next heading of the same level.
func extractSection(md, heading string) string {
	lines := strings.Split(md, "\n")
	var b strings.Builder
	in := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			if in {
				break
			}
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(trimmed, "## ")), heading) {
				in = true
			}
			continue
		}
		if in {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}
