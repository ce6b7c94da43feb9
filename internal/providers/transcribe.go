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

// HTTPTranscriber wraps the hosted speech-to-text service. The service reads
// the audio itself from a signed URL, so the request body is tiny.
type HTTPTranscriber struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPTranscriber(endpoint, apiKey string) *HTTPTranscriber {
	return &HTTPTranscriber{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Minute},
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return TranscribeResponse{}, fmt.Errorf("transcription api key is not configured")
	}
	payload, _ := json.Marshal(map[string]any{
		"audio_url":          req.AudioURL,
		"language_detection": true,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return TranscribeResponse{}, fmt.Errorf("create transcription request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return TranscribeResponse{}, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return TranscribeResponse{}, fmt.Errorf("transcription error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Text     string `json:"text"`
		Language string `json:"language_code"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return TranscribeResponse{}, fmt.Errorf("decode transcription response: %w", err)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return TranscribeResponse{}, fmt.Errorf("transcription returned empty text")
	}
	lang := parsed.Language
	if lang == "" {
		lang = "en"
	}
	return TranscribeResponse{Text: strings.TrimSpace(parsed.Text), Language: lang}, nil
}
