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

// HTTPPDFRenderer wraps the hosted HTML-to-PDF rendering service.
type HTTPPDFRenderer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPPDFRenderer(endpoint, apiKey string) *HTTPPDFRenderer {
	return &HTTPPDFRenderer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *HTTPPDFRenderer) RenderPDF(ctx context.Context, req RenderRequest) ([]byte, error) {
	if strings.TrimSpace(req.HTML) == "" {
		return nil, fmt.Errorf("render request has empty html")
	}
	payload, _ := json.Marshal(map[string]any{
		"html":      req.HTML,
		"title":     req.Title,
		"bookmarks": req.Bookmarks,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create render request: %w", err)
	}
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("render error %d: %s", resp.StatusCode, string(body))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("renderer returned empty document")
	}
	return body, nil
}
