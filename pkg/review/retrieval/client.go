package retrieval

import (
	"context"
	"net/http"
	"strings"
	"time"

	"doc-review-be/internal/pkg/logger"
	"doc-review-be/pkg/utils"
)

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type retrieveResponse struct {
	Chunks []string `json:"chunks"`
	Count  int      `json:"count"`
	TopK   int      `json:"top_k"`
}

// Client asks the document parsing service for context chunks. It is best
// effort: every failure yields an empty result.
type Client struct {
	url        string
	topK       int
	timeout    time.Duration
	maxChars   int
	httpClient *http.Client
	logger     logger.ILogger
}

func NewClient(url string, topK int, timeout time.Duration, maxChars int, log logger.ILogger) *Client {
	return &Client{
		url:        url,
		topK:       topK,
		timeout:    timeout,
		maxChars:   maxChars,
		httpClient: &http.Client{},
		logger:     log,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

func (c *Client) Retrieve(ctx context.Context, query string) []string {
	if !c.Enabled() || strings.TrimSpace(query) == "" {
		return nil
	}

	chunks, err := c.retrieve(ctx, query)
	if err != nil {
		c.logger.Warn("Retrieval", "Context retrieval failed", map[string]interface{}{
			"url":   c.url,
			"error": err.Error(),
		})
		return nil
	}
	return chunks
}

func (c *Client) retrieve(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out retrieveResponse
	if err := utils.PostJSON(ctx, c.httpClient, "retrieve", c.url, nil, retrieveRequest{Query: query, TopK: c.topK}, &out); err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(out.Chunks))
	for _, chunk := range out.Chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		chunks = append(chunks, truncate(chunk, c.maxChars))
		if c.topK > 0 && len(chunks) == c.topK {
			break
		}
	}
	return chunks, nil
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
