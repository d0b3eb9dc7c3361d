// Package pipeline implements the Generator port over the HTTP
// generation pipeline.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/cadence/internal/ports/primary"
	"github.com/example/cadence/internal/ports/secondary"
)

const defaultRequestTimeout = 90 * time.Second

// Client calls the generation pipeline. The alternate-prompt strategy
// goes to the primary endpoint, the backup-model strategy to the
// backup endpoint. An unconfigured endpoint reports ErrNotAvailable so
// the fallback chain moves on.
type Client struct {
	primaryURL string
	backupURL  string
	httpClient *http.Client
}

// NewClient creates a pipeline client. Either URL may be empty.
func NewClient(primaryURL, backupURL string) *Client {
	return &Client{
		primaryURL: primaryURL,
		backupURL:  backupURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

type generateRequest struct {
	AgentID  string `json:"agent_id"`
	Strategy string `json:"strategy"`
}

type generateResponse struct {
	ArtifactID string `json:"artifact_id"`
}

// Generate requests an artifact from the pipeline endpoint for the
// strategy.
func (c *Client) Generate(ctx context.Context, agentID, strategy string) (string, error) {
	var url string
	switch strategy {
	case primary.StrategyAlternatePrompt:
		url = c.primaryURL
	case primary.StrategyBackupModel:
		url = c.backupURL
	default:
		return "", fmt.Errorf("pipeline does not serve strategy %q", strategy)
	}
	if url == "" {
		return "", secondary.ErrNotAvailable
	}

	body, err := json.Marshal(generateRequest{AgentID: agentID, Strategy: strategy})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("pipeline unreachable: %w", secondary.ErrNotAvailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("pipeline returned %d: %w", resp.StatusCode, secondary.ErrNotAvailable)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("bad pipeline response: %w", secondary.ErrNotAvailable)
	}
	if out.ArtifactID == "" {
		return "", fmt.Errorf("pipeline returned no artifact: %w", secondary.ErrNotAvailable)
	}
	return out.ArtifactID, nil
}

var _ secondary.Generator = (*Client)(nil)
