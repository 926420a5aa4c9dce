// Package photo defines the boundary to the external photo post-processing
// collaborator (background removal and normalization). The pipeline hands
// matched image bytes across this boundary and stores whatever comes back;
// it never inspects the collaborator's algorithm, only its outcome.
package photo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Processor post-processes one matched photo. A failure for one employee
// surfaces as a warning on that employee, never as a fatal abort of the
// whole batch.
type Processor interface {
	Process(ctx context.Context, employeeID string, img []byte) ([]byte, error)
}

// Passthrough returns images unchanged. Used when no post-processing
// service is configured.
type Passthrough struct{}

func (Passthrough) Process(_ context.Context, _ string, img []byte) ([]byte, error) {
	return img, nil
}

// HTTPProcessor posts image bytes to a remote post-processing service and
// returns the processed bytes from the response body.
type HTTPProcessor struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPProcessor creates a processor for the given endpoint with a
// bounded default timeout.
func NewHTTPProcessor(endpoint string, timeout time.Duration) *HTTPProcessor {
	return &HTTPProcessor{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProcessor) Process(ctx context.Context, employeeID string, img []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Employee-ID", employeeID)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post image: unexpected status %d", resp.StatusCode)
	}

	processed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read processed image: %w", err)
	}
	if len(processed) == 0 {
		return nil, fmt.Errorf("post image: empty response body")
	}
	return processed, nil
}
