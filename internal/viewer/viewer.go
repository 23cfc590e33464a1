// Package viewer publishes responses to the online media viewer.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"runtime"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/callumgare/media-finder-cli/mediafinder"
)

var ErrInvalidResponse = errors.New("invalid response from viewer")

type Client struct {
	// URL is the viewer's output endpoint.
	URL  string
	HTTP *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		URL:  url,
		HTTP: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

type publishRequest struct {
	Response *mediafinder.Response `json:"response"`
	Request  map[string]any        `json:"request"`
}

type publishResponse struct {
	ViewerURL string `json:"viewerUrl"`
}

// Publish uploads resp and returns the page it can be viewed on.
func (c *Client) Publish(ctx context.Context, resp *mediafinder.Response) (string, error) {
	body, err := json.Marshal(publishRequest{Response: resp, Request: map[string]any{}})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish to viewer: %w", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("publish to viewer: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrInvalidResponse, res.StatusCode)
	}

	var out publishResponse
	if err := json.Unmarshal(data, &out); err != nil || out.ViewerURL == "" {
		return "", ErrInvalidResponse
	}
	return out.ViewerURL, nil
}

// Open opens url in the default browser.
func Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
