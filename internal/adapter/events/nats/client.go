package nats

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	natspkg "github.com/nats-io/nats.go"

	"github.com/callumgare/media-finder-cli/internal/domain"
)

type conn interface {
	Publish(subject string, data []byte) error
}

type Client struct {
	nc      *natspkg.Conn
	pub     conn
	subject string
}

func NewClient(url, subject string) (*Client, error) {
	nc, err := natspkg.Connect(url, natspkg.Name("media-finder-cli"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{nc: nc, pub: nc, subject: subject}, nil
}

func (c *Client) Close() {
	if c.nc != nil {
		// Flush pending events before closing; the CLI exits right after.
		_ = c.nc.Drain()
	}
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.Status() == natspkg.CONNECTED
}

// PublishQueryCompleted publishes event on <subject>.completed.
func (c *Client) PublishQueryCompleted(ctx context.Context, event domain.QueryCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := c.pub.Publish(c.subject+".completed", data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}
