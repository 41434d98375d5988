package natsbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	_defaultName          = "asset-pipeline"
	_defaultReconnectWait = 2 * time.Second
	_defaultTimeout       = 5 * time.Second
)

type Client struct {
	name          string
	reconnectWait time.Duration
	timeout       time.Duration

	Conn *nats.Conn
}

func New(url string, opts ...Option) (*Client, error) {
	c := &Client{
		name:          _defaultName,
		reconnectWait: _defaultReconnectWait,
		timeout:       _defaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	nc, err := nats.Connect(url,
		nats.Name(c.name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(c.reconnectWait),
		nats.Timeout(c.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("natsbus - New - nats.Connect: %w", err)
	}

	c.Conn = nc

	return c, nil
}

func (c *Client) PublishJSON(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("natsbus - PublishJSON - json.Marshal: %w", err)
	}

	if err = c.Conn.Publish(subject, b); err != nil {
		return fmt.Errorf("natsbus - PublishJSON - c.Conn.Publish: %w", err)
	}

	return nil
}

func (c *Client) Close() {
	if c.Conn != nil {
		_ = c.Conn.Drain()
	}
}
