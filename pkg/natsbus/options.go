package natsbus

import "time"

type Option func(*Client)

func Name(name string) Option {
	return func(c *Client) {
		c.name = name
	}
}

func ReconnectWait(d time.Duration) Option {
	return func(c *Client) {
		c.reconnectWait = d
	}
}

func Timeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}
