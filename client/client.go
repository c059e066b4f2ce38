// Package client is the Go client for the relay: it dials the QUIC
// endpoint, speaks the envelope protocol, and exposes decoded server
// events on a channel.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	quic "github.com/quic-go/quic-go"

	"chat-relay/transport"
)

type Client struct {
	log    *slog.Logger
	conn   *quic.Conn
	stream *quic.Stream

	mu     sync.Mutex // serializes writes to the stream
	events chan transport.Envelope
}

// Dial connects and opens the session stream. Insecure skips server
// certificate verification for dev deployments running the built-in
// certificate with a non-localhost address.
func Dial(ctx context.Context, log *slog.Logger, addr string, insecure bool, bufferSize int) (*Client, error) {
	tlsConf, err := transport.ClientTLSConfig(insecure)
	if err != nil {
		return nil, err
	}
	conn, err := quic.DialAddr(ctx, addr, tlsConf, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "no stream")
		return nil, fmt.Errorf("open stream: %w", err)
	}

	c := &Client{
		log:    log,
		conn:   conn,
		stream: stream,
		events: make(chan transport.Envelope, bufferSize),
	}
	go c.readLoop(ctx)
	return c, nil
}

// Events delivers history, message, and system envelopes in the order
// the server broadcast them. The channel closes when the connection
// ends.
func (c *Client) Events() <-chan transport.Envelope { return c.events }

// Join announces a display name. An empty name keeps the server-side
// anonymous default.
func (c *Client) Join(name string) error {
	return c.send(transport.Envelope{Type: transport.TypeJoin, Name: name})
}

func (c *Client) Send(text string) error {
	return c.send(transport.Envelope{Type: transport.TypeMessage, Text: text})
}

func (c *Client) Typing(active bool) error {
	t := transport.TypeTypingStart
	if !active {
		t = transport.TypeTypingStop
	}
	return c.send(transport.Envelope{Type: t})
}

func (c *Client) Close() error {
	_ = c.stream.Close()
	return c.conn.CloseWithError(0, "client closed")
}

func (c *Client) send(env transport.Envelope) error {
	frame, err := env.Encode()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.stream.Write(frame)
	return err
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.events)
	for {
		payload, err := transport.ReadFrame(c.stream)
		if err != nil {
			c.log.Debug("Connection finished", "error", err)
			return
		}
		env, err := transport.DecodeEnvelope(payload)
		if err != nil {
			c.log.Warn("Malformed server envelope", "error", err)
			continue
		}
		select {
		case c.events <- env:
		case <-ctx.Done():
			return
		}
	}
}
