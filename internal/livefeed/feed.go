// Package livefeed streams build events to a socket.io server so a viewer UI
// can follow a build as it happens.
package livefeed

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// MessageEvent carries a buildlog.Message.
	MessageEvent = "build:message"
	// StatusEvent carries a buildlog.StatusChange.
	StatusEvent = "build:status"
)

// Options configure Dial.
type Options struct {
	Namespace          string
	InsecureSkipVerify bool
	// Timeout bounds the connection handshake. Zero means 15 seconds.
	Timeout time.Duration
}

// Feed is a buildlog.Subscriber that forwards every event to a socket.io
// namespace.
type Feed struct {
	emit  func(event string, payload map[string]any)
	close func()
}

// New creates a feed on top of an arbitrary emit function.
func New(emit func(event string, payload map[string]any)) *Feed {
	return &Feed{emit: emit, close: func() {}}
}

// Dial connects to the socket.io server at rawURL and waits for the handshake.
func Dial(ctx context.Context, rawURL string, o Options) (*Feed, error) {
	logger := ctxlog.FromContext(ctx).With("feed", rawURL)
	logger.Debug("Connecting live feed...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Live feed connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	return &Feed{
		emit:  func(event string, payload map[string]any) { io.Emit(event, payload) },
		close: func() { io.Disconnect() },
	}, nil
}

// OnMessage implements buildlog.Subscriber.
func (f *Feed) OnMessage(m buildlog.Message) {
	f.emit(MessageEvent, map[string]any{
		"level": m.Level.String(),
		"text":  m.Text,
		"asset": m.Asset,
		"time":  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// OnStatus implements buildlog.Subscriber.
func (f *Feed) OnStatus(c buildlog.StatusChange) {
	f.emit(StatusEvent, map[string]any{
		"status": c.Status.String(),
		"asset":  c.Asset,
	})
}

// Close disconnects from the server.
func (f *Feed) Close() {
	f.close()
}
