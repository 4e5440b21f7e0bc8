package events

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
)

const (
	// Subprotocol is the websocket subprotocol devices require.
	Subprotocol = "gabbo"

	// DefaultPort is the device's notification port.
	DefaultPort = 8080

	defaultHandshakeTimeout = 10 * time.Second
)

// FrameHandler consumes one inbound frame. *Dispatcher implements it.
type FrameHandler interface {
	Dispatch(ctx context.Context, frame []byte) error
}

// FrameHandlerFunc adapts a function to FrameHandler.
type FrameHandlerFunc func(ctx context.Context, frame []byte) error

func (f FrameHandlerFunc) Dispatch(ctx context.Context, frame []byte) error {
	return f(ctx, frame)
}

// NotifierConfig configures a Notifier.
type NotifierConfig struct {
	Host string
	Port int

	// Reconnect redials after the connection drops. Off by default, in
	// which case a dropped connection ends the loop.
	Reconnect bool
	Backoff   BackoffConfig

	Dialer *websocket.Dialer
	Logger *log.Logger
}

// Notifier owns the persistent notification connection of one device and
// feeds its frames, in order, to a FrameHandler.
type Notifier struct {
	url       string
	handler   FrameHandler
	dialer    *websocket.Dialer
	reconnect bool
	backoff   *Backoff
	logger    *log.Logger

	mu      sync.Mutex
	running bool
	conn    *websocket.Conn
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
	frames  uint64
	// handling is set while the loop goroutine runs the handler.
	handling bool
}

// NewNotifier creates a stopped Notifier.
func NewNotifier(cfg NotifierConfig, handler FrameHandler) *Notifier {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: defaultHandshakeTimeout,
		}
	}
	d := *dialer
	d.Subprotocols = []string{Subprotocol}

	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/",
	}

	return &Notifier{
		url:       u.String(),
		handler:   handler,
		dialer:    &d,
		reconnect: cfg.Reconnect,
		backoff:   NewBackoff(cfg.Backoff),
		logger:    cfg.Logger,
	}
}

// URL returns the endpoint the Notifier dials.
func (n *Notifier) URL() string {
	return n.url
}

// Start dials the device and starts the receive loop on its own goroutine.
// Dial failures are returned as transport errors. Calling Start while the
// loop runs returns ErrAlreadyRunning; once it has exited, Start may be
// called again.
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return apperrors.ErrAlreadyRunning
	}

	conn, err := n.dial(ctx)
	if err != nil {
		n.lastErr = err
		return err
	}

	// The loop outlives ctx; it ends on Stop or connection loss.
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	n.running = true
	n.conn = conn
	n.cancel = cancel
	n.done = done
	n.lastErr = nil
	n.backoff.Reset()

	go n.run(loopCtx, conn, done)

	n.logger.Printf("NOTIFY: Connected to %s", n.url)
	return nil
}

// Stop closes the connection and waits for the loop to exit or ctx to end.
// It returns ErrNotRunning when there is no loop. Called while a frame is
// being handled, for instance from a listener, it returns once the
// connection is closed; the loop exits when the handler returns and Done
// reports it.
func (n *Notifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return apperrors.ErrNotRunning
	}
	n.cancel()
	if n.conn != nil {
		_ = n.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = n.conn.Close()
	}
	done := n.done
	inHandler := n.handling
	n.mu.Unlock()

	if inHandler {
		n.logger.Printf("NOTIFY: Stopping %s from a frame handler", n.url)
		return nil
	}

	select {
	case <-done:
		n.logger.Printf("NOTIFY: Stopped %s", n.url)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the current loop exits. Without a loop it is closed
// already.
func (n *Notifier) Done() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return n.done
}

// Running reports whether the receive loop is active.
func (n *Notifier) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// Err returns the last transport error, nil after a clean start.
func (n *Notifier) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastErr
}

// Frames returns the number of frames received since construction.
func (n *Notifier) Frames() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.frames
}

func (n *Notifier) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := n.dialer.DialContext(ctx, n.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (http %d)", err, resp.StatusCode)
		}
		return nil, apperrors.NewTransportError("dial "+n.url, err)
	}
	return conn, nil
}

func (n *Notifier) run(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer n.finish()

	for {
		err := n.receive(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		n.setErr(err)
		n.logger.Printf("NOTIFY: Connection to %s lost: %v", n.url, err)

		if !n.reconnect {
			return
		}
		conn = n.redial(ctx)
		if conn == nil {
			return
		}
	}
}

// receive reads frames until the connection fails.
func (n *Notifier) receive(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return apperrors.NewTransportError("read "+n.url, err)
		}
		n.mu.Lock()
		n.frames++
		n.handling = true
		n.mu.Unlock()

		n.handle(ctx, data)

		n.mu.Lock()
		n.handling = false
		n.mu.Unlock()
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// handle runs the handler behind a per-frame error boundary.
func (n *Notifier) handle(ctx context.Context, frame []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			n.logger.Printf("NOTIFY: Frame handler panicked: %v", rec)
		}
	}()
	if err := n.handler.Dispatch(ctx, frame); err != nil {
		n.logger.Printf("NOTIFY: Frame from %s not applied: %v", n.url, err)
	}
}

// redial retries until a connection is made or ctx ends.
func (n *Notifier) redial(ctx context.Context) *websocket.Conn {
	for {
		delay := n.backoff.Next()
		n.logger.Printf("NOTIFY: Reconnecting to %s in %v (attempt %d)", n.url, delay, n.backoff.Attempts())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		conn, err := n.dial(ctx)
		if err != nil {
			n.setErr(err)
			continue
		}

		n.mu.Lock()
		if ctx.Err() != nil {
			n.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		n.conn = conn
		n.lastErr = nil
		n.mu.Unlock()

		n.backoff.Reset()
		n.logger.Printf("NOTIFY: Reconnected to %s", n.url)
		return conn
	}
}

func (n *Notifier) setErr(err error) {
	n.mu.Lock()
	n.lastErr = err
	n.mu.Unlock()
}

func (n *Notifier) finish() {
	n.mu.Lock()
	n.running = false
	n.conn = nil
	n.cancel()
	n.mu.Unlock()
}
