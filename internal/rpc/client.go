package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/sourcegraph/jsonrpc2"
	"go.uber.org/zap"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/model"
	"github.com/rcliao/misoul/internal/repository"
)

var ErrClosed = errors.New("record store client closed")

const (
	DefaultTimeout = 10 * time.Second

	// tripAfter consecutive transport failures open the breaker for breakerCooldown.
	tripAfter       = 3
	breakerCooldown = 30 * time.Second
)

// Client talks to a remote record store. It satisfies repository.RecordStore.
// Once the store stops answering, calls fail fast until the breaker cools down.
type Client struct {
	conn    *jsonrpc2.Conn
	timeout time.Duration
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker

	mu     sync.Mutex
	closed bool
}

// Dial connects to a record store listening on addr (host:port).
func Dial(ctx context.Context, addr string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	var d net.Dialer
	if timeout > 0 {
		d.Timeout = timeout
	}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClient(ctx, c, timeout, logger), nil
}

// NewClient speaks the protocol over an existing stream.
func NewClient(ctx context.Context, rwc io.ReadWriteCloser, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "rpc-client"))
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	return &Client{
		conn:    jsonrpc2.NewConn(ctx, stream, noopHandler{}),
		timeout: timeout,
		logger:  logger,
		breaker: newBreaker(logger),
	}
}

func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "record-store",
		MaxRequests: 1,
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// An error response still means the store is up.
		IsSuccessful: func(err error) bool {
			var rpcErr *jsonrpc2.Error
			return err == nil || errors.As(err, &rpcErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}

// The store never calls back into the client.
type noopHandler struct{}

func (noopHandler) Handle(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) {}

func (c *Client) SaveMemory(ctx context.Context, owner string, content model.Content, contentType model.Kind) (model.Memory, error) {
	raw, err := model.MarshalContent(content)
	if err != nil {
		return model.Memory{}, err
	}
	var res model.Result[model.Memory]
	params := SaveParams{Owner: owner, Content: raw, ContentType: model.Tag(contentType)}
	if err := c.call(ctx, MethodSaveMemory, params, &res); err != nil {
		return model.Memory{}, err
	}
	if res.Failed() {
		return model.Memory{}, errs.NewDomain(res.Err)
	}
	return res.Value, nil
}

func (c *Client) EditMemory(ctx context.Context, id, text string, contentType model.Kind) error {
	var res model.Result[model.Unit]
	params := EditParams{ID: id, Text: text, ContentType: model.Tag(contentType)}
	if err := c.call(ctx, MethodEditMemory, params, &res); err != nil {
		return err
	}
	if res.Failed() {
		return errs.NewDomain(res.Err)
	}
	return nil
}

func (c *Client) DeleteMemory(ctx context.Context, id string) error {
	var res model.Result[model.Unit]
	if err := c.call(ctx, MethodDeleteMemory, DeleteParams{ID: id}, &res); err != nil {
		return err
	}
	if res.Failed() {
		return errs.NewDomain(res.Err)
	}
	return nil
}

func (c *Client) GetMemoriesByUser(ctx context.Context, owner string) ([]model.Memory, error) {
	var memories []model.Memory
	if err := c.call(ctx, MethodGetMemoriesByUser, ListParams{Owner: owner}, &memories); err != nil {
		return nil, err
	}
	if memories == nil {
		memories = []model.Memory{}
	}
	return memories, nil
}

// Close hangs up. Calls after Close fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.conn.Call(callCtx, method, params, result)
	})
	c.logger.Debug("call", zap.String("method", method), zap.Duration("took", time.Since(start)), zap.Error(err))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

var _ repository.RecordStore = (*Client)(nil)
