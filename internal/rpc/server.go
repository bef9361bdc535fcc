package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"go.uber.org/zap"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/model"
	"github.com/rcliao/misoul/internal/repository"
)

// Server exposes a record store over JSON-RPC. Requests on one connection are
// handled in order.
type Server struct {
	backend repository.RecordStore
	logger  *zap.Logger

	mu    sync.Mutex
	conns map[*jsonrpc2.Conn]struct{}
}

// NewServer wraps a record store.
func NewServer(backend repository.RecordStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		backend: backend,
		logger:  logger.With(zap.String("component", "rpc-server")),
		conns:   make(map[*jsonrpc2.Conn]struct{}),
	}
}

// Serve accepts connections until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("record store listening", zap.String("addr", ln.Addr().String()))
	for {
		c, err := ln.Accept()
		if err != nil {
			s.closeAll()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.logger.Debug("client connected", zap.String("remote", c.RemoteAddr().String()))
		s.ServeConn(ctx, c)
	}
}

// ServeConn serves a single stream and returns immediately.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) *jsonrpc2.Conn {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-conn.DisconnectNotify()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()
	return conn
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
}

func (s *Server) handle(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	s.logger.Debug("request", zap.String("method", req.Method))

	switch req.Method {
	case MethodSaveMemory:
		var p SaveParams
		if err := decodeParams(req, &p); err != nil {
			return nil, err
		}
		content, err := model.UnmarshalContent(p.Content)
		if err != nil {
			return nil, invalidParams(err)
		}
		mem, err := s.backend.SaveMemory(ctx, p.Owner, content, model.Kind(p.ContentType))
		if err != nil {
			msg, rpcErr := s.rejected(req.Method, err)
			if rpcErr != nil {
				return nil, rpcErr
			}
			return model.Fail[model.Memory](msg), nil
		}
		return model.Ok(mem), nil

	case MethodEditMemory:
		var p EditParams
		if err := decodeParams(req, &p); err != nil {
			return nil, err
		}
		if err := s.backend.EditMemory(ctx, p.ID, p.Text, model.Kind(p.ContentType)); err != nil {
			msg, rpcErr := s.rejected(req.Method, err)
			if rpcErr != nil {
				return nil, rpcErr
			}
			return model.Fail[model.Unit](msg), nil
		}
		return model.Ok(model.Unit{}), nil

	case MethodDeleteMemory:
		var p DeleteParams
		if err := decodeParams(req, &p); err != nil {
			return nil, err
		}
		if err := s.backend.DeleteMemory(ctx, p.ID); err != nil {
			msg, rpcErr := s.rejected(req.Method, err)
			if rpcErr != nil {
				return nil, rpcErr
			}
			return model.Fail[model.Unit](msg), nil
		}
		return model.Ok(model.Unit{}), nil

	case MethodGetMemoriesByUser:
		var p ListParams
		if err := decodeParams(req, &p); err != nil {
			return nil, err
		}
		memories, err := s.backend.GetMemoriesByUser(ctx, p.Owner)
		if err != nil {
			s.logger.Error("list failed", zap.String("owner", p.Owner), zap.Error(err))
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: "list memories failed"}
		}
		return memories, nil
	}

	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found: " + req.Method}
}

// rejected returns the message for an {err} result when the backend rejected
// the request, or a JSON-RPC internal error for anything else.
func (s *Server) rejected(method string, err error) (string, error) {
	if e, ok := errs.As(err); ok && (e.Type == errs.TypeDomain || e.Type == errs.TypeValidation) {
		s.logger.Info("request rejected", zap.String("method", method), zap.String("reason", e.Message))
		return e.Message, nil
	}
	s.logger.Error("request failed", zap.String("method", method), zap.Error(err))
	return "", &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: method + " failed"}
}

func decodeParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return invalidParams(errors.New("missing params"))
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return invalidParams(err)
	}
	return nil
}

func invalidParams(err error) *jsonrpc2.Error {
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
}
