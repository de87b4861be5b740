// Package transport exposes execution sessions over newline-delimited JSON. Every
// connection gets its own session id and controller; requests are acknowledged in
// order and controller notifications are interleaved as they happen.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"stepviz/pkg/controller"
	"stepviz/pkg/recorder"
)

// maxLineSize bounds a single request, which carries a whole program
const maxLineSize = 4 << 20

type Session struct {
	ID uuid.UUID

	conn   io.ReadWriteCloser
	ctrl   *controller.Controller
	logger *log.Logger

	wmu sync.Mutex
	enc *json.Encoder
}

// NewSession wraps conn. The options configure the session's controller.
func NewSession(conn io.ReadWriteCloser, logger *log.Logger, opts ...controller.Option) *Session {
	if logger == nil {
		logger = log.Default()
	}
	s := &Session{
		ID:   uuid.New(),
		conn: conn,
		enc:  json.NewEncoder(conn),
	}
	s.logger = logger.With("session", s.ID.String())
	opts = append([]controller.Option{controller.WithLogger(s.logger)}, opts...)
	s.ctrl = controller.New(s, opts...)
	return s
}

// Controller returns the session's controller
func (s *Session) Controller() *controller.Controller {
	return s.ctrl
}

// Notify forwards a controller notification to the client
func (s *Session) Notify(n recorder.Notification) {
	msg := Message{Event: n.Event(), Session: s.ID.String(), Data: n}
	if err := s.write(msg); err != nil {
		s.logger.Debug("Dropped notification", "event", n.Event(), "error", err)
	}
}

func (s *Session) write(v any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.enc.Encode(v)
}

// Serve handles requests until the client disconnects or ctx is done. The
// session's execution is stopped before Serve returns.
func (s *Session) Serve(ctx context.Context) error {
	s.logger.Info("Client connected")

	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer func() {
		stop()
		s.ctrl.Close()
		s.conn.Close()
		s.logger.Info("Client disconnected")
	}()

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := s.write(s.handle(line)); err != nil {
			return fmt.Errorf("write ack: %w", err)
		}
	}

	err := scanner.Err()
	if ctx.Err() != nil || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Session) handle(line []byte) Ack {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("Invalid request", "error", err)
		return Ack{Message: "Invalid JSON: " + err.Error()}
	}
	s.logger.Debug("Request", "command", req.Command)

	res, err := s.dispatch(req)
	if err != nil {
		return Ack{ID: req.ID, Message: err.Error()}
	}
	return Ack{ID: req.ID, Success: res.Success, Message: res.Message, Data: res.Data}
}

func (s *Session) dispatch(req Request) (controller.Result, error) {
	switch req.Command {
	case CommandParse:
		var p parseParams
		if err := decodeParams(req.Params, &p); err != nil {
			return controller.Result{}, err
		}
		return s.ctrl.Load(p.Code, p.Inputs), nil
	case CommandStart:
		var p startParams
		if err := decodeParams(req.Params, &p); err != nil {
			return controller.Result{}, err
		}
		return s.ctrl.Start(p.StepMode), nil
	case CommandPause:
		return s.ctrl.Pause(), nil
	case CommandResume:
		return s.ctrl.Resume(), nil
	case CommandStep:
		return s.ctrl.Step(), nil
	case CommandStop:
		return s.ctrl.Stop(), nil
	case CommandSetSpeed:
		var p speedParams
		if err := decodeParams(req.Params, &p); err != nil {
			return controller.Result{}, err
		}
		return s.ctrl.SetSpeed(p.duration()), nil
	case CommandGetState:
		report := s.ctrl.State()
		res := report.Result
		res.Data = report
		return res, nil
	case CommandReset:
		return s.ctrl.Reset(), nil
	}
	return controller.Result{}, fmt.Errorf("unknown command: %q", req.Command)
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
