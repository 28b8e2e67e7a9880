package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hupe1980/opsmesh/core"
	"github.com/hupe1980/opsmesh/logging"
	"github.com/hupe1980/opsmesh/task"
)

// TaskHandler processes inbound protocol calls. The runner implements it.
type TaskHandler interface {
	// OnSendTask stores the incoming message, produces a reply and returns
	// the full task. For any input that reaches the handler it returns a
	// well-formed task; only invalid arguments surface as errors.
	OnSendTask(ctx context.Context, params TaskSendParams) (*core.Task, error)
	// OnGetTask returns the current state of a previously submitted task.
	OnGetTask(ctx context.Context, id string) (*core.Task, error)
}

// ServerOptions configures the protocol Server.
type ServerOptions struct {
	Logger logging.Logger
}

// Server exposes an agent over HTTP: the agent card on the well-known path
// and the JSON-RPC task endpoints on the root path.
type Server struct {
	card    AgentCard
	handler TaskHandler
	logger  logging.Logger
}

// NewServer constructs a Server for the given card and handler.
func NewServer(card AgentCard, handler TaskHandler, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{card: card, handler: handler, logger: opts.Logger}
}

// Handler returns the HTTP handler serving the card and RPC endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+WellKnownPath, s.handleCard)
	mux.HandleFunc("POST /", s.handleRPC)
	return mux
}

func (s *Server) handleCard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.card); err != nil {
		s.logger.Error("encode agent card", "error", err)
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, nil, CodeParseError, "malformed request")
		return
	}

	switch req.Method {
	case MethodTasksSend:
		s.handleSendTask(w, r, req)
	case MethodTasksGet:
		s.handleGetTask(w, r, req)
	default:
		s.writeError(w, req.ID, CodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) handleSendTask(w http.ResponseWriter, r *http.Request, req Request) {
	var params TaskSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(w, req.ID, CodeInvalidParams, "invalid tasks/send params")
		return
	}

	s.logger.Info("received task", "task_id", params.ID, "session_id", params.SessionID)

	result, err := s.handler.OnSendTask(r.Context(), params)
	if err != nil {
		if errors.Is(err, task.ErrEmptyTaskID) {
			s.writeError(w, req.ID, CodeInvalidParams, err.Error())
			return
		}
		s.logger.Error("task handling failed", "task_id", params.ID, "error", err)
		s.writeError(w, req.ID, CodeInternalError, err.Error())
		return
	}

	s.writeResult(w, req.ID, TaskToWire(result))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, req Request) {
	var params TaskQueryParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(w, req.ID, CodeInvalidParams, "invalid tasks/get params")
		return
	}

	result, err := s.handler.OnGetTask(r.Context(), params.ID)
	if err != nil {
		var nf *task.NotFoundError
		if errors.As(err, &nf) {
			s.writeError(w, req.ID, CodeInvalidParams, err.Error())
			return
		}
		s.writeError(w, req.ID, CodeInternalError, err.Error())
		return
	}

	s.writeResult(w, req.ID, TaskToWire(result))
}

func (s *Server) writeResult(w http.ResponseWriter, id any, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, id, CodeInternalError, "encode result")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: id, Result: raw}); err != nil {
		s.logger.Error("encode rpc response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, id any, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: msg}}); err != nil {
		s.logger.Error("encode rpc error", "error", err)
	}
}
