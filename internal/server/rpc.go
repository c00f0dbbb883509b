package server

import (
	"encoding/json"
	"net/http"

	"github.com/copyleftdev/brainwall/internal/errors"
)

// JSON-RPC 2.0 error codes
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params,omitempty"`
}

// jobParams is the parameter object of solve.status and solve.cancel.
type jobParams struct {
	JobID string `json:"job_id"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, rpcParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, rpcInvalidRequest, "Invalid Request", request.ID)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "solve.start":
		var req SolveRequest
		if err := decodeParams(request.Params, &req); err != nil {
			s.respondWithError(w, rpcInvalidParams, err.Error(), request.ID)
			return
		}
		result, err = s.Start(req)
	case "solve.status":
		var p jobParams
		if err := decodeParams(request.Params, &p); err != nil {
			s.respondWithError(w, rpcInvalidParams, err.Error(), request.ID)
			return
		}
		result, err = s.Status(p.JobID)
	case "solve.cancel":
		var p jobParams
		if err := decodeParams(request.Params, &p); err != nil {
			s.respondWithError(w, rpcInvalidParams, err.Error(), request.ID)
			return
		}
		result, err = s.Cancel(p.JobID)
	case "solve.evaluate":
		var req EvaluateRequest
		if err := decodeParams(request.Params, &req); err != nil {
			s.respondWithError(w, rpcInvalidParams, err.Error(), request.ID)
			return
		}
		result, err = s.Evaluate(req)
	default:
		s.respondWithError(w, rpcMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, rpcServerError, err.Error(), request.ID)
		return
	}

	// Send successful response
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

// decodeParams decodes the first positional parameter into v.
func decodeParams(params []json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return errors.New("missing required parameters")
	}
	if err := json.Unmarshal(params[0], v); err != nil {
		return errors.Wrap(err, "invalid parameter format, expected object")
	}
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("RPC request error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}
