package rpc

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lildude/strengthboard/internal/auth"
	"github.com/lildude/strengthboard/internal/httpx"
	"github.com/lildude/strengthboard/internal/serr"
	"github.com/sirupsen/logrus"
)

const (
	unauthedMessage = "Please login (10001)"
	notAdminMessage = "You do not have required permission (10002)"
)

// DefaultMaxBodyBytes bounds mutation bodies. Bulk imports are the largest.
const DefaultMaxBodyBytes = 10 << 20

// Server dispatches requests to registered procedures by path.
type Server struct {
	procs        map[string]Procedure
	log          logrus.FieldLogger
	maxBodyBytes int64
}

func NewServer(log logrus.FieldLogger) *Server {
	return &Server{
		procs:        map[string]Procedure{},
		log:          log,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Register adds procedures. Registering a name twice panics.
func (s *Server) Register(procs ...Procedure) {
	for _, p := range procs {
		if _, dup := s.procs[p.Name]; dup {
			panic(fmt.Sprintf("rpc: procedure %q registered twice", p.Name))
		}
		s.procs[p.Name] = p
	}
}

// Procedures returns the registered procedure names and their tiers.
func (s *Server) Procedures() map[string]Access {
	out := make(map[string]Access, len(s.procs))
	for name, p := range s.procs {
		out[name] = p.Access
	}
	return out
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(r.URL.Path, "/")
	p, ok := s.procs[name]
	if !ok {
		s.writeError(w, r, name, serr.NotFound("No procedure found on path %q", name))
		return
	}

	raw, err := s.readInput(w, r, p)
	if err != nil {
		s.writeError(w, r, name, err)
		return
	}

	user := auth.UserFromContext(r.Context())
	switch {
	case p.Access >= Protected && user == nil:
		s.writeError(w, r, name, serr.Unauthorized(unauthedMessage))
		return
	case p.Access == Admin && !user.IsAdmin():
		s.writeError(w, r, name, serr.Forbidden(notAdminMessage))
		return
	}

	out, err := p.call(r.Context(), &Request{User: user, HTTP: r, Writer: w}, raw)
	if err != nil {
		s.writeError(w, r, name, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resultEnvelope{Result: result{Data: out}}); err != nil {
		s.log.WithError(err).WithField("path", name).Error("writing response failed")
	}
}

func (s *Server) readInput(w http.ResponseWriter, r *http.Request, p Procedure) ([]byte, error) {
	switch {
	case p.Kind == Query && (r.Method == http.MethodGet || r.Method == http.MethodHead):
		return []byte(r.URL.Query().Get("input")), nil
	case p.Kind == Mutation && r.Method == http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, serr.NewServiceError(err, http.StatusRequestEntityTooLarge, "Request body too large")
			}
			return nil, serr.NewServiceError(err, http.StatusBadRequest, "Reading request body failed")
		}
		return body, nil
	}

	kind := "query"
	if p.Kind == Mutation {
		kind = "mutation"
	}
	return nil, serr.NewServiceError(nil, http.StatusMethodNotAllowed, "Unsupported %s-request to %s procedure at path %q", r.Method, kind, p.Name)
}

type resultEnvelope struct {
	Result result `json:"result"`
}

type result struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorShape `json:"error"`
}

type errorShape struct {
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Data    errorData `json:"data"`
}

type errorData struct {
	Code       string `json:"code"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path"`
}

// errorCodes pairs HTTP statuses with tRPC error names and JSON-RPC codes.
var errorCodes = map[int]struct {
	name string
	code int
}{
	http.StatusBadRequest:            {"BAD_REQUEST", -32600},
	http.StatusUnauthorized:          {"UNAUTHORIZED", -32001},
	http.StatusForbidden:             {"FORBIDDEN", -32003},
	http.StatusNotFound:              {"NOT_FOUND", -32004},
	http.StatusMethodNotAllowed:      {"METHOD_NOT_SUPPORTED", -32005},
	http.StatusConflict:              {"CONFLICT", -32009},
	http.StatusRequestEntityTooLarge: {"PAYLOAD_TOO_LARGE", -32013},
	http.StatusInternalServerError:   {"INTERNAL_SERVER_ERROR", -32603},
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, path string, err error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"

	var se *serr.ServiceError
	if errors.As(err, &se) {
		status = se.StatusCode
		msg = se.Msg
	}

	code, ok := errorCodes[status]
	if !ok {
		status = http.StatusInternalServerError
		code = errorCodes[status]
	}

	entry := s.log.WithError(err).WithFields(logrus.Fields{
		"path":   path,
		"method": r.Method,
		"status": status,
	})
	if se != nil {
		for k, v := range se.Env {
			entry = entry.WithField(k, v)
		}
	}
	if status >= http.StatusInternalServerError {
		entry.Error("procedure failed")
	} else {
		entry.Debug("procedure rejected")
	}

	resp := errorEnvelope{Error: errorShape{
		Message: msg,
		Code:    code.code,
		Data:    errorData{Code: code.name, HTTPStatus: status, Path: path},
	}}
	if werr := httpx.WriteJSON(w, status, resp); werr != nil {
		s.log.WithError(werr).WithField("path", path).Error("writing error response failed")
	}
}
