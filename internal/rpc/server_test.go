package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lildude/strengthboard/internal/auth"
	"github.com/lildude/strengthboard/internal/logger"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/rpc"
	"github.com/lildude/strengthboard/internal/serr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Name string `json:"name"`
}

func (in *echoInput) Validate() error {
	if in.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
		Data    struct {
			Code       string `json:"code"`
			HTTPStatus int    `json:"httpStatus"`
			Path       string `json:"path"`
		} `json:"data"`
	} `json:"error"`
}

func newServer() *rpc.Server {
	s := rpc.NewServer(logger.Discard())
	s.Register(
		rpc.NewQuery("greet.hello", rpc.Public, func(_ context.Context, _ *rpc.Request, in echoInput) (string, error) {
			return "hello " + in.Name, nil
		}),
		rpc.NewQuery("greet.whoami", rpc.Protected, func(_ context.Context, req *rpc.Request, _ rpc.NoInput) (string, error) {
			return req.User.Name, nil
		}),
		rpc.NewMutation("greet.save", rpc.Protected, func(_ context.Context, _ *rpc.Request, in echoInput) (map[string]any, error) {
			return map[string]any{"saved": in.Name}, nil
		}),
		rpc.NewMutation("greet.purge", rpc.Admin, func(_ context.Context, _ *rpc.Request, _ rpc.NoInput) (bool, error) {
			return true, nil
		}),
		rpc.NewQuery("greet.missing", rpc.Public, func(_ context.Context, _ *rpc.Request, _ rpc.NoInput) (any, error) {
			return nil, serr.NotFound("Athlete not found")
		}),
		rpc.NewQuery("greet.broken", rpc.Public, func(_ context.Context, _ *rpc.Request, _ rpc.NoInput) (any, error) {
			return nil, errors.New("connection reset")
		}),
	)
	return s
}

func do(t *testing.T, s http.Handler, method, target, body string, u *model.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if u != nil {
		req = req.WithContext(auth.WithUser(req.Context(), u))
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestQuery(t *testing.T) {
	s := newServer()

	t.Run("plain input", func(t *testing.T) {
		rr := do(t, s, http.MethodGet, "/greet.hello?input="+url.QueryEscape(`{"name":"Alice"}`), "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"result":{"data":"hello Alice"}}`, rr.Body.String())
	})

	t.Run("superjson envelope", func(t *testing.T) {
		rr := do(t, s, http.MethodGet, "/greet.hello?input="+url.QueryEscape(`{"json":{"name":"Bob"}}`), "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"result":{"data":"hello Bob"}}`, rr.Body.String())
	})

	t.Run("failed validation", func(t *testing.T) {
		rr := do(t, s, http.MethodGet, "/greet.hello", "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "name is required", body.Error.Message)
		assert.Equal(t, "BAD_REQUEST", body.Error.Data.Code)
		assert.Equal(t, -32600, body.Error.Code)
		assert.Equal(t, "greet.hello", body.Error.Data.Path)
	})

	t.Run("malformed input", func(t *testing.T) {
		rr := do(t, s, http.MethodGet, "/greet.hello?input="+url.QueryEscape(`{"name":`), "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid input", decodeError(t, rr).Error.Message)
	})
}

func TestMutation(t *testing.T) {
	s := newServer()
	u := &model.User{ID: 1, Name: "Alice", Role: model.RoleUser}

	rr := do(t, s, http.MethodPost, "/greet.save", `{"name":"Alice"}`, u)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"result":{"data":{"saved":"Alice"}}}`, rr.Body.String())

	rr = do(t, s, http.MethodPost, "/greet.save", `{"json":{"name":"Eve"},"meta":{}}`, u)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"result":{"data":{"saved":"Eve"}}}`, rr.Body.String())
}

func TestAccessTiers(t *testing.T) {
	s := newServer()
	user := &model.User{ID: 1, Name: "Alice", Role: model.RoleUser}
	admin := &model.User{ID: 2, Name: "Root", Role: model.RoleAdmin}

	tests := []struct {
		desc    string
		method  string
		path    string
		user    *model.User
		status  int
		message string
	}{
		{"protected without user", http.MethodGet, "/greet.whoami", nil, http.StatusUnauthorized, "Please login (10001)"},
		{"protected with user", http.MethodGet, "/greet.whoami", user, http.StatusOK, ""},
		{"admin without user", http.MethodPost, "/greet.purge", nil, http.StatusUnauthorized, "Please login (10001)"},
		{"admin with user", http.MethodPost, "/greet.purge", user, http.StatusForbidden, "You do not have required permission (10002)"},
		{"admin with admin", http.MethodPost, "/greet.purge", admin, http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			rr := do(t, s, tc.method, tc.path, "", tc.user)
			assert.Equal(t, tc.status, rr.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, decodeError(t, rr).Error.Message)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	s := newServer()

	tests := []struct {
		desc   string
		method string
		path   string
		status int
		code   string
	}{
		{"unknown procedure", http.MethodGet, "/greet.nope", http.StatusNotFound, "NOT_FOUND"},
		{"query over POST", http.MethodPost, "/greet.hello", http.StatusMethodNotAllowed, "METHOD_NOT_SUPPORTED"},
		{"mutation over GET", http.MethodGet, "/greet.save", http.StatusMethodNotAllowed, "METHOD_NOT_SUPPORTED"},
		{"service error", http.MethodGet, "/greet.missing", http.StatusNotFound, "NOT_FOUND"},
		{"plain error", http.MethodGet, "/greet.broken", http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			rr := do(t, s, tc.method, tc.path, "", nil)
			assert.Equal(t, tc.status, rr.Code)
			body := decodeError(t, rr)
			assert.Equal(t, tc.code, body.Error.Data.Code)
			assert.Equal(t, tc.status, body.Error.Data.HTTPStatus)
		})
	}

	t.Run("internal errors hide the cause", func(t *testing.T) {
		rr := do(t, s, http.MethodGet, "/greet.broken", "", nil)
		assert.Equal(t, "Internal server error", decodeError(t, rr).Error.Message)
		assert.NotContains(t, rr.Body.String(), "connection reset")
	})
}

func TestRegisterTwicePanics(t *testing.T) {
	s := rpc.NewServer(logger.Discard())
	p := rpc.NewQuery("dup", rpc.Public, func(_ context.Context, _ *rpc.Request, _ rpc.NoInput) (bool, error) {
		return true, nil
	})
	s.Register(p)
	assert.Panics(t, func() { s.Register(p) })
}

func TestProcedures(t *testing.T) {
	procs := newServer().Procedures()
	assert.Len(t, procs, 6)
	assert.Equal(t, rpc.Admin, procs["greet.purge"])
	assert.Equal(t, "protected", procs["greet.whoami"].String())
}
