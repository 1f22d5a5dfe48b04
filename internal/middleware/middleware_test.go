package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lildude/strengthboard/internal/auth"
	"github.com/lildude/strengthboard/internal/middleware"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	Msg    string `json:"msg"`
	Level  string `json:"level"`
	URL    string `json:"url"`
	Agent  string `json:"agent"`
	Status int    `json:"status"`
	IP     string `json:"ip"`
	Method string `json:"method"`
	Stack  string `json:"stack_trace"`
}

func jsonLogger(b *bytes.Buffer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(b)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}

func TestLogWith(t *testing.T) {
	b := bytes.Buffer{}
	m := middleware.LogWith(jsonLogger(&b))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest("GET", "/api/trpc/system.version?input=%7B%7D", nil)
	req.RemoteAddr = "1.2.3.4"
	req.Header.Set("User-Agent", "test-runner")

	rec := httptest.NewRecorder()
	m(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)

	var e logEntry
	require.NoError(t, json.Unmarshal(b.Bytes(), &e))

	assert.Equal(t, "request received", e.Msg)
	assert.Equal(t, "info", e.Level)
	assert.Equal(t, "/api/trpc/system.version?input=%7B%7D", e.URL)
	assert.Equal(t, "test-runner", e.Agent)
	assert.Equal(t, http.StatusTeapot, e.Status)
	assert.Equal(t, "1.2.3.4", e.IP)
	assert.Equal(t, "GET", e.Method)
}

func TestLogWithImplicitStatus(t *testing.T) {
	b := bytes.Buffer{}
	m := middleware.LogWith(jsonLogger(&b))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	m(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	var e logEntry
	require.NoError(t, json.Unmarshal(b.Bytes(), &e))
	assert.Equal(t, http.StatusOK, e.Status)
}

func TestRecover(t *testing.T) {
	b := bytes.Buffer{}
	m := middleware.Recover(jsonLogger(&b))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	m(next).ServeHTTP(rec, httptest.NewRequest("POST", "/api/trpc/athlete.addLift", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var e logEntry
	require.NoError(t, json.Unmarshal(b.Bytes(), &e))
	assert.Equal(t, "internal server error", e.Msg)
	assert.Equal(t, "error", e.Level)
	assert.NotEmpty(t, e.Stack)
}

type resolverFunc func(ctx context.Context, r *http.Request) *model.User

func (f resolverFunc) Resolve(ctx context.Context, r *http.Request) *model.User { return f(ctx, r) }

func TestIdentify(t *testing.T) {
	alice := &model.User{ID: 1, Name: "Alice"}
	m := middleware.Identify(resolverFunc(func(_ context.Context, r *http.Request) *model.User {
		if r.Header.Get("Authorization") == "Bearer alice" {
			return alice
		}
		return nil
	}))

	var seen *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserFromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer alice")
	m(next).ServeHTTP(httptest.NewRecorder(), req)
	assert.Same(t, alice, seen)

	m(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Nil(t, seen)
}
