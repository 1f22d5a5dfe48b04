// Package rpc serves typed remote procedures over HTTP using the tRPC wire
// format: queries are GET requests with a URL-encoded JSON input and
// mutations are POST requests with a JSON body.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/serr"
)

// Access is the tier a caller must reach to run a procedure.
type Access int

const (
	Public Access = iota
	Protected
	Admin
)

func (a Access) String() string {
	switch a {
	case Protected:
		return "protected"
	case Admin:
		return "admin"
	}
	return "public"
}

// Kind separates read-only queries from mutations.
type Kind int

const (
	Query Kind = iota
	Mutation
)

// Request carries the caller and the underlying HTTP exchange.
type Request struct {
	User   *model.User
	HTTP   *http.Request
	Writer http.ResponseWriter
}

// Validator is implemented by inputs that check their own fields.
type Validator interface {
	Validate() error
}

// NoInput is the input of procedures that take none.
type NoInput struct{}

// Handler runs a procedure with its decoded input.
type Handler[In, Out any] func(ctx context.Context, req *Request, in In) (Out, error)

// Procedure is one named, access-controlled remote call.
type Procedure struct {
	Name   string
	Kind   Kind
	Access Access

	call func(ctx context.Context, req *Request, raw []byte) (any, error)
}

func NewQuery[In, Out any](name string, access Access, h Handler[In, Out]) Procedure {
	return newProcedure(name, Query, access, h)
}

func NewMutation[In, Out any](name string, access Access, h Handler[In, Out]) Procedure {
	return newProcedure(name, Mutation, access, h)
}

func newProcedure[In, Out any](name string, kind Kind, access Access, h Handler[In, Out]) Procedure {
	return Procedure{
		Name:   name,
		Kind:   kind,
		Access: access,
		call: func(ctx context.Context, req *Request, raw []byte) (any, error) {
			var in In
			if err := decodeInput(raw, &in); err != nil {
				return nil, serr.NewServiceError(err, http.StatusBadRequest, "Invalid input")
			}
			if v, ok := any(&in).(Validator); ok {
				if err := v.Validate(); err != nil {
					return nil, serr.NewServiceError(err, http.StatusBadRequest, "%s", err.Error())
				}
			}
			return h(ctx, req, in)
		},
	}
}

// decodeInput unmarshals raw into v, unwrapping a {"json": ...} envelope.
// Empty input leaves v at its zero value.
func decodeInput(raw []byte, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if inner, ok := unwrapEnvelope(raw); ok {
		raw = inner
	}
	return json.Unmarshal(raw, v)
}

func unwrapEnvelope(raw []byte) ([]byte, bool) {
	if raw[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	inner, ok := fields["json"]
	if !ok {
		return nil, false
	}
	for k := range fields {
		if k != "json" && k != "meta" {
			return nil, false
		}
	}
	return inner, true
}
