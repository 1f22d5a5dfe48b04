package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lildude/strengthboard/internal/client"
)

// api calls the server's remote procedures.
type api struct {
	c *client.Client
}

func newAPI(base *url.URL, token string) *api {
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	c := client.NewClient(base, nil)
	if token != "" {
		c.Header.Set("Authorization", "Bearer "+token)
	}
	return &api{c: c}
}

type result struct {
	Result struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
}

type rpcError struct {
	Error struct {
		Message string `json:"message"`
		Data    struct {
			Code string `json:"code"`
		} `json:"data"`
	} `json:"error"`
}

func (a *api) query(ctx context.Context, proc string, input, out any) error {
	path := "api/trpc/" + proc
	if input != nil {
		b, err := json.Marshal(input)
		if err != nil {
			return err
		}
		path += "?input=" + url.QueryEscape(string(b))
	}
	req, err := a.c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return a.do(req, out)
}

func (a *api) mutate(ctx context.Context, proc string, input, out any) error {
	req, err := a.c.NewRequest(ctx, http.MethodPost, "api/trpc/"+proc, input)
	if err != nil {
		return err
	}
	return a.do(req, out)
}

func (a *api) do(req *http.Request, out any) error {
	var res result
	_, err := a.c.Do(req, &res)

	var er *client.ErrorResponse
	if errors.As(err, &er) {
		var body rpcError
		if json.Unmarshal(er.Body, &body) == nil && body.Error.Message != "" {
			return fmt.Errorf("%s (%s)", body.Error.Message, body.Error.Data.Code)
		}
		return err
	}
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(res.Result.Data, out)
}
