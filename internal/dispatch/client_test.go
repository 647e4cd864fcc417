// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInterpreter records requests and answers with a canned body.
type fakeInterpreter struct {
	status  int
	body    string
	delay   time.Duration
	headers []http.Header
	bodies  []map[string]string
}

func (f *fakeInterpreter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "jar-token", Path: "/"})
		w.WriteHeader(http.StatusOK)
		return
	}
	f.headers = append(f.headers, r.Header.Clone())
	var req map[string]string
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.bodies = append(f.bodies, req)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	w.Header().Set("Content-Type", "application/json")
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(f.body))
}

func newTestClient(t *testing.T, h http.Handler, cfg Config, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	c, err := NewClient(cfg, opts...)
	require.NoError(t, err)
	return c
}

func TestClient_SendOutput(t *testing.T) {
	fake := &fakeInterpreter{body: `{"output":["SET a 1 OK"]}`}
	c := newTestClient(t, fake, Config{})

	got := c.Send(context.Background(), "SET a 1")
	assert.Equal(t, Output{Lines: []string{"SET a 1 OK"}}, got)

	require.Len(t, fake.bodies, 1)
	assert.Equal(t, "SET a 1", fake.bodies[0]["command"])
	assert.Equal(t, "application/json", fake.headers[0].Get("Content-Type"))
	assert.NotEmpty(t, fake.headers[0].Get("X-Request-ID"))
	assert.Empty(t, fake.headers[0].Get("X-CSRFToken"), "no token means no header, request still sent")
}

func TestClient_ApplicationErrorOnErrorStatus(t *testing.T) {
	fake := &fakeInterpreter{status: http.StatusInternalServerError, body: `{"error":"list index out of range"}`}
	c := newTestClient(t, fake, Config{})

	got := c.Send(context.Background(), "SET a")
	assert.Equal(t, AppError{Message: "list index out of range"}, got)
}

func TestClient_MalformedIsTransportFailure(t *testing.T) {
	fake := &fakeInterpreter{body: `{}`}
	c := newTestClient(t, fake, Config{})

	got := c.Send(context.Background(), "GET a")
	f, ok := got.(TransportFailure)
	require.True(t, ok, "got %T", got)
	assert.True(t, errors.Is(f, ErrMalformedResponse))
}

func TestClient_BadStatusWithoutBody(t *testing.T) {
	fake := &fakeInterpreter{status: http.StatusBadGateway, body: "bad gateway"}
	c := newTestClient(t, fake, Config{})

	got := c.Send(context.Background(), "GET a")
	f, ok := got.(TransportFailure)
	require.True(t, ok, "got %T", got)
	assert.True(t, errors.Is(f, ErrUnexpectedStatus))
}

func TestClient_UnreachableIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url})
	require.NoError(t, err)

	got := c.Send(context.Background(), "GET a")
	f, ok := got.(TransportFailure)
	require.True(t, ok, "got %T", got)
	assert.True(t, errors.Is(f, ErrUnreachable))
}

func TestClient_Timeout(t *testing.T) {
	fake := &fakeInterpreter{body: `{"output":[]}`, delay: 200 * time.Millisecond}
	c := newTestClient(t, fake, Config{Timeout: 20 * time.Millisecond})

	got := c.Send(context.Background(), "GET a")
	f, ok := got.(TransportFailure)
	require.True(t, ok, "got %T", got)
	assert.True(t, errors.Is(f, ErrTimeout))
}

func TestClient_TimeoutWithCustomHTTPClient(t *testing.T) {
	fake := &fakeInterpreter{body: `{"output":[]}`, delay: 200 * time.Millisecond}
	c := newTestClient(t, fake, Config{Timeout: 20 * time.Millisecond}, WithHTTPClient(&http.Client{}))

	start := time.Now()
	got := c.Send(context.Background(), "GET a")
	f, ok := got.(TransportFailure)
	require.True(t, ok, "got %T", got)
	assert.True(t, errors.Is(f, ErrTimeout))
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestClient_PrimeStoresToken(t *testing.T) {
	fake := &fakeInterpreter{body: `{"output":["OK"]}`}
	c := newTestClient(t, fake, Config{})

	require.NoError(t, c.Prime(context.Background()))
	c.Send(context.Background(), "BEGIN")

	require.Len(t, fake.headers, 1)
	assert.Equal(t, "jar-token", fake.headers[0].Get("X-CSRFToken"))
}

func TestClient_ExplicitTokenWins(t *testing.T) {
	fake := &fakeInterpreter{body: `{"output":["OK"]}`}
	c := newTestClient(t, fake, Config{CSRFHeader: "X-Token"}, WithTokenSource(StaticTokenSource("static")))

	require.NoError(t, c.Prime(context.Background()))
	c.Send(context.Background(), "BEGIN")

	assert.Equal(t, "static", fake.headers[0].Get("X-Token"))
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestClient_Endpoint(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://example.com/", CommandPath: "command/"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/command/", c.Endpoint())
}
