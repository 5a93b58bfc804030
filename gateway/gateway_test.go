package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreds struct {
	token       string
	invalidated int32
}

func (f *fakeCreds) Token() string { return f.token }

func (f *fakeCreds) Invalidate() {
	atomic.AddInt32(&f.invalidated, 1)
	f.token = ""
}

func newTestGateway(t *testing.T, h http.HandlerFunc, creds Credentials) *Gateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := New(Config{BaseURL: srv.URL + "/api/"}, creds, nil)
	require.NoError(t, err)
	return g
}

func TestDoAttachesTokenAndDecodes(t *testing.T) {
	var gotAuth, gotPath, gotQuery, gotType string
	var gotBody map[string]string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}, &fakeCreds{token: "t1"})

	var out struct {
		OK bool `json:"ok"`
	}
	err := g.Do(context.Background(), http.MethodPost, "/events/search", url.Values{"q": {"ai & ml"}}, map[string]string{"a": "b"}, &out)
	require.NoError(t, err)

	assert.True(t, out.OK)
	assert.Equal(t, "Bearer t1", gotAuth)
	assert.Equal(t, "/api/events/search", gotPath)
	assert.Equal(t, "q=ai+%26+ml", gotQuery)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, map[string]string{"a": "b"}, gotBody)
}

func TestDoOmitsEmptyToken(t *testing.T) {
	seen := "unset"
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, &fakeCreds{})

	require.NoError(t, g.Get(context.Background(), "events", nil, nil))
	assert.Empty(t, seen)
}

func TestEmptyBodyLeavesOutUntouched(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, nil)

	out := map[string]int{"kept": 1}
	require.NoError(t, g.Post(context.Background(), "events/1/register", nil, &out))
	assert.Equal(t, map[string]int{"kept": 1}, out)
}

func TestNon2xxReturnsStatusError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "Event is full")
	}, &fakeCreds{token: "t1"})

	err := g.Post(context.Background(), "events/1/register", nil, nil)
	serr, ok := AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, serr.Status)
	assert.Equal(t, "Event is full", string(serr.Body))
	assert.False(t, serr.Unauthorized())
}

func TestUnauthorizedInvalidatesThenNotifies(t *testing.T) {
	creds := &fakeCreds{token: "expired"}
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, creds)

	var order []string
	g.OnUnauthorized(func() {
		if atomic.LoadInt32(&creds.invalidated) == 1 {
			order = append(order, "after-invalidate")
		}
	})

	err := g.Get(context.Background(), "auth/profile", nil, nil)
	serr, ok := AsStatus(err)
	require.True(t, ok)
	assert.True(t, serr.Unauthorized())
	assert.Equal(t, []string{"after-invalidate"}, order)
	assert.Empty(t, creds.Token())

	_ = g.Get(context.Background(), "events", nil, nil)
	assert.EqualValues(t, 2, atomic.LoadInt32(&creds.invalidated))
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g, err := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil, nil)
	require.NoError(t, err)

	err = g.Get(context.Background(), "events", nil, nil)
	require.Error(t, err)
	_, ok := AsStatus(err)
	assert.False(t, ok)
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"}, nil, nil)
	assert.Error(t, err)
}
