// Package gateway is the single HTTP client every service call goes through.
// It attaches the bearer token and turns 401 responses into a session
// invalidation plus an event the top-level controller listens for.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

// Credentials is the gateway's view of the session store.
type Credentials interface {
	Token() string
	Invalidate()
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *StatusError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

type Gateway struct {
	base    *url.URL
	headers map[string]string
	http    *http.Client
	creds   Credentials
	log     *zap.Logger

	mu        sync.RWMutex
	listeners []func()
}

func New(conf Config, creds Credentials, log *zap.Logger) (*Gateway, error) {
	if conf.BaseURL == "" {
		conf.BaseURL = DefaultConfig().BaseURL
	}
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultConfig().Timeout
	}
	if conf.Headers == nil {
		conf.Headers = DefaultConfig().Headers
	}
	base, err := url.Parse(strings.TrimRight(conf.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("url.Parse -> %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", conf.BaseURL)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		base:    base,
		headers: conf.Headers,
		http:    &http.Client{Timeout: conf.Timeout},
		creds:   creds,
		log:     log,
	}, nil
}

// OnUnauthorized registers fn to run after any call sees a 401. The session
// has already been invalidated when fn runs.
func (g *Gateway) OnUnauthorized(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

func (g *Gateway) emitUnauthorized() {
	if g.creds != nil {
		g.creds.Invalidate()
	}
	g.mu.RLock()
	ls := append([]func(){}, g.listeners...)
	g.mu.RUnlock()
	for _, fn := range ls {
		fn()
	}
}

// resolve joins an already-escaped path onto the base URL.
func (g *Gateway) resolve(path string, query url.Values) string {
	s := g.base.String() + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

// Do performs one request. body is JSON-encoded when non-nil; a 2xx response
// with content is decoded into out when out is non-nil.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json.Marshal -> %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.resolve(path, query), rdr)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}
	if g.creds != nil {
		if tok := g.creds.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		g.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("g.http.Do -> %w", err)
	}
	defer resp.Body.Close()

	g.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: data}
		if serr.Unauthorized() {
			g.log.Info("unauthorized response, clearing session", zap.String("path", path))
			g.emitUnauthorized()
		}
		return serr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("io.ReadAll -> %w", err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("json.Unmarshal -> %w", err)
	}
	return nil
}

func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (g *Gateway) Put(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// AsStatus unwraps a *StatusError.
func AsStatus(err error) (*StatusError, bool) {
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr, true
	}
	return nil, false
}
