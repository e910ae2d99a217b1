// Package echo provides a deterministic HTTP endpoint that reflects every
// request it receives and keeps a copy of it for later inspection.
package echo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// CapturedRequest is one request seen by the server.
type CapturedRequest struct {
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Query     map[string]string `json:"query"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	Timestamp time.Time         `json:"-"`
}

// DefaultLimit is how many requests a Server keeps unless WithLimit says
// otherwise.
const DefaultLimit = 100

// Server echoes requests back as JSON. The zero value is not usable; call New.
type Server struct {
	logger *slog.Logger
	limit  int

	mu       sync.Mutex
	requests []CapturedRequest // the last limit requests
	total    int

	srv  *http.Server
	addr string
	done chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLimit keeps only the last n captured requests. n <= 0 keeps
// DefaultLimit.
func WithLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.limit = n
		}
	}
}

// New creates a new echo server.
func New(logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{logger: logger, limit: DefaultLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP responds 200 with {method, path, query, headers, body}. The
// reply depends only on the request, so identical requests get identical
// replies.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		body = []byte(fmt.Sprintf("error reading body: %v", err))
	}
	defer r.Body.Close()

	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		query[key] = strings.Join(values, ",")
	}

	headers := make(map[string]string)
	for key, values := range r.Header {
		// Transport-controlled headers vary between otherwise identical calls.
		switch key {
		case "Accept-Encoding", "Content-Length", "Connection":
			continue
		}
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	captured := CapturedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     query,
		Headers:   headers,
		Body:      string(body),
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	if len(s.requests) == s.limit {
		copy(s.requests, s.requests[1:])
		s.requests = s.requests[:s.limit-1]
	}
	s.requests = append(s.requests, captured)
	s.total++
	s.mu.Unlock()

	s.logger.Debug("echo", "method", r.Method, "path", r.URL.Path, "bytes", len(body))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(captured)
}

// Count returns the number of requests received so far, including those
// no longer kept.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Requests returns a copy of the kept requests in arrival order.
func (s *Server) Requests() []CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Start listens on addr (":0" picks a free port) and serves in the
// background. It returns the base URL.
func (s *Server) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return "", fmt.Errorf("echo server already running on %s", s.addr)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start listener: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	s.addr = fmt.Sprintf("http://localhost:%d", port)
	s.srv = &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	s.done = make(chan struct{})

	srv, done := s.srv, s.done
	go func() {
		defer close(done)
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("echo server stopped", "error", err)
		}
	}()

	s.logger.Info("echo server listening", "url", s.addr)
	return s.addr, nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.srv = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown echo server: %w", err)
	}
	<-done
	return nil
}

// Format renders the captured requests for terminal output.
func (s *Server) Format() string {
	s.mu.Lock()
	requests := make([]CapturedRequest, len(s.requests))
	copy(requests, s.requests)
	total := s.total
	s.mu.Unlock()

	if len(requests) == 0 {
		return "No requests captured yet."
	}

	var sb strings.Builder
	if total > len(requests) {
		fmt.Fprintf(&sb, "Captured %d request(s), showing the last %d:\n\n", total, len(requests))
	} else {
		fmt.Fprintf(&sb, "Captured %d request(s):\n\n", total)
	}
	first := total - len(requests) + 1
	for i, req := range requests {
		fmt.Fprintf(&sb, "Request #%d (%s)\n", first+i, req.Timestamp.Format("15:04:05"))
		fmt.Fprintf(&sb, "  %s %s\n", req.Method, req.Path)

		keys := make([]string, 0, len(req.Headers))
		for k := range req.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "    %s: %s\n", k, req.Headers[k])
		}
		if req.Body != "" {
			fmt.Fprintf(&sb, "  Body: %s\n", req.Body)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
