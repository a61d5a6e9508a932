package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

const (
	maxRequestBytes    = 10 << 20 // 10 MB
	httpRequestTimeout = 30 * time.Second
	shutdownGrace      = 30 * time.Second
)

// RunHTTP serves the streamable HTTP transport until the context ends, then
// shuts down with a grace period for open sessions.
func (s *Server) RunHTTP(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.HTTPPort))
	handler := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.mcp },
		nil,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/", s.middleware(handler))

	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		IdleTimeout: 120 * time.Second,
	}

	go s.evictionLoop(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http transport listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http transport: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// middleware applies CORS, the request size cap, and the per-request
// timeout around the MCP handler. GET requests are the server-to-client
// event stream and are exempt from the timeout.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, mcp-session-id")
		w.Header().Set("Access-Control-Expose-Headers", "mcp-session-id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "length", r.ContentLength)

		if r.ContentLength > maxRequestBytes {
			writeOversized(w)
			return
		}
		body := &cappedReader{rc: r.Body, remaining: maxRequestBytes}
		r.Body = body

		if r.Method == http.MethodDelete {
			// Session termination: the SDK handler tears down its side, the
			// registry entry goes with it.
			if id := r.Header.Get("Mcp-Session-Id"); id != "" {
				defer s.sessions.Drop(id)
			}
		}

		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), httpRequestTimeout)
		defer cancel()
		tw := &timeoutWriter{ResponseWriter: w}
		done := make(chan struct{})
		go func() {
			defer close(done)
			next.ServeHTTP(tw, r.WithContext(ctx))
		}()
		select {
		case <-done:
			// A chunked body that blew the budget surfaces as a read error
			// inside the handler; answer it with the same 413 the
			// Content-Length fast path produces, unless a response started.
			if body.exceeded {
				tw.oversized()
			}
		case <-ctx.Done():
			// 408 only when nothing has been written yet; a started stream
			// is simply torn down by the cancelled context.
			tw.timeout()
			<-done
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats := s.sessions.Stats()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"healthy","sessions":%d}`+"\n", stats.Count)
}

// writeOversized emits the 413 with a JSON-RPC error body.
func writeOversized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	fmt.Fprint(w, `{"jsonrpc":"2.0","id":null,"error":{"code":-32000,"message":"Payload Too Large"}}`)
}

// timeoutWriter serializes writes so a deadline 408 cannot interleave with
// handler output, and suppresses handler writes after the timeout fired.
type timeoutWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	wrote    bool
	timedOut bool
}

func (t *timeoutWriter) WriteHeader(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timedOut {
		return
	}
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *timeoutWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	t.wrote = true
	return t.ResponseWriter.Write(p)
}

// Flush keeps SSE responses streaming through the wrapper.
func (t *timeoutWriter) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timedOut {
		return
	}
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (t *timeoutWriter) timeout() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timedOut = true
	if !t.wrote {
		t.ResponseWriter.WriteHeader(http.StatusRequestTimeout)
		_, _ = t.ResponseWriter.Write([]byte("Request Timeout"))
	}
}

// oversized emits the 413 unless the handler already started a response.
func (t *timeoutWriter) oversized() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wrote || t.timedOut {
		return
	}
	t.wrote = true
	writeOversized(t.ResponseWriter)
}

// errBodyTooLarge is what handlers see when a streamed body blows the
// budget; the middleware translates it to the 413 response.
var errBodyTooLarge = errors.New("request body exceeds size limit")

// cappedReader enforces the byte budget on streamed bodies that arrive
// without a Content-Length. Reads are allowed one byte past the budget so a
// body of exactly the limit still reaches its EOF cleanly.
type cappedReader struct {
	rc        io.ReadCloser
	remaining int64
	exceeded  bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		c.exceeded = true
		return 0, errBodyTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.rc.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		c.exceeded = true
		return 0, errBodyTooLarge
	}
	return n, err
}

func (c *cappedReader) Close() error { return c.rc.Close() }
