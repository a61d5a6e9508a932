package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testServerForHTTP() *Server {
	return &Server{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions: NewSessionRegistry(),
	}
}

func TestMiddlewarePreflight(t *testing.T) {
	s := testServerForHTTP()
	h := s.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the handler")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "mcp-session-id") {
		t.Error("mcp-session-id not allowed")
	}
}

func TestMiddlewareRejectsOversizedBody(t *testing.T) {
	s := testServerForHTTP()
	h := s.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized request should not reach the handler")
	}))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.ContentLength = maxRequestBytes + 1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Error.Code != -32000 || body.Error.Message != "Payload Too Large" {
		t.Errorf("error body = %+v", body.Error)
	}
}

func TestMiddlewarePassesThrough(t *testing.T) {
	s := testServerForHTTP()
	var seen string
	h := s.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ok":true}`)))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if seen != `{"ok":true}` {
		t.Errorf("handler saw body %q", seen)
	}
}

func TestCappedReaderEnforcesBudget(t *testing.T) {
	cr := &cappedReader{
		rc:        io.NopCloser(strings.NewReader("0123456789")),
		remaining: 4,
	}
	buf := make([]byte, 8)
	if _, err := cr.Read(buf); err != errBodyTooLarge {
		t.Fatalf("read past the budget: err = %v, want errBodyTooLarge", err)
	}
	if !cr.exceeded {
		t.Error("exceeded not recorded")
	}
}

func TestCappedReaderAllowsBodyAtExactBudget(t *testing.T) {
	cr := &cappedReader{
		rc:        io.NopCloser(strings.NewReader("0123")),
		remaining: 4,
	}
	got, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("read at budget: %v", err)
	}
	if string(got) != "0123" {
		t.Errorf("body = %q", got)
	}
	if cr.exceeded {
		t.Error("budget-sized body flagged as oversized")
	}
}

// letters streams an endless body, standing in for a chunked upload with no
// Content-Length.
type letters struct{}

func (letters) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'a'
	}
	return len(p), nil
}

func TestMiddlewareRejectsOversizedChunkedBody(t *testing.T) {
	s := testServerForHTTP()
	var readErr error
	h := s.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.Copy(io.Discard, r.Body)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", io.LimitReader(letters{}, maxRequestBytes+2))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if readErr != errBodyTooLarge {
		t.Errorf("handler read error = %v, want errBodyTooLarge", readErr)
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":-32000`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMiddlewareDropsSessionOnDelete(t *testing.T) {
	s := testServerForHTTP()
	s.sessions.Touch("sess-1")
	h := s.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Mcp-Session-Id", "sess-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := s.sessions.Stats().Count; got != 0 {
		t.Errorf("session count after DELETE = %d, want 0", got)
	}
}

func TestTimeoutWriterSuppressesLateWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rec}
	tw.timeout()
	if rec.Code != http.StatusRequestTimeout {
		t.Errorf("status = %d, want 408", rec.Code)
	}
	if _, err := tw.Write([]byte("late")); err != http.ErrHandlerTimeout {
		t.Errorf("late write: err = %v", err)
	}
	if strings.Contains(rec.Body.String(), "late") {
		t.Error("late handler output reached the client")
	}
}

func TestTimeoutWriterNo408AfterOutput(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rec}
	if _, err := tw.Write([]byte("partial")); err != nil {
		t.Fatalf("write: %v", err)
	}
	tw.timeout()
	if rec.Code == http.StatusRequestTimeout {
		t.Error("408 written over a started response")
	}
	if got := rec.Body.String(); got != "partial" {
		t.Errorf("body = %q", got)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServerForHTTP()
	s.sessions.Touch("s1")
	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body: %v", err)
	}
	if body.Status != "healthy" || body.Sessions != 1 {
		t.Errorf("health = %+v", body)
	}

	rec = httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}
