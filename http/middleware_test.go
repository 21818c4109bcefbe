package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"depositform/ml"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"
)

type panickingPredictor struct{}

func (panickingPredictor) Predict(x *mat.Dense) (ml.Prediction, error) {
	panic("model exploded")
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected generated uuid, got %q", seen)
	}
	if w.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected response header %q, got %q", seen, w.Header().Get(RequestIDHeader))
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Fatalf("expected incoming id %q to be kept, got %q", incoming, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "<script>" {
		t.Fatal("malformed incoming id must be replaced")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	h := Chain(LoggerMiddleware(logger), RecoveryMiddleware(logger))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("model exploded")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/result", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestServerLogsRecoveredPanic(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv, err := NewServer(DefaultServerConfig(), Deps{
		Loader: &fakeLoader{predictor: panickingPredictor{}},
		Logger: zap.New(core),
	})
	if err != nil {
		t.Fatal(err)
	}

	w := postForm(srv.Handler(), validForm(), nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	requestID := w.Header().Get(RequestIDHeader)
	if requestID == "" {
		t.Fatal("expected request id header")
	}

	panics := logs.FilterMessage("panic recovered").All()
	if len(panics) != 1 {
		t.Fatalf("expected one panic entry, got %d", len(panics))
	}
	if got := panics[0].ContextMap()["request_id"]; got != requestID {
		t.Fatalf("panic entry request_id = %v, want %s", got, requestID)
	}

	access := logs.FilterMessage("request").All()
	if len(access) != 1 {
		t.Fatalf("expected one access log entry, got %d", len(access))
	}
	fields := access[0].ContextMap()
	if fields["status"] != int64(http.StatusInternalServerError) {
		t.Fatalf("access log status = %v, want 500", fields["status"])
	}
	if fields["request_id"] != requestID {
		t.Fatalf("access log request_id = %v, want %s", fields["request_id"], requestID)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	h := SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, header := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(header) == "" {
			t.Fatalf("missing %s", header)
		}
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mark("a"), mark("b"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "handler" {
		t.Fatalf("unexpected order: %v", order)
	}
}
