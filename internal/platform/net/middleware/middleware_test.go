package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	perr "arguxai/internal/platform/errors"
	phttp "arguxai/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestAccessLogPassesThrough(t *testing.T) {
	h := RequestID()(AccessLog(AccessLogOptions{Slow: time.Nanosecond})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("he"))
		_, _ = w.Write([]byte("llo"))
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events/batch", nil))
	if rec.Code != http.StatusCreated || rec.Body.String() != "hello" {
		t.Fatalf("status/body = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRecoverJSONWritesEnvelope(t *testing.T) {
	r := chi.NewRouter()
	r.Use(RequestID(), RecoverJSON)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "abc")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var env phttp.Envelope
	body, _ := io.ReadAll(rec.Body)
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&env); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if env.Code != perr.ErrorCodePanic || env.RequestID != "abc" {
		t.Fatalf("envelope = %+v", env)
	}
	if rec.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("request id header missing")
	}
}

func TestCORSDefaults(t *testing.T) {
	h := CORS(CORSOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/issues", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}
