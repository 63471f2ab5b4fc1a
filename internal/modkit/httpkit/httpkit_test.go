package httpkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arguxai/internal/platform/config"
	perr "arguxai/internal/platform/errors"
	phttp "arguxai/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type resolveInput struct {
	Note string `json:"note" validate:"required"`
}

func newAPI(t *testing.T) http.Handler {
	t.Helper()
	mux := chi.NewRouter()
	MountAPIV1(phttp.AdaptChi(mux), CommonStack(config.New().Prefix("TEST_API_")), func(api Router) {
		MountUnder(api, "/issues", nil, func(r Router) {
			Get(r, "/{id}", func(r *http.Request) (any, error) {
				if Param(r, "id") == "missing" {
					return nil, perr.NotFoundf("issue %s not found", Param(r, "id"))
				}
				return map[string]string{"issue_id": Param(r, "id")}, nil
			})
			PostJSON(r, "/{id}/resolve", func(r *http.Request, in resolveInput) (any, error) {
				return Created(map[string]string{"note": in.Note}), nil
			})
			Delete(r, "/{id}", func(*http.Request) (any, error) { return NoContent(), nil })
		})
	})
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env Envelope
	if rec.Code != http.StatusNoContent {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestVersionedRoutesAndEnvelope(t *testing.T) {
	h := newAPI(t)

	rec, env := do(t, h, http.MethodGet, "/api/v1/issues/issue_1_loginform", "")
	if rec.Code != http.StatusOK || env.RequestID == "" {
		t.Fatalf("get = %d %+v", rec.Code, env)
	}
	if env.Data.(map[string]any)["issue_id"] != "issue_1_loginform" {
		t.Fatalf("data = %v", env.Data)
	}

	rec, env = do(t, h, http.MethodGet, "/api/v1/issues/missing", "")
	if rec.Code != http.StatusNotFound || env.Code != perr.ErrorCodeNotFound {
		t.Fatalf("missing = %d %+v", rec.Code, env)
	}

	rec, env = do(t, h, http.MethodPost, "/api/v1/issues/x/resolve", `{"note":"fixed"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("resolve = %d %+v", rec.Code, env)
	}

	rec, env = do(t, h, http.MethodPost, "/api/v1/issues/x/resolve", `{}`)
	if rec.Code != http.StatusBadRequest || env.Field != "note" {
		t.Fatalf("invalid = %d %+v", rec.Code, env)
	}

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/issues/x", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
}

func TestMountUnderRootGroups(t *testing.T) {
	mux := chi.NewRouter()
	hit := ""
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit = r.URL.Path
			next.ServeHTTP(w, r)
		})
	}
	MountUnder(phttp.AdaptChi(mux), "/", []func(http.Handler) http.Handler{tag}, func(r Router) {
		Get(r, "/ping", func(*http.Request) (any, error) { return "pong", nil })
	})
	MountAPI(phttp.AdaptChi(mux), "", nil, func(r Router) {
		Get(r, "/pong", func(*http.Request) (any, error) { return "ping", nil })
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK || hit != "/ping" {
		t.Fatalf("root group = %d hit=%q", rec.Code, hit)
	}
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pong", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("blank version = %d", rec.Code)
	}
}
