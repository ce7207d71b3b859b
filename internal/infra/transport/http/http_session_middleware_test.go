package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkrupp/homecase-todo/internal/domain"
	context_ "github.com/mkrupp/homecase-todo/internal/infra/context"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
	"github.com/mkrupp/homecase-todo/internal/infra/session"
	http_ "github.com/mkrupp/homecase-todo/internal/infra/transport/http"
	"github.com/mkrupp/homecase-todo/internal/infra/view"
)

type stubUsers struct {
	users map[int64]*domain.User
	err   error
}

func (s *stubUsers) CurrentUser(_ context.Context, sess *session.Session) (*domain.User, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}

	id, ok := sess.Authenticated()
	if !ok {
		return nil, false, nil
	}

	user, ok := s.users[id]

	return user, ok, nil
}

type stubRenderer struct{}

func (stubRenderer) Render(w io.Writer, name string, data view.Data) error {
	if name == "broken" {
		return errors.New("broken template")
	}

	_, err := io.WriteString(w, name+"|"+stringValue(data["error_message"]))

	return err
}

func stringValue(v any) string {
	s, _ := v.(string)

	return s
}

func newTestStore(t *testing.T) *session.CookieStore {
	t.Helper()

	store, err := session.NewCookieStore(context.Background(), session.Config{
		CookieName: "todo_session",
		Secret:     strings.Repeat("k", session.MinSecretLength),
		MaxAge:     time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCookieStore() error = %v", err)
	}

	return store
}

// sessionCookie returns a cookie for a session prepared by fn.
func sessionCookie(t *testing.T, store *session.CookieStore, fn func(*session.Session)) *http.Cookie {
	t.Helper()

	sess := &session.Session{}
	fn(sess)

	rec := httptest.NewRecorder()
	if err := store.Save(rec, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}

	return cookies[0]
}

func TestSafeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		next string
		want string
	}{
		{"/index", "/index"},
		{"/update/3?x=1", "/update/3?x=1"},
		{"", ""},
		{"index", ""},
		{"//evil.example", ""},
		{"/\\evil.example", ""},
		{"https://evil.example/index", ""},
		{"/\t/evil.example", ""},
	}

	for _, tt := range tests {
		if got := http_.SafeNext(tt.next); got != tt.want {
			t.Errorf("SafeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestLoginURL(t *testing.T) {
	t.Parallel()

	if got, want := http_.LoginURL("/update/5"), "/login?next=%2Fupdate%2F5"; got != want {
		t.Errorf("LoginURL() = %q, want %q", got, want)
	}

	if got, want := http_.LoginURL("//evil.example"), "/login"; got != want {
		t.Errorf("LoginURL() = %q, want %q", got, want)
	}
}

func TestAuthenticatingMiddleware(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	users := &stubUsers{users: map[int64]*domain.User{1: {ID: 1, Username: "alice"}}}
	log := logging.NewNopLogger()

	var seen *domain.User

	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = context_.UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	handler := http_.SessionMiddleware(http_.AuthenticatingMiddleware(protected, store, log), store, users, log)

	t.Run("anonymous is redirected to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/update/5", nil))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
		}

		if got, want := rec.Header().Get("Location"), "/login?next=%2Fupdate%2F5"; got != want {
			t.Errorf("Location = %q, want %q", got, want)
		}
	})

	t.Run("authenticated user reaches handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/index", nil)
		req.AddCookie(sessionCookie(t, store, func(s *session.Session) { s.Login(1) }))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}

		if seen == nil || seen.ID != 1 {
			t.Errorf("user in context = %+v, want alice", seen)
		}
	})

	t.Run("stale session is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/index", nil)
		req.AddCookie(sessionCookie(t, store, func(s *session.Session) { s.Login(42) }))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
		}

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
			t.Errorf("cookies = %+v, want a single deleting cookie", cookies)
		}
	})
}

func TestSessionMiddleware_StorageError(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	users := &stubUsers{err: domain.ErrStorage}

	handler := http_.SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler called despite storage error")
	}), store, users, logging.NewNopLogger())

	req := httptest.NewRequest(http.MethodGet, "/index", nil)
	req.AddCookie(sessionCookie(t, store, func(s *session.Session) { s.Login(1) }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestResponder(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	log := logging.NewNopLogger()
	rs := &http_.Responder{Sessions: store, Renderer: stubRenderer{}, Log: log}

	serve := func(h http.HandlerFunc, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}

		rec := httptest.NewRecorder()
		http_.SessionMiddleware(h, store, &stubUsers{}, log).ServeHTTP(rec, req)

		return rec
	}

	t.Run("redirect with error stores pending message", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			rs.RedirectWithError(w, r, "/register", "Username is already taken.")
		}, nil)

		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/register" {
			t.Fatalf("got %d %q, want 303 /register", rec.Code, rec.Header().Get("Location"))
		}

		next := serve(func(w http.ResponseWriter, r *http.Request) {
			rs.Render(w, r, http.StatusOK, "register", nil)
		}, rec.Result().Cookies()[0])

		if got, want := next.Body.String(), "register|Username is already taken."; got != want {
			t.Errorf("body = %q, want %q", got, want)
		}

		// message was consumed: the cookie is deleted
		if cookies := next.Result().Cookies(); len(cookies) != 1 || cookies[0].MaxAge >= 0 {
			t.Errorf("cookies = %+v, want a single deleting cookie", cookies)
		}
	})

	t.Run("explicit message wins over pending", func(t *testing.T) {
		cookie := sessionCookie(t, store, func(s *session.Session) { s.SetPending("old") })

		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			rs.Render(w, r, http.StatusUnprocessableEntity, "update", view.Data{"error_message": "new"})
		}, cookie)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}

		if got, want := rec.Body.String(), "update|new"; got != want {
			t.Errorf("body = %q, want %q", got, want)
		}
	})

	t.Run("render failure is a 500", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			rs.Render(w, r, http.StatusOK, "broken", nil)
		}, nil)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	var traceID string

	handler := http_.TracingMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traceID, _ = context_.TraceIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if traceID == "" || rec.Header().Get(http_.TraceIDHeader) != traceID {
		t.Errorf("trace id = %q, header = %q", traceID, rec.Header().Get(http_.TraceIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(http_.TraceIDHeader, "abc-123")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	if traceID != "abc-123" {
		t.Errorf("trace id = %q, want client supplied id", traceID)
	}
}

func TestRescueingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.RescueingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
