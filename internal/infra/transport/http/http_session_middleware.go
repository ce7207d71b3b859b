package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/mkrupp/homecase-todo/internal/domain"
	context_ "github.com/mkrupp/homecase-todo/internal/infra/context"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
	"github.com/mkrupp/homecase-todo/internal/infra/session"
)

const (
	// LoginPath is where anonymous visitors of protected pages are sent.
	LoginPath = "/login"
	// HomePath is the landing page after login.
	HomePath = "/index"
)

// SessionStore loads and persists the session of a request.
type SessionStore interface {
	Load(r *http.Request) *session.Session
	Save(w http.ResponseWriter, s *session.Session) error
}

// UserResolver resolves the identity of a session to a user.
type UserResolver interface {
	CurrentUser(ctx context.Context, sess *session.Session) (*domain.User, bool, error)
}

// SessionMiddleware loads the session and, if it carries a valid identity,
// the user into the request context. A session whose user no longer exists
// is downgraded to anonymous.
func SessionMiddleware(next http.Handler, sessions SessionStore, users UserResolver, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := sessions.Load(r)

		user, ok, err := users.CurrentUser(ctx, sess)
		if err != nil {
			log.ErrorContext(ctx, "resolve session user failed", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

			return
		}

		if _, authenticated := sess.Authenticated(); authenticated && !ok {
			log.InfoContext(ctx, "session refers to unknown user, logging out")
			sess.Logout()
		}

		ctx = session.NewContext(ctx, sess)
		if ok {
			ctx = context_.WithUser(ctx, user)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthenticatingMiddleware requires an authenticated user in the request
// context, as put there by SessionMiddleware. Anonymous requests are
// redirected to the login page with the requested location in "next".
func AuthenticatingMiddleware(next http.Handler, sessions SessionStore, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := context_.UserFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)

			return
		}

		log.DebugContext(r.Context(), "anonymous request to protected page", logging.Group("http",
			"uri", r.RequestURI,
		))

		if sess, ok := session.FromContext(r.Context()); ok {
			if err := sessions.Save(w, sess); err != nil {
				log.ErrorContext(r.Context(), "save session failed", "error", err)
			}
		}

		http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
	})
}

// LoginURL returns the login page URL that continues to next after login.
func LoginURL(next string) string {
	if next = SafeNext(next); next == "" {
		return LoginPath
	}

	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// SafeNext returns next if it is a local absolute path, or "" otherwise.
// Scheme-relative ("//host") and backslash variants are rejected since
// browsers treat them as off-site.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") ||
		strings.HasPrefix(next, "/\\") {
		return ""
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}

	return next
}
