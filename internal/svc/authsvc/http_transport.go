package authsvc

import (
	"errors"
	"io"
	"net/http"

	"github.com/mkrupp/homecase-todo/internal/domain"
	context_ "github.com/mkrupp/homecase-todo/internal/infra/context"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
	"github.com/mkrupp/homecase-todo/internal/infra/session"
	http_ "github.com/mkrupp/homecase-todo/internal/infra/transport/http"
	"github.com/mkrupp/homecase-todo/internal/infra/view"
)

// Messages shown to the user after a failed login or registration.
const (
	MsgInvalidCredentials = "Invalid username or password."
	MsgLoginFailed        = "There was an issue logging in."
	MsgMissingCredentials = "Both username and password are required."
	MsgUsernameTooLong    = "Username cannot exceed 50 characters."
	MsgPasswordTooLong    = "Password cannot exceed 72 bytes."
	MsgUsernameTaken      = "Username is already taken."
	MsgRegisterFailed     = "There was an issue registering the user."
)

const registerPath = "/register"

// HTTPTransport handles the HTML pages of the authentication service.
type HTTPTransport struct {
	authSvc  *AuthService
	sessions http_.SessionStore
	respond  *http_.Responder
	limiter  *http_.RateLimiter
	log      logging.Logger
	handler  http.Handler
}

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It requires an AuthService for handling authentication operations.
func NewHTTPTransport(
	authSvc *AuthService,
	sessions http_.SessionStore,
	renderer view.Renderer,
	cfg http_.HTTPTransportConfig,
) *HTTPTransport {
	log := logging.GetLogger("svc.authsvc.http_transport")

	ht := &HTTPTransport{
		authSvc:  authSvc,
		sessions: sessions,
		respond:  &http_.Responder{Sessions: sessions, Renderer: renderer, Log: log},
		limiter:  http_.NewRateLimiter(cfg.RateLimit, log),
		log:      log,
	}

	mux := http.NewServeMux()
	ht.Routes(mux)
	ht.handler = http_.SessionMiddleware(mux, sessions, authSvc, log)

	return ht
}

// Routes registers the authentication endpoints on mux:
// - GET /: Redirect to the task list or the login page
// - GET, POST /login: Show the login form, log in
// - GET, POST /register: Show the registration form, register
// - GET, POST /logout: Log out
// - GET /healthz: Liveness probe.
//
// The handlers expect the request context to be prepared by http_.SessionMiddleware.
func (ht *HTTPTransport) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", ht.HandleRoot)
	mux.HandleFunc("GET /login", ht.HandleLoginForm)
	mux.Handle("POST /login", ht.limiter.Middleware(http.HandlerFunc(ht.HandleLogin)))
	mux.HandleFunc("GET /register", ht.HandleRegisterForm)
	mux.Handle("POST /register", ht.limiter.Middleware(http.HandlerFunc(ht.HandleRegister)))
	mux.Handle("GET /logout", ht.RequireUser(http.HandlerFunc(ht.HandleLogout)))
	mux.Handle("POST /logout", ht.RequireUser(http.HandlerFunc(ht.HandleLogout)))
	mux.HandleFunc("GET /healthz", ht.HandleHealth)
}

// RequireUser wraps next so that only authenticated users reach it.
func (ht *HTTPTransport) RequireUser(next http.Handler) http.Handler {
	return http_.AuthenticatingMiddleware(next, ht.sessions, ht.log)
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.handler.ServeHTTP(w, r)
}

// HandleRoot sends authenticated users to their task list and everyone else to the login page.
func (ht *HTTPTransport) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := context_.UserFromContext(r.Context()); ok {
		ht.respond.Redirect(w, r, http_.HomePath)

		return
	}

	ht.respond.Redirect(w, r, http_.LoginPath)
}

// HandleLoginForm renders the login page.
func (ht *HTTPTransport) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	ht.respond.Render(w, r, http.StatusOK, view.PageLogin, view.Data{
		"next": http_.SafeNext(r.URL.Query().Get("next")),
	})
}

// HandleLogin checks the submitted credentials and logs the user in.
// On success the user is sent to the "next" location, if it is local.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	next := http_.SafeNext(r.URL.Query().Get("next"))

	sess, ok := session.FromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	user, err := ht.authSvc.Authenticate(ctx, r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		msg := MsgLoginFailed
		if errors.Is(err, domain.ErrInvalidCredentials) {
			msg = MsgInvalidCredentials
		}

		ht.respond.RedirectWithError(w, r, http_.LoginURL(next), msg)

		return
	}

	ht.authSvc.Login(ctx, sess, user)

	if next == "" {
		next = http_.HomePath
	}

	ht.respond.Redirect(w, r, next)
}

// HandleRegisterForm renders the registration page.
func (ht *HTTPTransport) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	ht.respond.Render(w, r, http.StatusOK, view.PageRegister, nil)
}

// HandleRegister creates a new account and sends the user to the login page.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_, err := ht.authSvc.RegisterUser(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		ht.respond.RedirectWithError(w, r, registerPath, registerErrorMessage(err))

		return
	}

	ht.respond.Redirect(w, r, http_.LoginPath)
}

func registerErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		return MsgMissingCredentials
	case errors.Is(err, domain.ErrUsernameTooLong):
		return MsgUsernameTooLong
	case errors.Is(err, domain.ErrPasswordTooLong):
		return MsgPasswordTooLong
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return MsgUsernameTaken
	default:
		return MsgRegisterFailed
	}
}

// HandleLogout clears the session identity.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		ht.authSvc.Logout(r.Context(), sess)
	}

	ht.respond.Redirect(w, r, http_.LoginPath)
}

// HandleHealth reports that the service is up.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
