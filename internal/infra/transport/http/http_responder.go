package http

import (
	"bytes"
	"net/http"

	context_ "github.com/mkrupp/homecase-todo/internal/infra/context"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
	"github.com/mkrupp/homecase-todo/internal/infra/session"
	"github.com/mkrupp/homecase-todo/internal/infra/view"
)

const errorMessageKey = "error_message"

// Responder ends a request with a rendered page or a redirect. The session
// from the request context is saved first so cookie changes always reach the
// client.
type Responder struct {
	Sessions SessionStore
	Renderer view.Renderer
	Log      logging.Logger
}

// Render writes page with status. The pending session message is consumed;
// an "error_message" already present in data takes precedence over it. The
// current user, if any, is made available as "user".
func (rs *Responder) Render(w http.ResponseWriter, r *http.Request, status int, page string, data view.Data) {
	ctx := r.Context()

	if data == nil {
		data = view.Data{}
	}

	if sess, ok := session.FromContext(ctx); ok {
		if msg, ok := sess.TakeAndClear(); ok {
			if _, set := data[errorMessageKey]; !set {
				data[errorMessageKey] = msg
			}
		}
	}

	if user, ok := context_.UserFromContext(ctx); ok {
		data["user"] = user
	}

	var buf bytes.Buffer

	if err := rs.Renderer.Render(&buf, page, data); err != nil {
		rs.Log.ErrorContext(ctx, "render page failed", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	if !rs.saveSession(w, r) {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if _, err := buf.WriteTo(w); err != nil {
		rs.Log.DebugContext(ctx, "write page failed", "page", page, "error", err)
	}
}

// Redirect sends a 303 See Other to location.
func (rs *Responder) Redirect(w http.ResponseWriter, r *http.Request, location string) {
	if !rs.saveSession(w, r) {
		return
	}

	http.Redirect(w, r, location, http.StatusSeeOther)
}

// RedirectWithError stores msg as the pending message and redirects to location.
func (rs *Responder) RedirectWithError(w http.ResponseWriter, r *http.Request, location, msg string) {
	if sess, ok := session.FromContext(r.Context()); ok {
		sess.SetPending(msg)
	}

	rs.Redirect(w, r, location)
}

// NotFound writes a plain 404 response.
func (rs *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	if !rs.saveSession(w, r) {
		return
	}

	http.NotFound(w, r)
}

func (rs *Responder) saveSession(w http.ResponseWriter, r *http.Request) bool {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return true
	}

	if err := rs.Sessions.Save(w, sess); err != nil {
		rs.Log.ErrorContext(r.Context(), "save session failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return false
	}

	return true
}
